// Package main prints the bcrypt hash of a password after checking it against
// the account password policy. Worknest stores only password hashes, so this is
// how an operator seeds the first Master Admin row by hand:
//
//	WORKNEST_PASSWORD='S3cret#pass' go run ./cmd/hash
//
// The cost defaults to bcrypt.DefaultCost and can be raised with -cost.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/worknest/worknest/internal/auth"
)

func main() {
	cost := flag.Int("cost", 0, "bcrypt cost (0 = default)")
	flag.Parse()

	password := os.Getenv("WORKNEST_PASSWORD")
	if password == "" && flag.NArg() > 0 {
		password = flag.Arg(0)
	}
	if password == "" {
		fmt.Fprintln(os.Stderr, "usage: WORKNEST_PASSWORD=<password> hash [-cost N]")
		os.Exit(2)
	}

	if err := auth.CheckPasswordPolicy(password); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	hash, err := auth.HashPassword(password, *cost)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
