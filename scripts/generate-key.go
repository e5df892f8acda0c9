// Package main is a development utility that generates the two JWT signing
// secrets and prints them as environment assignments ready to paste into a
// .env file or a Kubernetes secret. The secrets must differ; the server refuses
// to start otherwise.
//
//	go run ./scripts/generate-key.go >> .env
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
)

func secret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Fatal(err)
	}
	return hex.EncodeToString(b)
}

func main() {
	access, refresh := secret(), secret()
	for access == refresh {
		refresh = secret()
	}

	fmt.Printf("WN_AUTH_ACCESS_TOKEN_SECRET=%s\n", access)
	fmt.Printf("WN_AUTH_REFRESH_TOKEN_SECRET=%s\n", refresh)
}
