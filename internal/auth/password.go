// Package auth - password.go hashes and checks user passwords and defines the
// password policy enforced at registration and invitation acceptance.
package auth

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// PasswordSpecials are the symbols the password policy accepts.
const PasswordSpecials = "!@#$_"

// MinPasswordLength is the shortest password the policy accepts.
const MinPasswordLength = 8

// HashPassword returns the bcrypt hash of plain at the given cost
func HashPassword(plain string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether plain matches hash
func VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// ErrWeakPassword describes the password policy.
var ErrWeakPassword = errors.New("password must be at least 8 characters and contain an uppercase letter, a lowercase letter, a digit and one of " + PasswordSpecials)

// CheckPasswordPolicy returns ErrWeakPassword unless s has at least
// MinPasswordLength characters including an upper and lower case letter, a
// digit and one of PasswordSpecials.
func CheckPasswordPolicy(s string) error {
	if len(s) < MinPasswordLength {
		return ErrWeakPassword
	}
	var upper, lower, digit, special bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(PasswordSpecials, r):
			special = true
		}
	}
	if !upper || !lower || !digit || !special {
		return ErrWeakPassword
	}
	return nil
}
