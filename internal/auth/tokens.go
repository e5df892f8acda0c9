// Package auth - tokens.go generates the one-time values used by the account
// confirmation and invitation flows.
package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

const (
	temporaryPasswordLength = 12
	lowerChars              = "abcdefghijkmnopqrstuvwxyz"
	upperChars              = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	digitChars              = "23456789"
)

func randomIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

// GenerateOTP returns an n digit numeric code without a leading zero
func GenerateOTP(n int) (string, error) {
	if n < 1 || n > 18 {
		return "", fmt.Errorf("otp length %d out of range", n)
	}
	lo := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n-1)), nil)
	span := new(big.Int).Sub(new(big.Int).Mul(lo, big.NewInt(10)), lo)
	v, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return v.Add(v, lo).String(), nil
}

// GenerateConfirmationToken returns a random UUID used in confirmation and
// invitation links
func GenerateConfirmationToken() string {
	return uuid.New().String()
}

// GenerateTemporaryPassword returns a random password that satisfies
// CheckPasswordPolicy. Look-alike characters (l, o, I, O, 0, 1) are excluded.
func GenerateTemporaryPassword() (string, error) {
	classes := []string{lowerChars, upperChars, digitChars, PasswordSpecials}
	all := lowerChars + upperChars + digitChars + PasswordSpecials

	out := make([]byte, temporaryPasswordLength)
	for i := range out {
		set := all
		if i < len(classes) {
			set = classes[i]
		}
		idx, err := randomIndex(len(set))
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		out[i] = set[idx]
	}

	// shuffle so the guaranteed classes are not always first
	for i := len(out) - 1; i > 0; i-- {
		j, err := randomIndex(i + 1)
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		out[i], out[j] = out[j], out[i]
	}
	return string(out), nil
}
