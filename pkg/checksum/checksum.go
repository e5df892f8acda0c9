// Package checksum computes the hex SHA-256 digests that every storage backend
// reports for uploaded files.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// MetadataKey is the object metadata key under which remote backends keep the digest.
const MetadataKey = "sha256"

// Bytes returns the digest of data.
func Bytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// CalculateSHA256 calculates the SHA256 checksum of data from a reader
func CalculateSHA256(reader io.Reader) (string, error) {
	hasher := sha256.New()

	if _, err := io.Copy(hasher, reader); err != nil {
		return "", fmt.Errorf("failed to calculate checksum: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Copy copies src to dst and returns the digest of what was written.
func Copy(dst io.Writer, src io.Reader) (int64, string, error) {
	hasher := sha256.New()
	n, err := io.Copy(io.MultiWriter(dst, hasher), src)
	if err != nil {
		return n, "", err
	}
	return n, hex.EncodeToString(hasher.Sum(nil)), nil
}
