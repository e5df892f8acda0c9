// Package storage is the object store behind uploaded files: organisation
// logos, task attachments and avatars.
//
// Backends register themselves from an init() in their own package:
//
//	func init() {
//	    storage.Register("mybackend", func(cfg *config.Config) (storage.Storage, error) {
//	        return NewMyBackend(cfg)
//	    })
//	}
//
// and cmd/server blank-imports every backend it ships with.
package storage

import (
	"context"
	"io"
	"time"
)

// Storage is implemented by every backend. Paths are slash-separated object
// keys such as "logos/<user id>/<uuid>-logo.png".
type Storage interface {
	// Upload stores the object and reports its size and SHA-256
	Upload(ctx context.Context, path string, reader io.Reader, size int64) (*UploadResult, error)

	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete succeeds when the object is already gone
	Delete(ctx context.Context, path string) error

	// GetURL returns a download URL. Cloud backends sign it for ttl.
	GetURL(ctx context.Context, path string, ttl time.Duration) (string, error)

	Exists(ctx context.Context, path string) (bool, error)

	// GetMetadata reads object attributes without downloading the body
	GetMetadata(ctx context.Context, path string) (*FileMetadata, error)
}

// UploadResult describes a stored object
type UploadResult struct {
	Path     string
	Size     int64
	Checksum string // hex SHA-256
}

// FileMetadata describes an object already in the store
type FileMetadata struct {
	Path         string
	Size         int64
	Checksum     string
	LastModified time.Time
}
