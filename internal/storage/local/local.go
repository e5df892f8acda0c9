// Package local implements the filesystem storage backend. It is meant for
// development and single-node deployments: several API replicas would need a
// shared volume. Production deployments use s3, gcs or azure.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/worknest/worknest/internal/config"
	"github.com/worknest/worknest/internal/storage"
	"github.com/worknest/worknest/pkg/checksum"
)

// FilesRoute is where the router serves the base directory when
// storage.local.serve_directly is enabled.
const FilesRoute = "/files"

func init() {
	storage.Register("local", func(cfg *config.Config) (storage.Storage, error) {
		return New(&cfg.Storage.Local, cfg.Server.GetPublicURL())
	})
}

// LocalStorage implements the Storage interface for local filesystem storage
type LocalStorage struct {
	basePath      string
	serveDirectly bool
	publicURL     string
}

// New creates the base directory if needed
func New(cfg *config.LocalStorageConfig, publicURL string) (*LocalStorage, error) {
	if cfg.BasePath == "" {
		return nil, errors.New("storage.local.base_path is required")
	}
	base, err := filepath.Abs(cfg.BasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage directory: %w", err)
	}
	if err := os.MkdirAll(base, 0750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{
		basePath:      base,
		serveDirectly: cfg.ServeDirectly,
		publicURL:     strings.TrimRight(publicURL, "/"),
	}, nil
}

// BasePath is the absolute directory files are stored under
func (s *LocalStorage) BasePath() string { return s.basePath }

// resolve maps an object key to a file below basePath and rejects keys that
// would escape it.
func (s *LocalStorage) resolve(path string) (string, error) {
	full := filepath.Join(s.basePath, filepath.FromSlash(path))
	rel, err := filepath.Rel(s.basePath, full)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid storage path: %q", path)
	}
	return full, nil
}

// Upload writes the file and computes its SHA-256 while copying
func (s *LocalStorage) Upload(ctx context.Context, path string, reader io.Reader, size int64) (*storage.UploadResult, error) {
	fullPath, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	written, digest, err := checksum.Copy(file, reader)
	if err != nil {
		_ = os.Remove(fullPath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return &storage.UploadResult{
		Path:     path,
		Size:     written,
		Checksum: digest,
	}, nil
}

// Download opens the file for reading
func (s *LocalStorage) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	fullPath, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete removes the file and any parent directories left empty. Deleting a
// missing file succeeds.
func (s *LocalStorage) Delete(ctx context.Context, path string) error {
	fullPath, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	for dir := filepath.Dir(fullPath); dir != s.basePath; dir = filepath.Dir(dir) {
		if os.Remove(dir) != nil {
			break
		}
	}
	return nil
}

// GetURL returns {public_url}/files/{path} when the router serves the
// directory, and a file:// URL otherwise. ttl is ignored.
func (s *LocalStorage) GetURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	fullPath, err := s.resolve(path)
	if err != nil {
		return "", err
	}
	exists, err := s.Exists(ctx, path)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", fmt.Errorf("file not found: %s", path)
	}

	if s.serveDirectly {
		return fmt.Sprintf("%s%s/%s", s.publicURL, FilesRoute, path), nil
	}
	return "file://" + fullPath, nil
}

// Exists reports whether the file is present
func (s *LocalStorage) Exists(ctx context.Context, path string) (bool, error) {
	fullPath, err := s.resolve(path)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check file existence: %w", err)
	}
	return true, nil
}

// GetMetadata stats the file and hashes its contents
func (s *LocalStorage) GetMetadata(ctx context.Context, path string) (*storage.FileMetadata, error) {
	fullPath, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	stat, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to get file metadata: %w", err)
	}

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file for checksum: %w", err)
	}
	defer file.Close()

	digest, err := checksum.CalculateSHA256(file)
	if err != nil {
		return nil, err
	}

	return &storage.FileMetadata{
		Path:         path,
		Size:         stat.Size(),
		Checksum:     digest,
		LastModified: stat.ModTime(),
	}, nil
}
