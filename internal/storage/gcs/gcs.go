// Package gcs stores Worknest files in Google Cloud Storage. Downloads go
// through V4 signed URLs, which needs a service account key or signBlob
// permission for the ambient identity.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	appconfig "github.com/worknest/worknest/internal/config"
	appstorage "github.com/worknest/worknest/internal/storage"
	"github.com/worknest/worknest/pkg/checksum"
)


func init() {
	appstorage.Register("gcs", func(cfg *appconfig.Config) (appstorage.Storage, error) {
		return New(context.Background(), &cfg.Storage.GCS)
	})
}

// GCSStorage implements storage.Storage on a single bucket
type GCSStorage struct {
	client *storage.Client
	bucket string
}

// New builds the client. Credentials come from credentials_json, then
// credentials_file, then Application Default Credentials. STORAGE_EMULATOR_HOST
// is honoured by the client library.
func New(ctx context.Context, cfg *appconfig.GCSStorageConfig) (*GCSStorage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	var opts []option.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	if cfg.ProjectID != "" {
		opts = append(opts, option.WithQuotaProject(cfg.ProjectID))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSStorage{client: client, bucket: cfg.Bucket}, nil
}

// Close releases the underlying client
func (s *GCSStorage) Close() error {
	return s.client.Close()
}

func (s *GCSStorage) object(path string) *storage.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(path)
}

// Upload buffers the body to hash it and stores the digest as object metadata
func (s *GCSStorage) Upload(ctx context.Context, path string, reader io.Reader, size int64) (*appstorage.UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	digest := checksum.Bytes(data)

	w := s.object(path).NewWriter(ctx)
	w.ContentType = http.DetectContentType(data)
	w.Metadata = map[string]string{checksum.MetadataKey: digest}

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to write to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close GCS writer: %w", err)
	}

	return &appstorage.UploadResult{Path: path, Size: int64(len(data)), Checksum: digest}, nil
}

func (s *GCSStorage) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	r, err := s.object(path).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read from GCS: %w", err)
	}
	return r, nil
}

func (s *GCSStorage) Delete(ctx context.Context, path string) error {
	if err := s.object(path).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete from GCS: %w", err)
	}
	return nil
}

// GetURL signs a V4 GET valid for ttl
func (s *GCSStorage) GetURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	exists, err := s.Exists(ctx, path)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", fmt.Errorf("file not found: %s", path)
	}

	url, err := s.client.Bucket(s.bucket).SignedURL(path, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate signed URL: %w", err)
	}
	return url, nil
}

func (s *GCSStorage) Exists(ctx context.Context, path string) (bool, error) {
	if _, err := s.object(path).Attrs(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}
	return true, nil
}

func (s *GCSStorage) GetMetadata(ctx context.Context, path string) (*appstorage.FileMetadata, error) {
	attrs, err := s.object(path).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to get object metadata: %w", err)
	}

	digest := attrs.Metadata[checksum.MetadataKey]
	if digest == "" {
		body, err := s.Download(ctx, path)
		if err != nil {
			return nil, err
		}
		defer body.Close()

		if digest, err = checksum.CalculateSHA256(body); err != nil {
			return nil, err
		}
	}

	return &appstorage.FileMetadata{
		Path:         path,
		Size:         attrs.Size,
		Checksum:     digest,
		LastModified: attrs.Updated,
	}, nil
}
