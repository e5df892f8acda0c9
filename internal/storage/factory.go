// factory.go maps storage.default_backend to a registered constructor and
// wraps the result so every call is counted in worknest_storage_operations_total.
package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/worknest/worknest/internal/config"
	"github.com/worknest/worknest/internal/telemetry"
)

// FactoryFunc builds a backend from the application config
type FactoryFunc func(*config.Config) (Storage, error)

var factories = make(map[string]FactoryFunc)

// Register makes a backend selectable by name
func Register(name string, factory FactoryFunc) {
	factories[name] = factory
}

// NewStorage builds the configured backend and instruments it
func NewStorage(cfg *config.Config) (Storage, error) {
	name := cfg.Storage.DefaultBackend
	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unsupported storage backend: %q (registered: %s)", name, strings.Join(registered(), ", "))
	}

	backend, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("storage backend %s: %w", name, err)
	}
	return Instrument(name, backend), nil
}

func registered() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Instrument counts each operation on next by outcome
func Instrument(backend string, next Storage) Storage {
	return &instrumented{backend: backend, next: next}
}

type instrumented struct {
	backend string
	next    Storage
}

func (s *instrumented) observe(op string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	telemetry.StorageOperationsTotal.WithLabelValues(s.backend, op, outcome).Inc()
}

func (s *instrumented) Upload(ctx context.Context, path string, reader io.Reader, size int64) (*UploadResult, error) {
	res, err := s.next.Upload(ctx, path, reader, size)
	s.observe("upload", err)
	return res, err
}

func (s *instrumented) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	rc, err := s.next.Download(ctx, path)
	s.observe("download", err)
	return rc, err
}

func (s *instrumented) Delete(ctx context.Context, path string) error {
	err := s.next.Delete(ctx, path)
	s.observe("delete", err)
	return err
}

func (s *instrumented) GetURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	url, err := s.next.GetURL(ctx, path, ttl)
	s.observe("get_url", err)
	return url, err
}

func (s *instrumented) Exists(ctx context.Context, path string) (bool, error) {
	ok, err := s.next.Exists(ctx, path)
	s.observe("exists", err)
	return ok, err
}

func (s *instrumented) GetMetadata(ctx context.Context, path string) (*FileMetadata, error) {
	meta, err := s.next.GetMetadata(ctx, path)
	s.observe("metadata", err)
	return meta, err
}
