package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worknest/worknest/internal/config"
)

func newTestStorage(t *testing.T, serveDirectly bool, publicURL string) *LocalStorage {
	t.Helper()
	s, err := New(&config.LocalStorageConfig{
		BasePath:      t.TempDir(),
		ServeDirectly: serveDirectly,
	}, publicURL)
	require.NoError(t, err)
	return s
}

func put(t *testing.T, s *LocalStorage, path, content string) {
	t.Helper()
	_, err := s.Upload(context.Background(), path, strings.NewReader(content), int64(len(content)))
	require.NoError(t, err)
}

func TestNew_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")

	_, err := New(&config.LocalStorageConfig{BasePath: dir}, "http://localhost")
	require.NoError(t, err)

	_, err = os.Stat(dir)
	assert.NoError(t, err, "base directory should exist")
}

func TestNew_RequiresBasePath(t *testing.T) {
	_, err := New(&config.LocalStorageConfig{}, "http://localhost")
	assert.Error(t, err)
}

func TestUpload(t *testing.T) {
	s := newTestStorage(t, false, "")
	content := "hello, world"

	result, err := s.Upload(context.Background(), "logos/u1/logo.png", strings.NewReader(content), int64(len(content)))
	require.NoError(t, err)

	assert.Equal(t, "logos/u1/logo.png", result.Path)
	assert.Equal(t, int64(len(content)), result.Size)
	// sha256("hello, world")
	assert.Equal(t, "09ca7e4eaa6e8ae9c7d261167129184883644d07dfba7cbfbc4c8a2e08360d5b", result.Checksum)

	_, err = os.Stat(filepath.Join(s.BasePath(), "logos", "u1", "logo.png"))
	assert.NoError(t, err)
}

func TestUpload_RejectsEscapingPaths(t *testing.T) {
	s := newTestStorage(t, false, "")

	for _, path := range []string{"../outside.txt", "logos/../../outside.txt", "", "."} {
		_, err := s.Upload(context.Background(), path, strings.NewReader("x"), 1)
		assert.Error(t, err, "path %q", path)
	}
	_, err := os.Stat(filepath.Join(filepath.Dir(s.BasePath()), "outside.txt"))
	assert.True(t, os.IsNotExist(err), "file escaped the base directory")
}

func TestDownload(t *testing.T) {
	s := newTestStorage(t, false, "")
	put(t, s, "attachments/u1/notes.txt", "meeting notes")

	rc, err := s.Download(context.Background(), "attachments/u1/notes.txt")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "meeting notes", string(data))
}

func TestDownload_NotFound(t *testing.T) {
	s := newTestStorage(t, false, "")

	_, err := s.Download(context.Background(), "missing.txt")
	assert.ErrorContains(t, err, "file not found")
}

func TestDelete_CleansUpEmptyParentDirs(t *testing.T) {
	s := newTestStorage(t, false, "")
	put(t, s, "avatars/u1/me.png", "png")
	put(t, s, "avatars/u2/me.png", "png")

	require.NoError(t, s.Delete(context.Background(), "avatars/u1/me.png"))

	_, err := os.Stat(filepath.Join(s.BasePath(), "avatars", "u1"))
	assert.True(t, os.IsNotExist(err), "empty user directory should be removed")
	_, err = os.Stat(filepath.Join(s.BasePath(), "avatars", "u2", "me.png"))
	assert.NoError(t, err, "sibling file must survive")
	_, err = os.Stat(s.BasePath())
	assert.NoError(t, err, "base directory must survive")
}

func TestDelete_NonExistentFile(t *testing.T) {
	s := newTestStorage(t, false, "")
	assert.NoError(t, s.Delete(context.Background(), "nothing/here.txt"))
}

func TestExists(t *testing.T) {
	s := newTestStorage(t, false, "")
	ctx := context.Background()
	put(t, s, "logos/u1/a.png", "a")

	ok, err := s.Exists(ctx, "logos/u1/a.png")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists(ctx, "logos/u1/b.png")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Exists(ctx, "../etc/passwd")
	assert.Error(t, err)
}

func TestGetURL_ServeDirectly(t *testing.T) {
	s := newTestStorage(t, true, "https://api.worknest.test/")
	put(t, s, "logos/u1/logo.png", "png")

	url, err := s.GetURL(context.Background(), "logos/u1/logo.png", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "https://api.worknest.test/files/logos/u1/logo.png", url)
}

func TestGetURL_LocalFile(t *testing.T) {
	s := newTestStorage(t, false, "https://api.worknest.test")
	put(t, s, "logos/u1/logo.png", "png")

	url, err := s.GetURL(context.Background(), "logos/u1/logo.png", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "file://"+filepath.Join(s.BasePath(), "logos", "u1", "logo.png"), url)
}

func TestGetURL_NotFound(t *testing.T) {
	s := newTestStorage(t, true, "https://api.worknest.test")

	_, err := s.GetURL(context.Background(), "logos/u1/missing.png", time.Minute)
	assert.ErrorContains(t, err, "file not found")
}

func TestGetMetadata_ChecksumMatchesUpload(t *testing.T) {
	s := newTestStorage(t, false, "")
	ctx := context.Background()
	content := "attachment body"

	up, err := s.Upload(ctx, "attachments/u1/body.txt", strings.NewReader(content), int64(len(content)))
	require.NoError(t, err)

	meta, err := s.GetMetadata(ctx, "attachments/u1/body.txt")
	require.NoError(t, err)
	assert.Equal(t, up.Checksum, meta.Checksum)
	assert.Equal(t, int64(len(content)), meta.Size)
	assert.WithinDuration(t, time.Now(), meta.LastModified, time.Minute)
}

func TestGetMetadata_NotFound(t *testing.T) {
	s := newTestStorage(t, false, "")

	_, err := s.GetMetadata(context.Background(), "missing.txt")
	assert.ErrorContains(t, err, "file not found")
}
