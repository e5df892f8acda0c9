// Package azure stores Worknest files in Azure Blob Storage. Downloads use
// read-only SAS URLs, or the CDN when storage.azure.cdn_url is set.
package azure

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/streaming"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blockblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"

	"github.com/worknest/worknest/internal/config"
	"github.com/worknest/worknest/internal/storage"
	"github.com/worknest/worknest/pkg/checksum"
)

const (
	// SAS start time is backdated to tolerate clock skew
	clockSkew = 5 * time.Minute
)

func init() {
	storage.Register("azure", func(cfg *config.Config) (storage.Storage, error) {
		return New(&cfg.Storage.Azure)
	})
}

// AzureStorage implements storage.Storage on a single container
type AzureStorage struct {
	container *container.Client
	cred      *azblob.SharedKeyCredential
	cdnURL    string
}

// New authenticates with the account's shared key
func New(cfg *config.AzureStorageConfig) (*AzureStorage, error) {
	if cfg.AccountName == "" {
		return nil, errors.New("azure storage account name is required")
	}
	if cfg.AccountKey == "" {
		return nil, errors.New("azure storage account key is required")
	}
	if cfg.ContainerName == "" {
		return nil, errors.New("azure storage container name is required")
	}

	cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}
	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AccountName)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure Blob client: %w", err)
	}

	return &AzureStorage{
		container: client.ServiceClient().NewContainerClient(cfg.ContainerName),
		cred:      cred,
		cdnURL:    strings.TrimRight(cfg.CDNURL, "/"),
	}, nil
}

func isNotFound(err error) bool {
	var re *azcore.ResponseError
	return errors.As(err, &re) && re.StatusCode == http.StatusNotFound
}

// Upload stores the digest as blob metadata; Azure itself only keeps MD5
func (s *AzureStorage) Upload(ctx context.Context, path string, reader io.Reader, size int64) (*storage.UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	digest := checksum.Bytes(data)
	contentType := http.DetectContentType(data)

	_, err = s.container.NewBlockBlobClient(path).Upload(ctx, streaming.NopCloser(bytes.NewReader(data)), &blockblob.UploadOptions{
		Metadata:    map[string]*string{checksum.MetadataKey: &digest},
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to Azure Blob: %w", err)
	}

	return &storage.UploadResult{Path: path, Size: int64(len(data)), Checksum: digest}, nil
}

func (s *AzureStorage) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	resp, err := s.container.NewBlobClient(path).DownloadStream(ctx, nil)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to download from Azure Blob: %w", err)
	}
	return resp.Body, nil
}

func (s *AzureStorage) Delete(ctx context.Context, path string) error {
	if _, err := s.container.NewBlobClient(path).Delete(ctx, nil); err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete from Azure Blob: %w", err)
	}
	return nil
}

// GetURL returns the CDN URL when configured, otherwise a read-only SAS URL
// valid for ttl.
func (s *AzureStorage) GetURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	exists, err := s.Exists(ctx, path)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", fmt.Errorf("file not found: %s", path)
	}

	if s.cdnURL != "" {
		return s.cdnURL + "/" + path, nil
	}

	now := time.Now().UTC()
	params, err := sas.BlobSignatureValues{
		Protocol:      sas.ProtocolHTTPSandHTTP,
		StartTime:     now.Add(-clockSkew),
		ExpiryTime:    now.Add(ttl),
		Permissions:   (&sas.BlobPermissions{Read: true}).String(),
		ContainerName: containerName(s.container),
		BlobName:      path,
	}.SignWithSharedKey(s.cred)
	if err != nil {
		return "", fmt.Errorf("failed to generate SAS token: %w", err)
	}

	return s.container.NewBlobClient(path).URL() + "?" + params.Encode(), nil
}

// containerName is the last path segment of the container URL
func containerName(c *container.Client) string {
	u := strings.TrimRight(c.URL(), "/")
	return u[strings.LastIndex(u, "/")+1:]
}

func (s *AzureStorage) Exists(ctx context.Context, path string) (bool, error) {
	if _, err := s.container.NewBlobClient(path).GetProperties(ctx, nil); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check blob: %w", err)
	}
	return true, nil
}

func (s *AzureStorage) GetMetadata(ctx context.Context, path string) (*storage.FileMetadata, error) {
	props, err := s.container.NewBlobClient(path).GetProperties(ctx, nil)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to get blob properties: %w", err)
	}

	var digest string
	// the service may return metadata keys with any casing
	for k, v := range props.Metadata {
		if strings.EqualFold(k, checksum.MetadataKey) && v != nil {
			digest = *v
		}
	}
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

	meta := &storage.FileMetadata{Path: path, Checksum: digest}
	if props.ContentLength != nil {
		meta.Size = *props.ContentLength
	}
	if props.LastModified != nil {
		meta.LastModified = *props.LastModified
	}
	return meta, nil
}
