// Package s3 stores Worknest files in AWS S3 or an S3-compatible service such
// as MinIO. Clients download through pre-signed URLs so file bytes never pass
// through the API.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	appconfig "github.com/worknest/worknest/internal/config"
	"github.com/worknest/worknest/internal/storage"
	"github.com/worknest/worknest/pkg/checksum"
)


func init() {
	storage.Register("s3", func(cfg *appconfig.Config) (storage.Storage, error) {
		return New(context.Background(), &cfg.Storage.S3)
	})
}

// S3Storage implements storage.Storage on a single bucket
type S3Storage struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

// New builds the client. auth_method selects credentials:
//   - "default" or empty: the AWS default chain (env, shared config, instance role)
//   - "static": access_key_id and secret_access_key
//   - "assume_role": role_arn via STS, with optional external_id
func New(ctx context.Context, cfg *appconfig.S3StorageConfig) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket name is required")
	}
	if cfg.Region == "" {
		return nil, errors.New("s3 region is required")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}

	method := cfg.AuthMethod
	if method == "" {
		method = "default"
	}
	switch method {
	case "default", "assume_role":
	case "static":
		if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
			return nil, errors.New("access_key_id and secret_access_key are required for static auth")
		}
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	default:
		return nil, fmt.Errorf("unsupported auth_method: %s (must be 'default', 'static' or 'assume_role')", method)
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if method == "assume_role" {
		if cfg.RoleARN == "" {
			return nil, errors.New("role_arn is required for assume_role auth")
		}
		provider := stscreds.NewAssumeRoleProvider(sts.NewFromConfig(awsCfg), cfg.RoleARN, func(o *stscreds.AssumeRoleOptions) {
			if cfg.RoleSessionName != "" {
				o.RoleSessionName = cfg.RoleSessionName
			}
			if cfg.ExternalID != "" {
				o.ExternalID = aws.String(cfg.ExternalID)
			}
		})
		awsCfg.Credentials = aws.NewCredentialsCache(provider)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Storage{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
	}, nil
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	if errors.As(err, &nf) || errors.As(err, &nsk) {
		return true
	}
	var re *awshttp.ResponseError
	return errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound
}

// Upload buffers the body to hash it and stores the digest as object metadata.
// Uploads are capped by storage.max_upload_bytes before they reach here.
func (s *S3Storage) Upload(ctx context.Context, path string, reader io.Reader, size int64) (*storage.UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	digest := checksum.Bytes(data)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(path),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(http.DetectContentType(data)),
		Metadata:      map[string]string{checksum.MetadataKey: digest},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &storage.UploadResult{Path: path, Size: int64(len(data)), Checksum: digest}, nil
}

func (s *S3Storage) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to download from S3: %w", err)
	}
	return out.Body, nil
}

func (s *S3Storage) Delete(ctx context.Context, path string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

// GetURL pre-signs a GET valid for ttl
func (s *S3Storage) GetURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	exists, err := s.Exists(ctx, path)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", fmt.Errorf("file not found: %s", path)
	}

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return req.URL, nil
}

func (s *S3Storage) Exists(ctx context.Context, path string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object: %w", err)
	}
	return true, nil
}

// GetMetadata reads the stored digest, hashing the body only for objects
// written by something other than Upload.
func (s *S3Storage) GetMetadata(ctx context.Context, path string) (*storage.FileMetadata, error) {
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to get object metadata: %w", err)
	}

	digest := head.Metadata[checksum.MetadataKey]
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

	return &storage.FileMetadata{
		Path:         path,
		Size:         aws.ToInt64(head.ContentLength),
		Checksum:     digest,
		LastModified: aws.ToTime(head.LastModified),
	}, nil
}
