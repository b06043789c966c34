// Package minio provides a MinIO-backed implementation of the blob.Store
// interface for uploaded resume files.
package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hirewire/talent-api/internal/blob"
	"github.com/hirewire/talent-api/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// BlobStore stores and retrieves opaque file blobs in a MinIO bucket.
type BlobStore struct {
	client *minio.Client
	bucket string
}

// NewBlobStore creates a blob store and verifies the bucket is reachable.
func NewBlobStore(ctx context.Context, cfg config.BlobConfig) (*BlobStore, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("blob endpoint cannot be empty")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("blob bucket cannot be empty")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("blob store health check failed: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("blob bucket %q does not exist", cfg.Bucket)
	}

	return &BlobStore{client: client, bucket: cfg.Bucket}, nil
}

// Fetch implements blob.Store.
func (s *BlobStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %q: %w", key, err)
	}
	defer func() { _ = obj.Close() }()

	data, err := io.ReadAll(obj)
	if err != nil {
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
			return nil, blob.ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to read object %q: %w", key, err)
	}
	return data, nil
}

// Put implements blob.Store.
func (s *BlobStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to put object %q: %w", key, err)
	}
	return nil
}
