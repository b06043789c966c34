// Package blob abstracts the object store holding uploaded resume files.
// The orchestration core only needs to fetch the bytes for a file key; the
// MinIO-backed implementation lives in internal/platform/minio.
package blob

import (
	"context"
	"errors"
)

// ErrBlobNotFound is returned when no object exists for the given key.
var ErrBlobNotFound = errors.New("blob not found")

// ErrStoreNotConfigured is returned by the Unconfigured store.
var ErrStoreNotConfigured = errors.New("blob store is not configured")

// Store provides access to opaque file blobs by key.
type Store interface {
	// Fetch retrieves the full contents of the object stored under key.
	Fetch(ctx context.Context, key string) ([]byte, error)

	// Put stores data under key, overwriting any existing object.
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// Unconfigured is a Store used when no object store is configured. Every
// operation fails with ErrStoreNotConfigured, so parse tasks fail cleanly
// instead of crashing while the other task families keep working.
type Unconfigured struct{}

// Fetch always fails.
func (Unconfigured) Fetch(ctx context.Context, key string) ([]byte, error) {
	return nil, ErrStoreNotConfigured
}

// Put always fails.
func (Unconfigured) Put(ctx context.Context, key string, data []byte, contentType string) error {
	return ErrStoreNotConfigured
}
