// Package storage implements the storage backend as a single
// put/get/presign/list contract with a local-filesystem implementation and
// an object-store (S3) implementation, selected by configuration rather
// than polymorphism by inheritance.
package storage

import (
	"context"
	"time"
)

// Backend is the storage contract both implementations satisfy.
type Backend interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (handle string, err error)
	Get(ctx context.Context, key string) ([]byte, error)
	Presign(ctx context.Context, key string, ttl time.Duration) (url string, err error)
	List(ctx context.Context, prefix string) ([]string, error)
}

// New selects a backend: the object store when backend is "s3", the local
// filesystem otherwise.
func New(ctx context.Context, backend, root, bucket, region, cdnBaseURL string) (Backend, error) {
	if backend == "s3" {
		return NewS3Backend(ctx, bucket, region, cdnBaseURL)
	}
	return NewLocalBackend(root), nil
}
