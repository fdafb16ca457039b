// Package objstore abstracts blob storage behind a small interface so
// the rest of the codebase never talks to a concrete backend. Adapters
// register themselves under a provider name and are selected through
// configuration, same as the database adapters in internal/store.
package objstore

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when the requested object key does not exist.
var ErrNotFound = errors.New("objstore: object not found")

// ObjectInfo describes a stored object without its payload.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Store is the contract every blob backend implements. Get returns the
// object body as a reader the caller must close. List returns at most
// limit objects when limit > 0. SignedURL returns a time-limited URL
// for direct access with the given HTTP method (GET or PUT; empty
// means GET); backends without the concept (the filesystem adapter)
// return ErrUnsupported.
type Store interface {
	Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, *ObjectInfo, error)
	Delete(ctx context.Context, bucket, key string) error
	DeleteMany(ctx context.Context, bucket string, keys []string) error
	Exists(ctx context.Context, bucket, key string) (bool, error)
	Head(ctx context.Context, bucket, key string) (*ObjectInfo, error)
	List(ctx context.Context, bucket, prefix string, limit int) ([]ObjectInfo, error)
	Copy(ctx context.Context, bucket, srcKey, dstKey string) error
	SignedURL(ctx context.Context, bucket, key, method string, ttl time.Duration) (string, error)
}

// ErrUnsupported is returned by adapters that cannot implement an
// optional operation such as SignedURL.
var ErrUnsupported = errors.New("objstore: operation not supported by this provider")
