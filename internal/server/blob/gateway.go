// Package blob defines the blob gateway consumed by the asset services:
// time-bound signed upload/download URLs, object deletion, and server-side
// hashing of stored bytes. The S3 implementation lives in s3.go.
package blob

import (
	"context"
	"time"
)

// ObjectInfo describes a stored object as the gateway sees it: the hash and
// size computed from the actual bytes, never from anything a client claimed.
type ObjectInfo struct {
	// SHA256 is the lowercase hex digest of the stored bytes.
	SHA256 string
	// SizeBytes is the stored object's exact size.
	SizeBytes int64
}

// Gateway is the storage collaborator interface. Implementations must treat
// a missing object in HashObject as common.ErrorNotFound so the finalizer
// can distinguish "nothing was uploaded" from infrastructure failure.
type Gateway interface {
	// SignUploadURL returns a presigned PUT URL for the path, valid for ttl.
	SignUploadURL(ctx context.Context, path string, ttl time.Duration) (string, error)

	// SignDownloadURL returns a presigned GET URL for the path, valid for
	// exactly ttl. Callers must not cache or reuse the result.
	SignDownloadURL(ctx context.Context, path string, ttl time.Duration) (string, error)

	// HashObject reads the stored bytes at path and returns their hash and
	// size. Missing or unreadable objects return common.ErrorNotFound.
	HashObject(ctx context.Context, path string) (*ObjectInfo, error)

	// Delete removes the object at path. Deleting an absent object succeeds.
	Delete(ctx context.Context, path string) error
}
