// Package common defines shared constants and sentinel errors used across
// the asset vault server. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal      = errors.New("internal error")
	ErrVersionConflict = errors.New("version conflict")

	// Validation errors: malformed input, disallowed MIME type, oversized
	// declared size, expired or already-consumed upload ticket.
	ErrorBadRequest = errors.New("bad request")

	// Integrity errors: the stored bytes could not be read back, or their
	// hash does not match the hash the uploader claimed.
	ErrIntegrity = errors.New("integrity verification failed")

	// Auth errors (missing, invalid or malformed token).
	ErrorUnauthenticated = errors.New("unauthenticated")
	ErrInvalidToken      = errors.New("invalid token")
)
