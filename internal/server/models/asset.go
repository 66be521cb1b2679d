// Package models defines server-side data models persisted in the database.
package models

import "time"

// AssetStatus is the lifecycle state of an asset's bytes.
type AssetStatus string

const (
	// StatusDraft: metadata exists, no verified bytes yet.
	StatusDraft AssetStatus = "draft"
	// StatusUploading: a client transfer is believed to be in flight.
	StatusUploading AssetStatus = "uploading"
	// StatusReady: bytes verified against a server-computed hash.
	StatusReady AssetStatus = "ready"
	// StatusCorrupt: verification failed or the object was unreadable.
	StatusCorrupt AssetStatus = "corrupt"
)

// Asset describes one stored file's metadata. The bytes themselves live in
// object storage under StoragePath; SHA256 is set only once the server has
// hashed those bytes itself.
type Asset struct {
	// ID is assigned at creation and never changes.
	ID string
	// OwnerID is the creating user; only the owner may mutate the asset.
	OwnerID string
	// Filename is the sanitized display name.
	Filename string
	// MimeType is the declared content type, validated against the allow-list.
	MimeType string
	// SizeBytes is the declared size at ticket issuance.
	SizeBytes int64
	// StoragePath is the object key in the blob store. Generated once,
	// globally unique, never mutated.
	StoragePath string
	// SHA256 is the server-computed content hash, empty until verification.
	SHA256 string
	// Status is the upload lifecycle state.
	Status AssetStatus
	// Version increases by exactly one on every accepted mutation.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}
