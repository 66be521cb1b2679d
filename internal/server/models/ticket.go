package models

import "time"

// UploadTicket is a single-use authorization to populate one asset's bytes.
// It is keyed by asset id: one active ticket per asset.
type UploadTicket struct {
	// AssetID ties the ticket to the asset it may populate.
	AssetID string
	// UserID is the user the ticket was issued to.
	UserID string
	// Nonce is a high-entropy hex value unique across all tickets. It binds
	// the ticket to one issuance and is informational: the blob gateway does
	// not currently enforce it on the upload itself.
	Nonce string
	// MimeType and SizeBytes mirror the declared values at issuance.
	MimeType  string
	SizeBytes int64
	// StoragePath duplicates the asset's path so redemption never trusts
	// caller-supplied paths.
	StoragePath string
	// Used flips false to true exactly once, the moment finalize starts
	// processing the ticket.
	Used bool
	// ExpiresAt is the absolute redemption deadline.
	ExpiresAt time.Time

	CreatedAt time.Time
}
