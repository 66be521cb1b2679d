package models

import "time"

// AssetShare grants a user read access to another user's asset.
// Unique per (asset, grantee) pair.
type AssetShare struct {
	AssetID   string
	GranteeID string
	// CanDownload controls whether the grantee may obtain download links.
	CanDownload bool

	CreatedAt time.Time
}
