package models

import "time"

// DownloadAudit records one download-link issuance. Rows are append-only:
// the server never updates or deletes them.
type DownloadAudit struct {
	AssetID string
	UserID  string

	CreatedAt time.Time
}
