// Package services contains the server-side business logic of the asset
// lifecycle: ticket issuance, upload finalization with server-side integrity
// verification, access resolution, download-link issuance, and the
// version-guarded metadata mutations.
package services

import (
	"database/sql"
	"time"

	"github.com/dmitrijs2005/assetvault/internal/logging"
	"github.com/dmitrijs2005/assetvault/internal/server/blob"
	"github.com/dmitrijs2005/assetvault/internal/server/repositories/repomanager"
)

// Protocol constants. These are part of the lifecycle contract, not tuning
// knobs: storage paths, ticket redemption windows and link lifetimes must
// behave identically across deployments.
const (
	// uploadTicketTTL is the absolute redemption window of an upload ticket.
	uploadTicketTTL = 10 * time.Minute
	// downloadLinkTTL is the validity of an issued download link. The
	// gateway enforces it; the server passes exactly this value and never
	// caches links.
	downloadLinkTTL = 90 * time.Second
	// maxUploadBytes is the declared-size ceiling (50 MiB).
	maxUploadBytes = 50 << 20
	// nonceBytes gives 256 bits of ticket-binding entropy.
	nonceBytes = 32
)

// allowedMimeTypes is the fixed upload allow-list: common image types plus
// PDF as the one document type.
var allowedMimeTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/gif":       {},
	"image/webp":      {},
	"application/pdf": {},
}

// AssetService implements the asset lifecycle operations. It is stateless:
// all coordination happens through single-row conditional updates in the
// database, so any number of instances can serve requests concurrently.
type AssetService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	gateway     blob.Gateway
	logger      logging.Logger
}

// NewAssetService constructs an AssetService.
func NewAssetService(db *sql.DB, m repomanager.RepositoryManager, gw blob.Gateway, logger logging.Logger) *AssetService {
	return &AssetService{
		db:          db,
		repomanager: m,
		gateway:     gw,
		logger:      logger.With("module", "asset_service"),
	}
}

// now is a seam for tests that pin the clock.
var now = time.Now
