package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/assetvault/internal/common"
	"github.com/dmitrijs2005/assetvault/internal/server/models"
)

// DownloadLink is a short-lived signed read URL.
type DownloadLink struct {
	URL       string
	ExpiresAt time.Time
}

// GetDownloadLink issues a fresh signed read URL for a ready asset to its
// owner or a grantee holding can_download. Every denial — asset missing,
// asset not ready, caller unauthorized — is ErrorNotFound, so unauthorized
// callers learn nothing about the asset's existence.
//
// Each successful issuance appends a download audit row. If that append
// fails the URL has already been signed and is still returned; the miss is
// logged (no cross-store transaction exists).
func (s *AssetService) GetDownloadLink(ctx context.Context, callerID, assetID string) (*DownloadLink, error) {
	asset, err := s.repomanager.Assets(s.db).GetByID(ctx, assetID)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching asset: %w", err)
	}

	access, err := s.resolveAccess(ctx, callerID, asset)
	if err != nil {
		return nil, err
	}
	if !access.CanDownload {
		return nil, common.ErrorNotFound
	}
	if asset.Status != models.StatusReady {
		return nil, common.ErrorNotFound
	}

	url, err := s.gateway.SignDownloadURL(ctx, asset.StoragePath, downloadLinkTTL)
	if err != nil {
		return nil, fmt.Errorf("error signing download url: %w", err)
	}
	expiresAt := now().UTC().Add(downloadLinkTTL)

	if err := s.repomanager.Audit(s.db).Append(ctx, &models.DownloadAudit{
		AssetID: assetID,
		UserID:  callerID,
	}); err != nil {
		s.logger.Warn(ctx, "download audit append failed", "asset_id", assetID, "error", err.Error())
	}

	return &DownloadLink{URL: url, ExpiresAt: expiresAt}, nil
}
