package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/assetvault/internal/common"
	"github.com/dmitrijs2005/assetvault/internal/server/models"
)

// Access is a caller's effective capability set on one asset.
type Access struct {
	IsOwner     bool
	CanDownload bool
	// shared is true when any grant exists for the caller, regardless of
	// its can_download flag. Used for metadata visibility.
	shared bool
}

// resolveAccess computes the caller's capabilities from ownership and share
// grants. Every policy decision in the service goes through this one check;
// nothing relies on implicit enforcement elsewhere.
func (s *AssetService) resolveAccess(ctx context.Context, callerID string, asset *models.Asset) (Access, error) {
	if asset.OwnerID == callerID {
		return Access{IsOwner: true, CanDownload: true, shared: true}, nil
	}

	share, err := s.repomanager.Shares(s.db).Get(ctx, asset.ID, callerID)
	if errors.Is(err, common.ErrorNotFound) {
		return Access{}, nil
	}
	if err != nil {
		return Access{}, fmt.Errorf("error fetching share: %w", err)
	}

	return Access{CanDownload: share.CanDownload, shared: true}, nil
}

// GetAsset returns asset metadata for the owner or any grantee. Missing
// assets and assets the caller has no relationship with are both
// ErrorNotFound: existence is never confirmed to unauthorized callers.
func (s *AssetService) GetAsset(ctx context.Context, callerID, assetID string) (*models.Asset, error) {
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
	if !access.shared {
		return nil, common.ErrorNotFound
	}

	return asset, nil
}

// AssetPage is one page of a caller's own assets, newest first.
type AssetPage struct {
	Items []*models.Asset
	// NextCursor pages past the last item when HasMore is true. It is the
	// last item's creation time; the next page returns rows created
	// strictly before it.
	NextCursor string
	HasMore    bool
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
	cursorFormat    = time.RFC3339Nano
)

// ListAssets returns assets owned by the caller, never assets merely shared
// with them. filter, when non-empty, is a case-insensitive substring match
// on the filename.
func (s *AssetService) ListAssets(ctx context.Context, callerID string, pageSize int, afterCursor, filter string) (*AssetPage, error) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	var before *time.Time
	if afterCursor != "" {
		t, err := time.Parse(cursorFormat, afterCursor)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed cursor", common.ErrorBadRequest)
		}
		before = &t
	}

	// Fetch one extra row to learn whether another page exists.
	items, err := s.repomanager.Assets(s.db).ListByOwner(ctx, callerID, filter, pageSize+1, before)
	if err != nil {
		return nil, fmt.Errorf("error listing assets: %w", err)
	}

	page := &AssetPage{}
	if len(items) > pageSize {
		page.HasMore = true
		items = items[:pageSize]
	}
	page.Items = items
	if page.HasMore && len(items) > 0 {
		page.NextCursor = items[len(items)-1].CreatedAt.UTC().Format(cursorFormat)
	}

	return page, nil
}
