package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/assetvault/internal/common"
	"github.com/dmitrijs2005/assetvault/internal/dbx"
	"github.com/dmitrijs2005/assetvault/internal/filex"
	"github.com/dmitrijs2005/assetvault/internal/server/models"
)

// All mutators follow the same discipline: locate the asset scoped to the
// acting owner (absence is ErrorNotFound), then apply a single conditional
// statement guarded on the expected version (zero rows is ErrVersionConflict;
// the stored state is untouched).

// RenameAsset changes the asset's filename, re-applying the normative
// sanitizer. The storage path keeps the original name: paths are generated
// once and never mutated.
func (s *AssetService) RenameAsset(ctx context.Context, callerID, assetID, newFilename string, expectedVersion int64) (*models.Asset, error) {
	sanitized := filex.SanitizeFilename(newFilename)
	if sanitized == "" || sanitized == "." {
		return nil, fmt.Errorf("%w: filename is empty after sanitization", common.ErrorBadRequest)
	}

	assetRepo := s.repomanager.Assets(s.db)

	if _, err := assetRepo.GetOwned(ctx, assetID, callerID); err != nil {
		return nil, err
	}

	if err := assetRepo.Rename(ctx, assetID, callerID, sanitized, expectedVersion); err != nil {
		if errors.Is(err, common.ErrVersionConflict) {
			return nil, common.ErrVersionConflict
		}
		return nil, fmt.Errorf("error renaming asset: %w", err)
	}

	asset, err := assetRepo.GetOwned(ctx, assetID, callerID)
	if err != nil {
		return nil, fmt.Errorf("error fetching asset: %w", err)
	}
	return asset, nil
}

// DeleteAsset removes the asset row first, under the version guard, and only
// then the backing blob. A blob that outlives its row is recoverable
// garbage; a row pointing at a deleted blob would be user-visible
// corruption, so the order is fixed. Blob deletion failure is logged and
// not surfaced.
func (s *AssetService) DeleteAsset(ctx context.Context, callerID, assetID string, expectedVersion int64) error {
	assetRepo := s.repomanager.Assets(s.db)

	asset, err := assetRepo.GetOwned(ctx, assetID, callerID)
	if err != nil {
		return err
	}

	if err := assetRepo.Delete(ctx, assetID, callerID, expectedVersion); err != nil {
		if errors.Is(err, common.ErrVersionConflict) {
			return common.ErrVersionConflict
		}
		return fmt.Errorf("error deleting asset: %w", err)
	}

	if err := s.gateway.Delete(ctx, asset.StoragePath); err != nil {
		s.logger.Warn(ctx, "blob delete failed after row delete", "asset_id", assetID, "path", asset.StoragePath, "error", err.Error())
	}

	s.logger.Info(ctx, "asset deleted", "asset_id", assetID, "owner_id", callerID)
	return nil
}

// ShareAsset grants (or updates) read access for granteeID. The asset's
// version advances under the same guard as every other mutation, and the
// version bump and grant write commit atomically.
func (s *AssetService) ShareAsset(ctx context.Context, callerID, assetID, granteeID string, canDownload bool, expectedVersion int64) (*models.Asset, error) {
	if granteeID == "" {
		return nil, fmt.Errorf("%w: grantee is required", common.ErrorBadRequest)
	}
	if granteeID == callerID {
		return nil, fmt.Errorf("%w: cannot share an asset with its owner", common.ErrorBadRequest)
	}

	if _, err := s.repomanager.Assets(s.db).GetOwned(ctx, assetID, callerID); err != nil {
		return nil, err
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Assets(tx).BumpVersion(ctx, assetID, callerID, expectedVersion); err != nil {
			return err
		}
		return s.repomanager.Shares(tx).Upsert(ctx, &models.AssetShare{
			AssetID:     assetID,
			GranteeID:   granteeID,
			CanDownload: canDownload,
		})
	})
	if err != nil {
		if errors.Is(err, common.ErrVersionConflict) {
			return nil, common.ErrVersionConflict
		}
		return nil, fmt.Errorf("error sharing asset: %w", err)
	}

	asset, err := s.repomanager.Assets(s.db).GetOwned(ctx, assetID, callerID)
	if err != nil {
		return nil, fmt.Errorf("error fetching asset: %w", err)
	}
	return asset, nil
}

// RevokeShare removes granteeID's grant. Revoking an absent grant still
// succeeds (and still advances the version): the end state is what matters.
func (s *AssetService) RevokeShare(ctx context.Context, callerID, assetID, granteeID string, expectedVersion int64) (*models.Asset, error) {
	if granteeID == "" {
		return nil, fmt.Errorf("%w: grantee is required", common.ErrorBadRequest)
	}

	if _, err := s.repomanager.Assets(s.db).GetOwned(ctx, assetID, callerID); err != nil {
		return nil, err
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Assets(tx).BumpVersion(ctx, assetID, callerID, expectedVersion); err != nil {
			return err
		}
		return s.repomanager.Shares(tx).Delete(ctx, assetID, granteeID)
	})
	if err != nil {
		if errors.Is(err, common.ErrVersionConflict) {
			return nil, common.ErrVersionConflict
		}
		return nil, fmt.Errorf("error revoking share: %w", err)
	}

	asset, err := s.repomanager.Assets(s.db).GetOwned(ctx, assetID, callerID)
	if err != nil {
		return nil, fmt.Errorf("error fetching asset: %w", err)
	}
	return asset, nil
}

// ListShares enumerates the grants on one of the caller's own assets.
func (s *AssetService) ListShares(ctx context.Context, callerID, assetID string) ([]*models.AssetShare, error) {
	if _, err := s.repomanager.Assets(s.db).GetOwned(ctx, assetID, callerID); err != nil {
		return nil, err
	}
	return s.repomanager.Shares(s.db).ListByAsset(ctx, assetID)
}
