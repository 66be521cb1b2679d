package shares

import (
	"context"

	"github.com/dmitrijs2005/assetvault/internal/server/models"
)

// Repository is the persistence contract for share grants.
type Repository interface {
	Upsert(ctx context.Context, share *models.AssetShare) error
	Delete(ctx context.Context, assetID string, granteeID string) error
	Get(ctx context.Context, assetID string, granteeID string) (*models.AssetShare, error)
	ListByAsset(ctx context.Context, assetID string) ([]*models.AssetShare, error)
}
