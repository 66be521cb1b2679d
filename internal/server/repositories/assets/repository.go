package assets

import (
	"context"
	"time"

	"github.com/dmitrijs2005/assetvault/internal/server/models"
)

// Repository is the persistence contract for asset metadata. Every mutation
// is version-guarded: implementations must apply the guard inside a single
// conditional statement and report a lost guard as common.ErrVersionConflict.
type Repository interface {
	Insert(ctx context.Context, asset *models.Asset) error
	GetByID(ctx context.Context, id string) (*models.Asset, error)
	GetOwned(ctx context.Context, id string, ownerID string) (*models.Asset, error)
	ListByOwner(ctx context.Context, ownerID string, filter string, limit int, before *time.Time) ([]*models.Asset, error)
	SetReady(ctx context.Context, id string, sha256 string, expectedVersion int64) error
	SetCorrupt(ctx context.Context, id string, expectedVersion int64) error
	Rename(ctx context.Context, id string, ownerID string, filename string, expectedVersion int64) error
	BumpVersion(ctx context.Context, id string, ownerID string, expectedVersion int64) error
	Delete(ctx context.Context, id string, ownerID string, expectedVersion int64) error
}
