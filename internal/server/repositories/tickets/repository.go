package tickets

import (
	"context"

	"github.com/dmitrijs2005/assetvault/internal/server/models"
)

// Repository is the persistence contract for upload tickets.
type Repository interface {
	Insert(ctx context.Context, ticket *models.UploadTicket) error
	GetByAsset(ctx context.Context, assetID string, userID string) (*models.UploadTicket, error)
	Consume(ctx context.Context, assetID string, userID string) error
}
