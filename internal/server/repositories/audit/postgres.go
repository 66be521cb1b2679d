package audit

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/assetvault/internal/dbx"
	"github.com/dmitrijs2005/assetvault/internal/server/models"
)

// PostgresRepository implements the audit log over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Append records one download-link issuance.
func (r *PostgresRepository) Append(ctx context.Context, e *models.DownloadAudit) error {
	query := `INSERT INTO download_audit (asset_id, user_id) VALUES ($1, $2);`
	_, err := r.db.ExecContext(ctx, query, e.AssetID, e.UserID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
