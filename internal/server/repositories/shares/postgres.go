package shares

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/assetvault/internal/common"
	"github.com/dmitrijs2005/assetvault/internal/dbx"
	"github.com/dmitrijs2005/assetvault/internal/server/models"
)

// PostgresRepository implements share storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert creates or updates the grant for (asset, grantee).
func (r *PostgresRepository) Upsert(ctx context.Context, s *models.AssetShare) error {
	query := `
		INSERT INTO asset_shares (asset_id, grantee_id, can_download)
		VALUES ($1, $2, $3)
		ON CONFLICT (asset_id, grantee_id)
		DO UPDATE SET can_download = EXCLUDED.can_download;
	`
	_, err := r.db.ExecContext(ctx, query, s.AssetID, s.GranteeID, s.CanDownload)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Delete revokes the grant for (asset, grantee). Deleting an absent grant is
// not an error: revocation is idempotent.
func (r *PostgresRepository) Delete(ctx context.Context, assetID string, granteeID string) error {
	query := `DELETE FROM asset_shares WHERE asset_id = $1 AND grantee_id = $2;`
	_, err := r.db.ExecContext(ctx, query, assetID, granteeID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Get returns the grant for (asset, grantee), or ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, assetID string, granteeID string) (*models.AssetShare, error) {
	query := `
		SELECT asset_id, grantee_id, can_download, created_at
		FROM asset_shares WHERE asset_id = $1 AND grantee_id = $2;
	`
	s := &models.AssetShare{}
	err := r.db.QueryRowContext(ctx, query, assetID, granteeID).Scan(
		&s.AssetID, &s.GranteeID, &s.CanDownload, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select share: %w", err)
	}
	return s, nil
}

// ListByAsset returns every grant on the asset.
func (r *PostgresRepository) ListByAsset(ctx context.Context, assetID string) ([]*models.AssetShare, error) {
	query := `
		SELECT asset_id, grantee_id, can_download, created_at
		FROM asset_shares WHERE asset_id = $1 ORDER BY created_at;
	`
	rows, err := r.db.QueryContext(ctx, query, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to select shares: %w", err)
	}
	defer rows.Close()

	var result []*models.AssetShare
	for rows.Next() {
		var s models.AssetShare
		if err := rows.Scan(&s.AssetID, &s.GranteeID, &s.CanDownload, &s.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
