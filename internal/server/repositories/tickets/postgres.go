package tickets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/assetvault/internal/common"
	"github.com/dmitrijs2005/assetvault/internal/dbx"
	"github.com/dmitrijs2005/assetvault/internal/server/models"
)

// PostgresRepository implements ticket storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert stores a fresh, unused ticket for the asset.
func (r *PostgresRepository) Insert(ctx context.Context, t *models.UploadTicket) error {
	query := `
		INSERT INTO upload_tickets (asset_id, user_id, nonce, mime_type, size_bytes, storage_path, used, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7);
	`
	_, err := r.db.ExecContext(ctx, query,
		t.AssetID, t.UserID, t.Nonce, t.MimeType, t.SizeBytes, t.StoragePath, t.ExpiresAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetByAsset returns the ticket for (asset, user), or ErrorNotFound.
func (r *PostgresRepository) GetByAsset(ctx context.Context, assetID string, userID string) (*models.UploadTicket, error) {
	query := `
		SELECT asset_id, user_id, nonce, mime_type, size_bytes, storage_path, used, expires_at, created_at
		FROM upload_tickets WHERE asset_id = $1 AND user_id = $2;
	`
	t := &models.UploadTicket{}
	err := r.db.QueryRowContext(ctx, query, assetID, userID).Scan(
		&t.AssetID, &t.UserID, &t.Nonce, &t.MimeType, &t.SizeBytes,
		&t.StoragePath, &t.Used, &t.ExpiresAt, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select ticket: %w", err)
	}
	return t, nil
}

// Consume flips used to true in a single conditional statement. Zero affected
// rows means the ticket was already consumed by a concurrent redeemer (or
// never existed for this caller); that surfaces as ErrorBadRequest so a
// second finalize attempt is rejected outright.
func (r *PostgresRepository) Consume(ctx context.Context, assetID string, userID string) error {
	query := `UPDATE upload_tickets SET used = TRUE WHERE asset_id = $1 AND user_id = $2 AND NOT used;`
	res, err := r.db.ExecContext(ctx, query, assetID, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return fmt.Errorf("%w: upload ticket already used", common.ErrorBadRequest)
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
