package assets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/assetvault/internal/common"
	"github.com/dmitrijs2005/assetvault/internal/dbx"
	"github.com/dmitrijs2005/assetvault/internal/server/models"
)

const assetColumns = `id, owner_id, filename, mime_type, size_bytes, storage_path, COALESCE(sha256, ''), status, version, created_at, updated_at`

// PostgresRepository implements asset storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanAsset(row interface{ Scan(dest ...any) error }) (*models.Asset, error) {
	a := &models.Asset{}
	err := row.Scan(&a.ID, &a.OwnerID, &a.Filename, &a.MimeType, &a.SizeBytes,
		&a.StoragePath, &a.SHA256, &a.Status, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// guarded interprets the result of a version-guarded statement: exactly one
// affected row is success, zero rows means the guard lost.
func guarded(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrVersionConflict
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// Insert stores a new draft asset at version 1.
func (r *PostgresRepository) Insert(ctx context.Context, a *models.Asset) error {
	query := `
		INSERT INTO assets (id, owner_id, filename, mime_type, size_bytes, storage_path, status, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.OwnerID, a.Filename, a.MimeType, a.SizeBytes, a.StoragePath, a.Status, a.Version)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetByID returns the asset regardless of ownership. Authorization is the
// caller's job; missing rows map to ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id = $1`
	a, err := scanAsset(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select asset: %w", err)
	}
	return a, nil
}

// GetOwned returns the asset only when ownerID owns it.
func (r *PostgresRepository) GetOwned(ctx context.Context, id string, ownerID string) (*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id = $1 AND owner_id = $2`
	a, err := scanAsset(r.db.QueryRowContext(ctx, query, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select asset: %w", err)
	}
	return a, nil
}

// ListByOwner returns the caller's assets newest-first. filter, when
// non-empty, is a case-insensitive substring match on the filename; before,
// when non-nil, restricts to rows created strictly before that instant
// (the pagination cursor).
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string, filter string, limit int, before *time.Time) ([]*models.Asset, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + assetColumns + ` FROM assets WHERE owner_id = $1`)
	args := []any{ownerID}

	if filter != "" {
		args = append(args, "%"+filter+"%")
		b.WriteString(` AND filename ILIKE $` + strconv.Itoa(len(args)))
	}
	if before != nil {
		args = append(args, *before)
		b.WriteString(` AND created_at < $` + strconv.Itoa(len(args)))
	}
	args = append(args, limit)
	b.WriteString(` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)))

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select assets: %w", err)
	}
	defer rows.Close()

	var result []*models.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SetReady transitions the asset to ready with the server-computed hash,
// guarded on the expected version.
func (r *PostgresRepository) SetReady(ctx context.Context, id string, sha256 string, expectedVersion int64) error {
	query := `
		UPDATE assets SET status = 'ready', sha256 = $2, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $3;
	`
	res, err := r.db.ExecContext(ctx, query, id, sha256, expectedVersion)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return guarded(res)
}

// SetCorrupt transitions the asset to corrupt, guarded on the expected version.
func (r *PostgresRepository) SetCorrupt(ctx context.Context, id string, expectedVersion int64) error {
	query := `
		UPDATE assets SET status = 'corrupt', version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2;
	`
	res, err := r.db.ExecContext(ctx, query, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return guarded(res)
}

// Rename updates the filename, scoped to the owner and guarded on the
// expected version. The caller is responsible for sanitizing the filename.
func (r *PostgresRepository) Rename(ctx context.Context, id string, ownerID string, filename string, expectedVersion int64) error {
	query := `
		UPDATE assets SET filename = $3, version = version + 1, updated_at = now()
		WHERE id = $1 AND owner_id = $2 AND version = $4;
	`
	res, err := r.db.ExecContext(ctx, query, id, ownerID, filename, expectedVersion)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return guarded(res)
}

// BumpVersion advances the version without touching other attributes. Share
// and revoke operations use it so grants participate in the same optimistic
// concurrency discipline as every other mutation.
func (r *PostgresRepository) BumpVersion(ctx context.Context, id string, ownerID string, expectedVersion int64) error {
	query := `
		UPDATE assets SET version = version + 1, updated_at = now()
		WHERE id = $1 AND owner_id = $2 AND version = $3;
	`
	res, err := r.db.ExecContext(ctx, query, id, ownerID, expectedVersion)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return guarded(res)
}

// Delete removes the asset row, scoped to the owner and guarded on the
// expected version. Shares and tickets cascade in-schema.
func (r *PostgresRepository) Delete(ctx context.Context, id string, ownerID string, expectedVersion int64) error {
	query := `DELETE FROM assets WHERE id = $1 AND owner_id = $2 AND version = $3;`
	res, err := r.db.ExecContext(ctx, query, id, ownerID, expectedVersion)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return guarded(res)
}
