package shares

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/assetvault/internal/common"
	"github.com/dmitrijs2005/assetvault/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestUpsert_InsertOrUpdate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+asset_shares\b.*ON\s+CONFLICT\s*\(asset_id,\s*grantee_id\)\s*DO\s+UPDATE\s+SET\s+can_download\s*=\s*EXCLUDED\.can_download`
	mock.ExpectExec(q).
		WithArgs("a1", "u2", true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), &models.AssetShare{AssetID: "a1", GranteeID: "u2", CanDownload: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDelete_IdempotentOnAbsent(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM asset_shares WHERE asset_id = \$1 AND grantee_id = \$2`).
		WithArgs("a1", "u2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "a1", "u2"); err != nil {
		t.Fatalf("revocation must be idempotent, got %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT .* FROM asset_shares WHERE asset_id = \$1 AND grantee_id = \$2`).
		WithArgs("a1", "stranger").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "a1", "stranger")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestListByAsset(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"asset_id", "grantee_id", "can_download", "created_at"}).
		AddRow("a1", "u2", true, time.Now()).
		AddRow("a1", "u3", false, time.Now())

	mock.ExpectQuery(`(?s)SELECT .* FROM asset_shares WHERE asset_id = \$1 ORDER BY created_at`).
		WithArgs("a1").
		WillReturnRows(rows)

	items, err := repo.ListByAsset(context.Background(), "a1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 || items[0].GranteeID != "u2" || items[1].CanDownload {
		t.Fatalf("unexpected items: %+v", items)
	}
}
