package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/assetvault/internal/dbx"
	"github.com/dmitrijs2005/assetvault/internal/logging"
	"github.com/dmitrijs2005/assetvault/internal/server/blob"
	"github.com/dmitrijs2005/assetvault/internal/server/models"
	"github.com/dmitrijs2005/assetvault/internal/server/repositories/assets"
	"github.com/dmitrijs2005/assetvault/internal/server/repositories/audit"
	"github.com/dmitrijs2005/assetvault/internal/server/repositories/shares"
	"github.com/dmitrijs2005/assetvault/internal/server/repositories/tickets"
)

// Fakes embed the repository interfaces so tests only implement the methods
// an operation actually touches; anything else panics loudly.

type fakeAssetRepo struct {
	assets.Repository
	insertFn      func(ctx context.Context, a *models.Asset) error
	getByIDFn     func(ctx context.Context, id string) (*models.Asset, error)
	getOwnedFn    func(ctx context.Context, id, ownerID string) (*models.Asset, error)
	listFn        func(ctx context.Context, ownerID, filter string, limit int, before *time.Time) ([]*models.Asset, error)
	setReadyFn    func(ctx context.Context, id, sha256 string, expectedVersion int64) error
	setCorruptFn  func(ctx context.Context, id string, expectedVersion int64) error
	renameFn      func(ctx context.Context, id, ownerID, filename string, expectedVersion int64) error
	bumpVersionFn func(ctx context.Context, id, ownerID string, expectedVersion int64) error
	deleteFn      func(ctx context.Context, id, ownerID string, expectedVersion int64) error
}

func (f *fakeAssetRepo) Insert(ctx context.Context, a *models.Asset) error { return f.insertFn(ctx, a) }
func (f *fakeAssetRepo) GetByID(ctx context.Context, id string) (*models.Asset, error) {
	return f.getByIDFn(ctx, id)
}
func (f *fakeAssetRepo) GetOwned(ctx context.Context, id, ownerID string) (*models.Asset, error) {
	return f.getOwnedFn(ctx, id, ownerID)
}
func (f *fakeAssetRepo) ListByOwner(ctx context.Context, ownerID, filter string, limit int, before *time.Time) ([]*models.Asset, error) {
	return f.listFn(ctx, ownerID, filter, limit, before)
}
func (f *fakeAssetRepo) SetReady(ctx context.Context, id, sha256 string, expectedVersion int64) error {
	return f.setReadyFn(ctx, id, sha256, expectedVersion)
}
func (f *fakeAssetRepo) SetCorrupt(ctx context.Context, id string, expectedVersion int64) error {
	return f.setCorruptFn(ctx, id, expectedVersion)
}
func (f *fakeAssetRepo) Rename(ctx context.Context, id, ownerID, filename string, expectedVersion int64) error {
	return f.renameFn(ctx, id, ownerID, filename, expectedVersion)
}
func (f *fakeAssetRepo) BumpVersion(ctx context.Context, id, ownerID string, expectedVersion int64) error {
	return f.bumpVersionFn(ctx, id, ownerID, expectedVersion)
}
func (f *fakeAssetRepo) Delete(ctx context.Context, id, ownerID string, expectedVersion int64) error {
	return f.deleteFn(ctx, id, ownerID, expectedVersion)
}

type fakeTicketRepo struct {
	tickets.Repository
	insertFn     func(ctx context.Context, t *models.UploadTicket) error
	getByAssetFn func(ctx context.Context, assetID, userID string) (*models.UploadTicket, error)
	consumeFn    func(ctx context.Context, assetID, userID string) error
}

func (f *fakeTicketRepo) Insert(ctx context.Context, t *models.UploadTicket) error {
	return f.insertFn(ctx, t)
}
func (f *fakeTicketRepo) GetByAsset(ctx context.Context, assetID, userID string) (*models.UploadTicket, error) {
	return f.getByAssetFn(ctx, assetID, userID)
}
func (f *fakeTicketRepo) Consume(ctx context.Context, assetID, userID string) error {
	return f.consumeFn(ctx, assetID, userID)
}

type fakeShareRepo struct {
	shares.Repository
	upsertFn func(ctx context.Context, s *models.AssetShare) error
	deleteFn func(ctx context.Context, assetID, granteeID string) error
	getFn    func(ctx context.Context, assetID, granteeID string) (*models.AssetShare, error)
	listFn   func(ctx context.Context, assetID string) ([]*models.AssetShare, error)
}

func (f *fakeShareRepo) Upsert(ctx context.Context, s *models.AssetShare) error {
	return f.upsertFn(ctx, s)
}
func (f *fakeShareRepo) Delete(ctx context.Context, assetID, granteeID string) error {
	return f.deleteFn(ctx, assetID, granteeID)
}
func (f *fakeShareRepo) Get(ctx context.Context, assetID, granteeID string) (*models.AssetShare, error) {
	return f.getFn(ctx, assetID, granteeID)
}
func (f *fakeShareRepo) ListByAsset(ctx context.Context, assetID string) ([]*models.AssetShare, error) {
	return f.listFn(ctx, assetID)
}

type fakeAuditRepo struct {
	audit.Repository
	appendFn func(ctx context.Context, e *models.DownloadAudit) error
}

func (f *fakeAuditRepo) Append(ctx context.Context, e *models.DownloadAudit) error {
	return f.appendFn(ctx, e)
}

type fakeManager struct {
	assets  *fakeAssetRepo
	tickets *fakeTicketRepo
	shares  *fakeShareRepo
	audit   *fakeAuditRepo
}

func (m *fakeManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }
func (m *fakeManager) Assets(db dbx.DBTX) assets.Repository { return m.assets }
func (m *fakeManager) Tickets(db dbx.DBTX) tickets.Repository { return m.tickets }
func (m *fakeManager) Shares(db dbx.DBTX) shares.Repository { return m.shares }
func (m *fakeManager) Audit(db dbx.DBTX) audit.Repository { return m.audit }

type fakeGateway struct {
	signUploadFn   func(ctx context.Context, path string, ttl time.Duration) (string, error)
	signDownloadFn func(ctx context.Context, path string, ttl time.Duration) (string, error)
	hashObjectFn   func(ctx context.Context, path string) (*blob.ObjectInfo, error)
	deleteFn       func(ctx context.Context, path string) error
}

func (g *fakeGateway) SignUploadURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	return g.signUploadFn(ctx, path, ttl)
}
func (g *fakeGateway) SignDownloadURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	return g.signDownloadFn(ctx, path, ttl)
}
func (g *fakeGateway) HashObject(ctx context.Context, path string) (*blob.ObjectInfo, error) {
	return g.hashObjectFn(ctx, path)
}
func (g *fakeGateway) Delete(ctx context.Context, path string) error {
	return g.deleteFn(ctx, path)
}

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// newTestService wires an AssetService over fakes and a sqlmock database.
// Only operations that open transactions touch the mock; everything else
// goes straight to the fakes.
func newTestService(t *testing.T, m *fakeManager, gw *fakeGateway) (*AssetService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if gw == nil {
		gw = &fakeGateway{}
	}
	return NewAssetService(db, m, gw, discardLogger()), mock
}

// pinClock fixes the service clock for the duration of the test.
func pinClock(t *testing.T, at time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}

func pinNonce(t *testing.T, value string) {
	t.Helper()
	prev := newNonce
	newNonce = func() (string, error) { return value, nil }
	t.Cleanup(func() { newNonce = prev })
}
