package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/assetvault/internal/dbx"
	"github.com/dmitrijs2005/assetvault/internal/server/repositories/assets"
	"github.com/dmitrijs2005/assetvault/internal/server/repositories/audit"
	"github.com/dmitrijs2005/assetvault/internal/server/repositories/shares"
	"github.com/dmitrijs2005/assetvault/internal/server/repositories/tickets"
)

// RepositoryManager vends repositories bound to a DBTX, so services can run
// the same repository code against *sql.DB or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Assets(db dbx.DBTX) assets.Repository
	Tickets(db dbx.DBTX) tickets.Repository
	Shares(db dbx.DBTX) shares.Repository
	Audit(db dbx.DBTX) audit.Repository
}
