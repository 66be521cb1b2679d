package audit

import (
	"context"

	"github.com/dmitrijs2005/assetvault/internal/server/models"
)

// Repository is the persistence contract for the download audit log.
// The log is append-only; there is deliberately no update or delete.
type Repository interface {
	Append(ctx context.Context, entry *models.DownloadAudit) error
}
