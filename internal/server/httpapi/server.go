// Package httpapi exposes the asset lifecycle operations as a JSON API.
// It is a thin shell: authentication resolves the caller, handlers decode
// requests and map the service's error kinds onto HTTP statuses, and all
// semantics live in the services package.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/assetvault/internal/logging"
	"github.com/dmitrijs2005/assetvault/internal/server/models"
	"github.com/dmitrijs2005/assetvault/internal/server/services"
)

// AssetService is the operation surface the API serves. The concrete
// implementation is *services.AssetService; tests substitute fakes.
type AssetService interface {
	IssueUploadTicket(ctx context.Context, ownerID, filename, mimeType string, sizeBytes int64) (*services.TicketPayload, error)
	FinalizeUpload(ctx context.Context, callerID, assetID, clientHash string, expectedVersion int64) (*models.Asset, error)
	GetAsset(ctx context.Context, callerID, assetID string) (*models.Asset, error)
	ListAssets(ctx context.Context, callerID string, pageSize int, afterCursor, filter string) (*services.AssetPage, error)
	GetDownloadLink(ctx context.Context, callerID, assetID string) (*services.DownloadLink, error)
	RenameAsset(ctx context.Context, callerID, assetID, newFilename string, expectedVersion int64) (*models.Asset, error)
	DeleteAsset(ctx context.Context, callerID, assetID string, expectedVersion int64) error
	ShareAsset(ctx context.Context, callerID, assetID, granteeID string, canDownload bool, expectedVersion int64) (*models.Asset, error)
	RevokeShare(ctx context.Context, callerID, assetID, granteeID string, expectedVersion int64) (*models.Asset, error)
	ListShares(ctx context.Context, callerID, assetID string) ([]*models.AssetShare, error)
}

// Server serves the public HTTP endpoint.
type Server struct {
	address         string
	service         AssetService
	logger          logging.Logger
	jwtSecret       []byte
	shutdownTimeout time.Duration
}

// NewServer constructs a Server bound to address. shutdownTimeout bounds how
// long in-flight requests get to drain on stop.
func NewServer(address string, logger logging.Logger, svc AssetService, secretKey string, shutdownTimeout time.Duration) *Server {
	return &Server{
		address:         address,
		service:         svc,
		logger:          logger.With("module", "http_server"),
		jwtSecret:       []byte(secretKey),
		shutdownTimeout: shutdownTimeout,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	api := r.Group("/api/v1", s.authMiddleware())
	{
		api.POST("/assets/tickets", s.issueUploadTicket)
		api.GET("/assets", s.listAssets)
		api.GET("/assets/:id", s.getAsset)
		api.POST("/assets/:id/finalize", s.finalizeUpload)
		api.GET("/assets/:id/download", s.getDownloadLink)
		api.PATCH("/assets/:id", s.renameAsset)
		api.DELETE("/assets/:id", s.deleteAsset)
		api.GET("/assets/:id/shares", s.listShares)
		api.POST("/assets/:id/shares", s.shareAsset)
		api.DELETE("/assets/:id/shares/:grantee", s.revokeShare)
	}

	return r
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
