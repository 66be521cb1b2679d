package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/assetvault/internal/common"
	"github.com/dmitrijs2005/assetvault/internal/server/models"
)

// assetResponse is the wire shape of an asset.
type assetResponse struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	MimeType    string    `json:"mime_type"`
	SizeBytes   int64     `json:"size_bytes"`
	StoragePath string    `json:"storage_path"`
	SHA256      string    `json:"sha256,omitempty"`
	Status      string    `json:"status"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toAssetResponse(a *models.Asset) assetResponse {
	return assetResponse{
		ID:          a.ID,
		Filename:    a.Filename,
		MimeType:    a.MimeType,
		SizeBytes:   a.SizeBytes,
		StoragePath: a.StoragePath,
		SHA256:      a.SHA256,
		Status:      string(a.Status),
		Version:     a.Version,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// respondError maps service error kinds to HTTP statuses. Internal failures
// surface a generic message only; detail goes to the log, never the caller.
func (s *Server) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrorBadRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, common.ErrVersionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "version conflict"})
	case errors.Is(err, common.ErrIntegrity):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrorUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
	default:
		s.logger.Error(c.Request.Context(), "internal error", "path", c.FullPath(), "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

type issueTicketRequest struct {
	Filename  string `json:"filename" binding:"required"`
	MimeType  string `json:"mime_type" binding:"required"`
	SizeBytes int64  `json:"size_bytes" binding:"required"`
}

func (s *Server) issueUploadTicket(c *gin.Context) {
	var req issueTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	payload, err := s.service.IssueUploadTicket(c.Request.Context(), callerID(c), req.Filename, req.MimeType, req.SizeBytes)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"asset_id":     payload.AssetID,
		"storage_path": payload.StoragePath,
		"upload_url":   payload.UploadURL,
		"expires_at":   payload.ExpiresAt,
		"nonce":        payload.Nonce,
	})
}

type finalizeRequest struct {
	SHA256          string `json:"sha256" binding:"required"`
	ExpectedVersion int64  `json:"expected_version" binding:"required"`
}

func (s *Server) finalizeUpload(c *gin.Context) {
	var req finalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	asset, err := s.service.FinalizeUpload(c.Request.Context(), callerID(c), c.Param("id"), req.SHA256, req.ExpectedVersion)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toAssetResponse(asset))
}

func (s *Server) getAsset(c *gin.Context) {
	asset, err := s.service.GetAsset(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAssetResponse(asset))
}

func (s *Server) listAssets(c *gin.Context) {
	pageSize, _ := strconv.Atoi(c.Query("page_size"))

	page, err := s.service.ListAssets(c.Request.Context(), callerID(c), pageSize, c.Query("cursor"), c.Query("filter"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	items := make([]assetResponse, 0, len(page.Items))
	for _, a := range page.Items {
		items = append(items, toAssetResponse(a))
	}

	c.JSON(http.StatusOK, gin.H{
		"items":       items,
		"next_cursor": page.NextCursor,
		"has_more":    page.HasMore,
	})
}

func (s *Server) getDownloadLink(c *gin.Context) {
	link, err := s.service.GetDownloadLink(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": link.URL, "expires_at": link.ExpiresAt})
}

type renameRequest struct {
	Filename        string `json:"filename" binding:"required"`
	ExpectedVersion int64  `json:"expected_version" binding:"required"`
}

func (s *Server) renameAsset(c *gin.Context) {
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	asset, err := s.service.RenameAsset(c.Request.Context(), callerID(c), c.Param("id"), req.Filename, req.ExpectedVersion)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAssetResponse(asset))
}

// expectedVersionQuery reads the expected_version query parameter used by
// the delete-style endpoints.
func expectedVersionQuery(c *gin.Context) (int64, bool) {
	v, err := strconv.ParseInt(c.Query("expected_version"), 10, 64)
	if err != nil || v < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected_version query parameter is required"})
		return 0, false
	}
	return v, true
}

func (s *Server) deleteAsset(c *gin.Context) {
	version, ok := expectedVersionQuery(c)
	if !ok {
		return
	}

	if err := s.service.DeleteAsset(c.Request.Context(), callerID(c), c.Param("id"), version); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

type shareRequest struct {
	GranteeID       string `json:"grantee_id" binding:"required"`
	CanDownload     bool   `json:"can_download"`
	ExpectedVersion int64  `json:"expected_version" binding:"required"`
}

func (s *Server) shareAsset(c *gin.Context) {
	var req shareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	asset, err := s.service.ShareAsset(c.Request.Context(), callerID(c), c.Param("id"), req.GranteeID, req.CanDownload, req.ExpectedVersion)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAssetResponse(asset))
}

func (s *Server) revokeShare(c *gin.Context) {
	version, ok := expectedVersionQuery(c)
	if !ok {
		return
	}

	asset, err := s.service.RevokeShare(c.Request.Context(), callerID(c), c.Param("id"), c.Param("grantee"), version)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAssetResponse(asset))
}

func (s *Server) listShares(c *gin.Context) {
	grants, err := s.service.ListShares(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	type shareResponse struct {
		AssetID     string    `json:"asset_id"`
		GranteeID   string    `json:"grantee_id"`
		CanDownload bool      `json:"can_download"`
		CreatedAt   time.Time `json:"created_at"`
	}
	items := make([]shareResponse, 0, len(grants))
	for _, g := range grants {
		items = append(items, shareResponse{
			AssetID:     g.AssetID,
			GranteeID:   g.GranteeID,
			CanDownload: g.CanDownload,
			CreatedAt:   g.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
