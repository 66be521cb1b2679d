package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dmitrijs2005/assetvault/internal/common"
	"github.com/dmitrijs2005/assetvault/internal/filex"
	"github.com/dmitrijs2005/assetvault/internal/server/models"
	"github.com/google/uuid"
)

// TicketPayload is everything a client needs to perform the upload it was
// authorized for.
type TicketPayload struct {
	AssetID     string
	StoragePath string
	UploadURL   string
	ExpiresAt   time.Time
	Nonce       string
}

// newNonce returns a hex-encoded random value with nonceBytes of entropy.
var newNonce = func() (string, error) {
	b := make([]byte, nonceBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// buildStoragePath derives the immutable object key for a new asset:
// {ownerID}/{year}/{zero-padded month}/{assetID}-{sanitizedFilename}.
// The layout is normative; existing deployments depend on it.
func buildStoragePath(ownerID, assetID, sanitized string) string {
	d := now().UTC()
	return fmt.Sprintf("%s/%d/%02d/%s-%s", ownerID, d.Year(), int(d.Month()), assetID, sanitized)
}

// IssueUploadTicket validates the declared upload, creates the draft asset
// and its single-use ticket, and returns a presigned upload URL.
//
// A failure after the asset insert leaves an orphan draft behind: there is
// deliberately no cross-store rollback, and a draft with no ticket has no
// path to completion. Callers retry with a fresh ticket.
func (s *AssetService) IssueUploadTicket(ctx context.Context, ownerID, filename, mimeType string, sizeBytes int64) (*TicketPayload, error) {
	if _, ok := allowedMimeTypes[mimeType]; !ok {
		return nil, fmt.Errorf("%w: mime type %q is not allowed", common.ErrorBadRequest, mimeType)
	}
	if sizeBytes <= 0 || sizeBytes > maxUploadBytes {
		return nil, fmt.Errorf("%w: declared size %d is out of range", common.ErrorBadRequest, sizeBytes)
	}

	sanitized := filex.SanitizeFilename(filename)
	if sanitized == "" || sanitized == "." {
		return nil, fmt.Errorf("%w: filename is empty after sanitization", common.ErrorBadRequest)
	}

	assetID := uuid.New().String()
	storagePath := buildStoragePath(ownerID, assetID, sanitized)

	asset := &models.Asset{
		ID:          assetID,
		OwnerID:     ownerID,
		Filename:    sanitized,
		MimeType:    mimeType,
		SizeBytes:   sizeBytes,
		StoragePath: storagePath,
		Status:      models.StatusDraft,
		Version:     1,
	}

	assetRepo := s.repomanager.Assets(s.db)
	if err := assetRepo.Insert(ctx, asset); err != nil {
		return nil, fmt.Errorf("error creating asset: %w", err)
	}

	nonce, err := newNonce()
	if err != nil {
		return nil, fmt.Errorf("error generating nonce: %w", err)
	}

	expiresAt := now().UTC().Add(uploadTicketTTL)
	ticket := &models.UploadTicket{
		AssetID:     assetID,
		UserID:      ownerID,
		Nonce:       nonce,
		MimeType:    mimeType,
		SizeBytes:   sizeBytes,
		StoragePath: storagePath,
		ExpiresAt:   expiresAt,
	}

	ticketRepo := s.repomanager.Tickets(s.db)
	if err := ticketRepo.Insert(ctx, ticket); err != nil {
		return nil, fmt.Errorf("error creating upload ticket: %w", err)
	}

	uploadURL, err := s.gateway.SignUploadURL(ctx, storagePath, uploadTicketTTL)
	if err != nil {
		return nil, fmt.Errorf("error signing upload url: %w", err)
	}

	s.logger.Info(ctx, "upload ticket issued", "asset_id", assetID, "owner_id", ownerID)

	return &TicketPayload{
		AssetID:     assetID,
		StoragePath: storagePath,
		UploadURL:   uploadURL,
		ExpiresAt:   expiresAt,
		Nonce:       nonce,
	}, nil
}
