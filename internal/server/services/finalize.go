package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/assetvault/internal/common"
	"github.com/dmitrijs2005/assetvault/internal/server/models"
	"github.com/dmitrijs2005/assetvault/internal/uploadfsm"
)

// FinalizeUpload redeems the caller's upload ticket for assetID and decides
// the asset's fate: ready when the server-computed hash of the stored bytes
// equals clientHash, corrupt otherwise.
//
// The ticket is consumed the moment processing begins, before any
// verification outcome is known: it is single-shot authorization, not a
// retry token. Consumption is a single conditional update, so two
// concurrent finalize calls can never both proceed.
//
// The lifecycle is driven through an uploadfsm.Machine so every step is an
// explicit transition; an event the machine rejects is a programming error,
// not a client error.
//
// The asset only ever reaches ready carrying the hash the server computed
// itself; clientHash is a comparison input, never written to the record.
func (s *AssetService) FinalizeUpload(ctx context.Context, callerID, assetID, clientHash string, expectedVersion int64) (*models.Asset, error) {
	ticketRepo := s.repomanager.Tickets(s.db)

	ticket, err := ticketRepo.GetByAsset(ctx, assetID, callerID)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("%w: no upload ticket for this asset", common.ErrorBadRequest)
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching upload ticket: %w", err)
	}

	fsm := uploadfsm.New()
	if _, err := fsm.Apply(uploadfsm.EventTicketIssued); err != nil {
		return nil, fmt.Errorf("lifecycle error: %w", err)
	}

	if ticket.Used {
		return nil, fmt.Errorf("%w: upload ticket already used", common.ErrorBadRequest)
	}
	if now().After(ticket.ExpiresAt) {
		if _, err := fsm.Apply(uploadfsm.EventTicketExpired); err != nil {
			return nil, fmt.Errorf("lifecycle error: %w", err)
		}
		return nil, fmt.Errorf("%w: upload ticket expired", common.ErrorBadRequest)
	}

	// Single-shot consumption. A concurrent redeemer that got here first
	// wins; this call then fails the same way a reused ticket does.
	if err := ticketRepo.Consume(ctx, assetID, callerID); err != nil {
		return nil, err
	}
	if _, err := fsm.Apply(uploadfsm.EventUploadStarted); err != nil {
		return nil, fmt.Errorf("lifecycle error: %w", err)
	}
	if _, err := fsm.Apply(uploadfsm.EventUploadDone); err != nil {
		return nil, fmt.Errorf("lifecycle error: %w", err)
	}

	info, err := s.gateway.HashObject(ctx, ticket.StoragePath)
	if err != nil {
		if _, ferr := fsm.Apply(uploadfsm.EventVerifyFailed); ferr != nil {
			return nil, fmt.Errorf("lifecycle error: %w", ferr)
		}
		s.markCorrupt(ctx, assetID, expectedVersion)
		return nil, fmt.Errorf("%w: stored object missing or unreadable", common.ErrIntegrity)
	}

	event := uploadfsm.EventVerifyPassed
	if info.SHA256 != strings.ToLower(clientHash) {
		event = uploadfsm.EventVerifyFailed
	}
	state, err := fsm.Apply(event)
	if err != nil {
		return nil, fmt.Errorf("lifecycle error: %w", err)
	}

	if state == uploadfsm.StateCorrupt {
		s.markCorrupt(ctx, assetID, expectedVersion)
		return nil, fmt.Errorf("%w: hash mismatch", common.ErrIntegrity)
	}

	assetRepo := s.repomanager.Assets(s.db)
	if err := assetRepo.SetReady(ctx, assetID, info.SHA256, expectedVersion); err != nil {
		if errors.Is(err, common.ErrVersionConflict) {
			return nil, common.ErrVersionConflict
		}
		return nil, fmt.Errorf("error updating asset: %w", err)
	}

	asset, err := assetRepo.GetByID(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("error fetching asset: %w", err)
	}

	s.logger.Info(ctx, "upload finalized", "asset_id", assetID, "sha256", info.SHA256)
	return asset, nil
}

// markCorrupt applies the version-guarded corrupt transition. Losing the
// guard does not change the outcome for the caller (the ticket is burned
// either way); the conflict is only logged.
func (s *AssetService) markCorrupt(ctx context.Context, assetID string, expectedVersion int64) {
	assetRepo := s.repomanager.Assets(s.db)
	if err := assetRepo.SetCorrupt(ctx, assetID, expectedVersion); err != nil {
		s.logger.Warn(ctx, "corrupt transition not applied", "asset_id", assetID, "error", err.Error())
	}
}
