package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/assetvault/internal/common"
	"github.com/dmitrijs2005/assetvault/internal/logging"
	"github.com/dmitrijs2005/assetvault/internal/server/auth"
	"github.com/dmitrijs2005/assetvault/internal/server/models"
	"github.com/dmitrijs2005/assetvault/internal/server/services"
)

const testSecret = "test-secret"

// fakeService lets each test script exactly the operations a request should
// reach. Unset operations fail the test via the embedded nil interface.
type fakeService struct {
	AssetService
	issueTicket  func(ctx context.Context, ownerID, filename, mimeType string, sizeBytes int64) (*services.TicketPayload, error)
	finalize     func(ctx context.Context, callerID, assetID, clientHash string, expectedVersion int64) (*models.Asset, error)
	getAsset     func(ctx context.Context, callerID, assetID string) (*models.Asset, error)
	listAssets   func(ctx context.Context, callerID string, pageSize int, afterCursor, filter string) (*services.AssetPage, error)
	downloadLink func(ctx context.Context, callerID, assetID string) (*services.DownloadLink, error)
	rename       func(ctx context.Context, callerID, assetID, newFilename string, expectedVersion int64) (*models.Asset, error)
	deleteAsset  func(ctx context.Context, callerID, assetID string, expectedVersion int64) error
	share        func(ctx context.Context, callerID, assetID, granteeID string, canDownload bool, expectedVersion int64) (*models.Asset, error)
	revoke       func(ctx context.Context, callerID, assetID, granteeID string, expectedVersion int64) (*models.Asset, error)
	listShares   func(ctx context.Context, callerID, assetID string) ([]*models.AssetShare, error)
}

func (f *fakeService) IssueUploadTicket(ctx context.Context, ownerID, filename, mimeType string, sizeBytes int64) (*services.TicketPayload, error) {
	return f.issueTicket(ctx, ownerID, filename, mimeType, sizeBytes)
}
func (f *fakeService) FinalizeUpload(ctx context.Context, callerID, assetID, clientHash string, expectedVersion int64) (*models.Asset, error) {
	return f.finalize(ctx, callerID, assetID, clientHash, expectedVersion)
}
func (f *fakeService) GetAsset(ctx context.Context, callerID, assetID string) (*models.Asset, error) {
	return f.getAsset(ctx, callerID, assetID)
}
func (f *fakeService) ListAssets(ctx context.Context, callerID string, pageSize int, afterCursor, filter string) (*services.AssetPage, error) {
	return f.listAssets(ctx, callerID, pageSize, afterCursor, filter)
}
func (f *fakeService) GetDownloadLink(ctx context.Context, callerID, assetID string) (*services.DownloadLink, error) {
	return f.downloadLink(ctx, callerID, assetID)
}
func (f *fakeService) RenameAsset(ctx context.Context, callerID, assetID, newFilename string, expectedVersion int64) (*models.Asset, error) {
	return f.rename(ctx, callerID, assetID, newFilename, expectedVersion)
}
func (f *fakeService) DeleteAsset(ctx context.Context, callerID, assetID string, expectedVersion int64) error {
	return f.deleteAsset(ctx, callerID, assetID, expectedVersion)
}
func (f *fakeService) ShareAsset(ctx context.Context, callerID, assetID, granteeID string, canDownload bool, expectedVersion int64) (*models.Asset, error) {
	return f.share(ctx, callerID, assetID, granteeID, canDownload, expectedVersion)
}
func (f *fakeService) RevokeShare(ctx context.Context, callerID, assetID, granteeID string, expectedVersion int64) (*models.Asset, error) {
	return f.revoke(ctx, callerID, assetID, granteeID, expectedVersion)
}
func (f *fakeService) ListShares(ctx context.Context, callerID, assetID string) ([]*models.AssetShare, error) {
	return f.listShares(ctx, callerID, assetID)
}

func newTestServer(svc AssetService) *Server {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewServer(":0", logger, svc, testSecret, 10*time.Second)
}

func bearerFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, []byte(testSecret), time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func doJSON(t *testing.T, srv *Server, method, target, authz string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestPing_NoAuthRequired(t *testing.T) {
	srv := newTestServer(&fakeService{})
	w := doJSON(t, srv, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_MissingTokenIs401(t *testing.T) {
	srv := newTestServer(&fakeService{})
	w := doJSON(t, srv, http.MethodGet, "/api/v1/assets", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_GarbageTokenIs401(t *testing.T) {
	srv := newTestServer(&fakeService{})
	w := doJSON(t, srv, http.MethodGet, "/api/v1/assets", "Bearer not.a.jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_WrongSecretIs401(t *testing.T) {
	token, err := auth.GenerateToken("u1", []byte("other-secret"), time.Hour)
	require.NoError(t, err)
	srv := newTestServer(&fakeService{})
	w := doJSON(t, srv, http.MethodGet, "/api/v1/assets", "Bearer "+token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIssueUploadTicket_EndToEnd(t *testing.T) {
	exp := time.Date(2026, time.August, 31, 12, 10, 0, 0, time.UTC)
	svc := &fakeService{
		issueTicket: func(ctx context.Context, ownerID, filename, mimeType string, sizeBytes int64) (*services.TicketPayload, error) {
			assert.Equal(t, "u1", ownerID)
			assert.Equal(t, "photo.jpg", filename)
			assert.Equal(t, "image/jpeg", mimeType)
			assert.Equal(t, int64(1024), sizeBytes)
			return &services.TicketPayload{
				AssetID:     "a1",
				StoragePath: "u1/2026/08/a1-photo.jpg",
				UploadURL:   "https://blobs.example/put",
				ExpiresAt:   exp,
				Nonce:       "feedface",
			}, nil
		},
	}
	srv := newTestServer(svc)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/assets/tickets", bearerFor(t, "u1"), map[string]any{
		"filename": "photo.jpg", "mime_type": "image/jpeg", "size_bytes": 1024,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "a1", resp["asset_id"])
	assert.Equal(t, "https://blobs.example/put", resp["upload_url"])
	assert.Equal(t, "feedface", resp["nonce"])
}

func TestIssueUploadTicket_MissingBodyIs400(t *testing.T) {
	srv := newTestServer(&fakeService{})
	w := doJSON(t, srv, http.MethodPost, "/api/v1/assets/tickets", bearerFor(t, "u1"), map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFinalize_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"bad request", common.ErrorBadRequest, http.StatusBadRequest},
		{"not found", common.ErrorNotFound, http.StatusNotFound},
		{"version conflict", common.ErrVersionConflict, http.StatusConflict},
		{"integrity", common.ErrIntegrity, http.StatusUnprocessableEntity},
		{"internal", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeService{
				finalize: func(ctx context.Context, callerID, assetID, clientHash string, expectedVersion int64) (*models.Asset, error) {
					return nil, tc.err
				},
			}
			srv := newTestServer(svc)
			w := doJSON(t, srv, http.MethodPost, "/api/v1/assets/a1/finalize", bearerFor(t, "u1"), map[string]any{
				"sha256": "abc", "expected_version": 1,
			})
			assert.Equal(t, tc.code, w.Code)
		})
	}
}

func TestFinalize_Success(t *testing.T) {
	svc := &fakeService{
		finalize: func(ctx context.Context, callerID, assetID, clientHash string, expectedVersion int64) (*models.Asset, error) {
			assert.Equal(t, "u1", callerID)
			assert.Equal(t, "a1", assetID)
			assert.Equal(t, "abc", clientHash)
			assert.Equal(t, int64(1), expectedVersion)
			return &models.Asset{ID: "a1", Status: models.StatusReady, Version: 2}, nil
		},
	}
	srv := newTestServer(svc)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/assets/a1/finalize", bearerFor(t, "u1"), map[string]any{
		"sha256": "abc", "expected_version": 1,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp assetResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ready", resp.Status)
	assert.Equal(t, int64(2), resp.Version)
}

func TestListAssets_QueryParamsForwarded(t *testing.T) {
	svc := &fakeService{
		listAssets: func(ctx context.Context, callerID string, pageSize int, afterCursor, filter string) (*services.AssetPage, error) {
			assert.Equal(t, "u1", callerID)
			assert.Equal(t, 5, pageSize)
			assert.Equal(t, "2026-08-31T11:00:00Z", afterCursor)
			assert.Equal(t, "photo", filter)
			return &services.AssetPage{HasMore: false}, nil
		},
	}
	srv := newTestServer(svc)

	w := doJSON(t, srv, http.MethodGet,
		"/api/v1/assets?page_size=5&cursor=2026-08-31T11%3A00%3A00Z&filter=photo",
		bearerFor(t, "u1"), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["has_more"])
	assert.NotNil(t, resp["items"])
}

func TestGetDownloadLink_Success(t *testing.T) {
	exp := time.Date(2026, time.August, 31, 12, 1, 30, 0, time.UTC)
	svc := &fakeService{
		downloadLink: func(ctx context.Context, callerID, assetID string) (*services.DownloadLink, error) {
			return &services.DownloadLink{URL: "https://blobs.example/get", ExpiresAt: exp}, nil
		},
	}
	srv := newTestServer(svc)

	w := doJSON(t, srv, http.MethodGet, "/api/v1/assets/a1/download", bearerFor(t, "u1"), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "https://blobs.example/get", resp["url"])
}

func TestGetDownloadLink_NotFoundHidesExistence(t *testing.T) {
	svc := &fakeService{
		downloadLink: func(ctx context.Context, callerID, assetID string) (*services.DownloadLink, error) {
			return nil, common.ErrorNotFound
		},
	}
	srv := newTestServer(svc)

	w := doJSON(t, srv, http.MethodGet, "/api/v1/assets/a1/download", bearerFor(t, "u2"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "not found", resp["error"])
}

func TestDeleteAsset_RequiresExpectedVersion(t *testing.T) {
	srv := newTestServer(&fakeService{})
	w := doJSON(t, srv, http.MethodDelete, "/api/v1/assets/a1", bearerFor(t, "u1"), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteAsset_Success(t *testing.T) {
	svc := &fakeService{
		deleteAsset: func(ctx context.Context, callerID, assetID string, expectedVersion int64) error {
			assert.Equal(t, "a1", assetID)
			assert.Equal(t, int64(3), expectedVersion)
			return nil
		},
	}
	srv := newTestServer(svc)

	w := doJSON(t, srv, http.MethodDelete, "/api/v1/assets/a1?expected_version=3", bearerFor(t, "u1"), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRename_VersionConflictIs409(t *testing.T) {
	svc := &fakeService{
		rename: func(ctx context.Context, callerID, assetID, newFilename string, expectedVersion int64) (*models.Asset, error) {
			return nil, common.ErrVersionConflict
		},
	}
	srv := newTestServer(svc)

	w := doJSON(t, srv, http.MethodPatch, "/api/v1/assets/a1", bearerFor(t, "u1"), map[string]any{
		"filename": "new.jpg", "expected_version": 1,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestShareAndRevoke(t *testing.T) {
	svc := &fakeService{
		share: func(ctx context.Context, callerID, assetID, granteeID string, canDownload bool, expectedVersion int64) (*models.Asset, error) {
			assert.Equal(t, "u2", granteeID)
			assert.True(t, canDownload)
			return &models.Asset{ID: assetID, Version: expectedVersion + 1}, nil
		},
		revoke: func(ctx context.Context, callerID, assetID, granteeID string, expectedVersion int64) (*models.Asset, error) {
			assert.Equal(t, "u2", granteeID)
			return &models.Asset{ID: assetID, Version: expectedVersion + 1}, nil
		},
	}
	srv := newTestServer(svc)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/assets/a1/shares", bearerFor(t, "u1"), map[string]any{
		"grantee_id": "u2", "can_download": true, "expected_version": 2,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodDelete, "/api/v1/assets/a1/shares/u2?expected_version=3", bearerFor(t, "u1"), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListShares_Success(t *testing.T) {
	svc := &fakeService{
		listShares: func(ctx context.Context, callerID, assetID string) ([]*models.AssetShare, error) {
			return []*models.AssetShare{
				{AssetID: assetID, GranteeID: "u2", CanDownload: true},
			}, nil
		},
	}
	srv := newTestServer(svc)

	w := doJSON(t, srv, http.MethodGet, "/api/v1/assets/a1/shares", bearerFor(t, "u1"), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Items []struct {
			GranteeID   string `json:"grantee_id"`
			CanDownload bool   `json:"can_download"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "u2", resp.Items[0].GranteeID)
}
