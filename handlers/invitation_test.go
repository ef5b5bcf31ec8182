package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genails/server/models"
	"github.com/genails/server/pkg"
	"github.com/genails/server/pkg/ratelimit"
)

// stubInvitationService, handler testleri için programlanabilir stub.
type stubInvitationService struct {
	redeemFn  func(ctx context.Context, req *models.RedeemRequest) (*models.CreditsBalance, error)
	previewFn func(ctx context.Context, code string) (*models.InvitationPreview, error)
}

func (s *stubInvitationService) Create(context.Context, string) (*models.Invitation, error) {
	return &models.Invitation{Code: "abcd1234abcd1234"}, nil
}

func (s *stubInvitationService) ListMine(context.Context, string) ([]models.InvitationWithUse, error) {
	return []models.InvitationWithUse{}, nil
}

func (s *stubInvitationService) Preview(ctx context.Context, code string) (*models.InvitationPreview, error) {
	return s.previewFn(ctx, code)
}

func (s *stubInvitationService) SendEmail(context.Context, string, *models.SendInvitationRequest) error {
	return nil
}

func (s *stubInvitationService) CheckRedeemable(context.Context, string) error {
	return nil
}

func (s *stubInvitationService) Redeem(ctx context.Context, req *models.RedeemRequest) (*models.CreditsBalance, error) {
	return s.redeemFn(ctx, req)
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) pkg.APIResponse {
	t.Helper()

	var resp pkg.APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func postRedeem(h *InvitationHandler, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/api/invitations/redeem", strings.NewReader(body))
	r.RemoteAddr = "10.0.0.1:12345"
	rec := httptest.NewRecorder()
	h.Redeem(rec, r)
	return rec
}

func TestInvitationHandler_Redeem_Success(t *testing.T) {
	svc := &stubInvitationService{
		redeemFn: func(_ context.Context, req *models.RedeemRequest) (*models.CreditsBalance, error) {
			return &models.CreditsBalance{UserID: req.NewUserID, Credits: 10}, nil
		},
	}
	h := NewInvitationHandler(svc, nil)

	rec := postRedeem(h, `{"invitation_code":"abc123","new_user_id":"user-1"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(10), data["credits"])
}

func TestInvitationHandler_Redeem_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"bad request", fmt.Errorf("%w: invitation_code is required", pkg.ErrBadRequest), http.StatusBadRequest},
		{"unknown code", fmt.Errorf("%w: invitation code not found", pkg.ErrNotFound), http.StatusNotFound},
		{"already used", fmt.Errorf("%w", pkg.ErrCodeAlreadyUsed), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubInvitationService{
				redeemFn: func(context.Context, *models.RedeemRequest) (*models.CreditsBalance, error) {
					return nil, tt.err
				},
			}
			h := NewInvitationHandler(svc, nil)

			rec := postRedeem(h, `{"invitation_code":"x","new_user_id":"y"}`)

			assert.Equal(t, tt.wantStatus, rec.Code)
			resp := decodeResponse(t, rec)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestInvitationHandler_Redeem_InvalidBody(t *testing.T) {
	h := NewInvitationHandler(&stubInvitationService{}, nil)

	rec := postRedeem(h, `{not-json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
}

func TestInvitationHandler_Redeem_RateLimited(t *testing.T) {
	svc := &stubInvitationService{
		redeemFn: func(context.Context, *models.RedeemRequest) (*models.CreditsBalance, error) {
			return nil, fmt.Errorf("%w: invitation code not found", pkg.ErrNotFound)
		},
	}
	limiter := ratelimit.New(2, time.Minute)
	defer limiter.Close()
	h := NewInvitationHandler(svc, limiter)

	body := `{"invitation_code":"deneme","new_user_id":"u"}`
	assert.Equal(t, http.StatusNotFound, postRedeem(h, body).Code)
	assert.Equal(t, http.StatusNotFound, postRedeem(h, body).Code)

	rec := postRedeem(h, body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "too many redemption attempts")
}

func TestInvitationHandler_Redeem_SuccessResetsLimiter(t *testing.T) {
	svc := &stubInvitationService{
		redeemFn: func(_ context.Context, req *models.RedeemRequest) (*models.CreditsBalance, error) {
			return &models.CreditsBalance{UserID: req.NewUserID, Credits: 10}, nil
		},
	}
	limiter := ratelimit.New(2, time.Minute)
	defer limiter.Close()
	h := NewInvitationHandler(svc, limiter)

	body := `{"invitation_code":"ok","new_user_id":"u"}`
	for i := 0; i < 5; i++ {
		// Başarılı redemption sayacı sıfırlar — limit hiç dolmaz
		assert.Equal(t, http.StatusOK, postRedeem(h, body).Code)
	}
}

func TestInvitationHandler_Preview(t *testing.T) {
	displayName := "Ayşe K."
	svc := &stubInvitationService{
		previewFn: func(_ context.Context, code string) (*models.InvitationPreview, error) {
			if code != "valid-code" {
				return nil, fmt.Errorf("%w: invitation code not found", pkg.ErrNotFound)
			}
			return &models.InvitationPreview{OwnerUsername: "ayse", OwnerDisplayName: &displayName}, nil
		},
	}
	h := NewInvitationHandler(svc, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/invitations/{code}/preview", h.Preview)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/invitations/valid-code/preview", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ayse", data["owner_username"])

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/invitations/bilinmeyen/preview", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvitationHandler_Create_RequiresUserContext(t *testing.T) {
	h := NewInvitationHandler(&stubInvitationService{}, nil)

	r := httptest.NewRequest(http.MethodPost, "/api/invitations", nil)
	rec := httptest.NewRecorder()
	h.Create(rec, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInvitationHandler_Create(t *testing.T) {
	h := NewInvitationHandler(&stubInvitationService{}, nil)

	r := httptest.NewRequest(http.MethodPost, "/api/invitations", nil)
	ctx := context.WithValue(r.Context(), UserContextKey, &models.User{ID: "user-1", Username: "ayse"})
	rec := httptest.NewRecorder()
	h.Create(rec, r.WithContext(ctx))

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
}
