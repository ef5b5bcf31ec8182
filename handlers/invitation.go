package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/genails/server/models"
	"github.com/genails/server/pkg"
	"github.com/genails/server/pkg/ratelimit"
	"github.com/genails/server/services"
)

// InvitationHandler, davet endpoint'lerini yöneten struct.
type InvitationHandler struct {
	invitationService services.InvitationService
	redeemLimiter     *ratelimit.Limiter
}

// NewInvitationHandler, constructor.
// redeemLimiter: Kod enumeration koruması — redemption endpoint'i public'tir,
// rastgele kod deneyen IP'ler sınırlandırılır. nil ise devre dışı.
func NewInvitationHandler(invitationService services.InvitationService, redeemLimiter *ratelimit.Limiter) *InvitationHandler {
	return &InvitationHandler{
		invitationService: invitationService,
		redeemLimiter:     redeemLimiter,
	}
}

// Create godoc
// POST /api/invitations
// Auth gerektirir. Kullanıcı için yeni tek kullanımlık kod üretir.
func (h *InvitationHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	invitation, err := h.invitationService.Create(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, invitation)
}

// ListMine godoc
// GET /api/invitations
// Auth gerektirir. Kullanıcının kodlarını kullanım durumuyla döner.
func (h *InvitationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	invitations, err := h.invitationService.ListMine(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, invitations)
}

// Preview godoc
// GET /api/invitations/{code}/preview
// Public — redeem landing page davet sahibinin adını gösterir.
func (h *InvitationHandler) Preview(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	preview, err := h.invitationService.Preview(r.Context(), code)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, preview)
}

// SendEmail godoc
// POST /api/invitations/send
// Auth gerektirir. Body: { "code": "...", "email": "..." }
func (h *InvitationHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.SendInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.invitationService.SendEmail(r.Context(), user.ID, &req); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "invitation sent"})
}

// Redeem godoc
// POST /api/invitations/redeem
// Public (auth gerektirmez — yeni kullanıcının henüz token'ı olmayabilir).
// Body: { "invitation_code": "...", "new_user_id": "..." }
//
// Status mapping: geçersiz istek → 400, bilinmeyen kod → 404,
// kullanılmış kod → 409, başarı → 200 + yeni bakiye.
func (h *InvitationHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	ip := ratelimit.ExtractIP(r)
	if h.redeemLimiter != nil && !h.redeemLimiter.Allow(ip) {
		retryAfter := h.redeemLimiter.RetryAfterSeconds(ip)
		w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests,
			fmt.Sprintf("too many redemption attempts, please try again in %s",
				ratelimit.FormatRetryMessage(retryAfter)))
		return
	}

	var req models.RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	balance, err := h.invitationService.Redeem(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	// Geçerli kod kullanan IP meşrudur — sayacı sıfırla
	if h.redeemLimiter != nil {
		h.redeemLimiter.Reset(ip)
	}

	pkg.JSON(w, http.StatusOK, balance)
}
