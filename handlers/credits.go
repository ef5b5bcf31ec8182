package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/genails/server/models"
	"github.com/genails/server/pkg"
	"github.com/genails/server/services"
)

// CreditsHandler, kredi endpoint'lerini yöneten struct.
type CreditsHandler struct {
	creditsService services.CreditsService
}

// NewCreditsHandler, constructor.
func NewCreditsHandler(creditsService services.CreditsService) *CreditsHandler {
	return &CreditsHandler{creditsService: creditsService}
}

// Balance godoc
// GET /api/credits
// Auth gerektirir. Satırı olmayan kullanıcı için 0 bakiye döner.
func (h *CreditsHandler) Balance(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	balance, err := h.creditsService.Balance(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, balance)
}

// Spend godoc
// POST /api/credits/spend
// Auth gerektirir. Body: { "amount": n, "reason": "..." }
// Yetersiz bakiye → 402 Payment Required, bakiye değişmez.
func (h *CreditsHandler) Spend(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.SpendCreditsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	balance, err := h.creditsService.Spend(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, balance)
}
