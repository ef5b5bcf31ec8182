package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/genails/server/models"
	"github.com/genails/server/pkg"
	"github.com/genails/server/services"
)

// PreviewHandler, AI preview job endpoint'lerini yöneten struct.
type PreviewHandler struct {
	previewService services.PreviewService
}

// NewPreviewHandler, constructor.
func NewPreviewHandler(previewService services.PreviewService) *PreviewHandler {
	return &PreviewHandler{previewService: previewService}
}

// Start godoc
// POST /api/previews
// Auth gerektirir. Body: { "design_id": "...", "prompt"?: "..." }
// 1 kredi düşer; yetersiz bakiye → 402.
func (h *PreviewHandler) Start(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.StartPreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, err := h.previewService.Start(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, status)
}

// Get godoc
// GET /api/previews/{id}
// WS bağlantısı olmayan client'lar için polling endpoint'i.
func (h *PreviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	status, err := h.previewService.Get(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, status)
}

// Retry godoc
// POST /api/previews/{id}/retry
// Terminal hatadaki job'ı ücretsiz yeniden dener.
func (h *PreviewHandler) Retry(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	status, err := h.previewService.Retry(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, status)
}
