package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/genails/server/models"
	"github.com/genails/server/pkg"
	"github.com/genails/server/services"
)

// DesignHandler, tasarım endpoint'lerini yöneten struct.
type DesignHandler struct {
	designService services.DesignService
	maxUploadSize int64
}

// NewDesignHandler, constructor.
func NewDesignHandler(designService services.DesignService, maxUploadSize int64) *DesignHandler {
	return &DesignHandler{
		designService: designService,
		maxUploadSize: maxUploadSize,
	}
}

// Upload godoc
// POST /api/designs
// Auth gerektirir. multipart/form-data, field adı: "photo".
func (h *DesignHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	// Form parse limiti — boyut asıl kontrolü service'te yapılır ama
	// belleğe bundan fazlası hiç alınmaz
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid multipart form or file too large")
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "photo file is required")
		return
	}
	defer file.Close()

	design, err := h.designService.UploadPhoto(r.Context(), user.ID, file, header)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, design)
}

// Get godoc
// GET /api/designs/{id}
func (h *DesignHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	design, err := h.designService.Get(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, design)
}

// ListMine godoc
// GET /api/designs
func (h *DesignHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	designs, err := h.designService.ListMine(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, designs)
}

// ListShared godoc
// GET /api/designs/shared?limit=n
// Public galeri — auth gerektirmez.
func (h *DesignHandler) ListShared(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	designs, err := h.designService.ListShared(r.Context(), limit)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, designs)
}

// Update godoc
// PATCH /api/designs/{id}
// Body: { "prompt"?: "...", "shared"?: bool }
func (h *DesignHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.UpdateDesignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	design, err := h.designService.Update(r.Context(), user.ID, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, design)
}

// Delete godoc
// DELETE /api/designs/{id}
func (h *DesignHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	if err := h.designService.Delete(r.Context(), user.ID, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "design deleted"})
}
