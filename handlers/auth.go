// Package handlers, HTTP request/response işlemlerini yönetir.
//
// Handler'ın görevi çok basit ve "ince" (thin) olmalı:
// 1. Request body'yi parse et (JSON → struct)
// 2. Service katmanını çağır
// 3. Sonucu HTTP response olarak döndür
//
// Handler ASLA iş mantığı içermez, ASLA doğrudan DB'ye erişmez.
// Tüm akıl service'de, handler sadece köprü.
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

// AuthHandler, auth endpoint'lerini yöneten struct.
type AuthHandler struct {
	authService  services.AuthService
	loginLimiter *ratelimit.Limiter
}

// NewAuthHandler, constructor.
// loginLimiter: Login brute-force koruması. nil ise rate limiting devre dışı kalır.
func NewAuthHandler(authService services.AuthService, loginLimiter *ratelimit.Limiter) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		loginLimiter: loginLimiter,
	}
}

// Register godoc
// POST /api/auth/register
// Body opsiyonel invitation_code taşıyabilir — redemption kayıt içinde çalışır.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tokens, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, tokens)
}

// Login godoc
// POST /api/auth/login
//
// Rate limiting: IP bazlı brute-force koruması.
// Limit aşıldığında 429 Too Many Requests döner; başarılı login sayacı sıfırlar.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ip := ratelimit.ExtractIP(r)
	if h.loginLimiter != nil && !h.loginLimiter.Allow(ip) {
		retryAfter := h.loginLimiter.RetryAfterSeconds(ip)
		w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests,
			fmt.Sprintf("too many login attempts, please try again in %s",
				ratelimit.FormatRetryMessage(retryAfter)))
		return
	}

	var req models.LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tokens, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	// Meşru kullanıcı doğru şifreyi girdiğinde sayaç temizlenir
	if h.loginLimiter != nil {
		h.loginLimiter.Reset(ip)
	}

	pkg.JSON(w, http.StatusOK, tokens)
}

// Refresh godoc
// POST /api/auth/refresh
// Body: { "refresh_token": "..." }
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.RefreshToken == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	tokens, err := h.authService.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, tokens)
}

// Logout godoc
// POST /api/auth/logout
// Body: { "refresh_token": "..." }
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.authService.Logout(r.Context(), req.RefreshToken); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me godoc
// GET /api/users/me
// Auth middleware gerektirir — context'te user bilgisi olur.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	pkg.JSON(w, http.StatusOK, user)
}

// ChangePassword godoc
// POST /api/users/me/password
// Body: { "current_password": "...", "new_password": "..." }
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "current_password and new_password are required")
		return
	}

	if err := h.authService.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}

// UserContextKey, context'te kullanıcı bilgisi taşımak için kullanılan key tipi.
//
// Go'da context.Value() any tip kabul eder — string key kullanmak çakışmaya
// neden olabilir. Özel bir tip namespace collision'ı önler.
type contextKey string

const UserContextKey contextKey = "user"
