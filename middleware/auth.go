// Package middleware, HTTP request pipeline'ına eklenen ara katmanları barındırır.
//
// Go'da middleware bir fonksiyondur:
//
//	func(next http.Handler) http.Handler
//
// Middleware kendi işini yapar (ör: token doğrula), sonra next'i çağırır.
// Hata varsa next çağrılmaz — request burada durur.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/genails/server/handlers"
	"github.com/genails/server/pkg"
	"github.com/genails/server/repository"
	"github.com/genails/server/services"
)

// AuthMiddleware, JWT token doğrulama middleware'ı.
type AuthMiddleware struct {
	authService services.AuthService
	userRepo    repository.UserRepository
}

// NewAuthMiddleware, constructor.
func NewAuthMiddleware(authService services.AuthService, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		userRepo:    userRepo,
	}
}

// Require, JWT token zorunlu kılan middleware.
// Token yoksa veya geçersizse → 401 Unauthorized.
//
// HTTP header formatı: Authorization: Bearer <token>
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "authorization header required")
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "invalid authorization format, use: Bearer <token>")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := m.authService.ValidateAccessToken(tokenString)
		if err != nil {
			pkg.Error(w, err)
			return
		}

		// Token geçerli ama kullanıcı silinmiş olabilir — DB'den doğrula
		user, err := m.userRepo.GetByID(r.Context(), claims.UserID)
		if err != nil {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found")
			return
		}

		// Password hash'i temizle — context'te taşınmamalı
		user.PasswordHash = ""

		ctx := context.WithValue(r.Context(), handlers.UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
