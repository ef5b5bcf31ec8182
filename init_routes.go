// Package main — HTTP route registration.
//
// initRoutes, tüm API endpoint'lerini mux'a bağlar.
// Middleware chain helper'ı burada tanımlıdır:
//   - auth: JWT token doğrulaması
package main

import (
	"net/http"
	"strings"

	"github.com/genails/server/config"
	"github.com/genails/server/middleware"
	"github.com/genails/server/pkg"
	"github.com/genails/server/repository"
	"github.com/genails/server/services"
)

// initRoutes, middleware chain'i kurar ve tüm endpoint'leri mux'a bağlar.
//
// Route sıralama kuralı: Literal path'ler parametrik path'lerden ÖNCE tanımlanmalı.
// Örnek: "/api/designs/shared" → "/api/designs/{id}" öncesinde,
// yoksa Go router "shared" kelimesini bir design id olarak yorumlar.
func initRoutes(
	mux *http.ServeMux,
	h *Handlers,
	authService services.AuthService,
	userRepo repository.UserRepository,
	cfg *config.Config,
) {
	// ─── Middleware ───
	authMw := middleware.NewAuthMiddleware(authService, userRepo)

	// ─── Middleware Chain Helper ───
	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(http.HandlerFunc(handler))
	}

	// Health
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		pkg.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Auth
	mux.HandleFunc("POST /api/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)
	mux.HandleFunc("POST /api/auth/refresh", h.Auth.Refresh)
	mux.Handle("POST /api/auth/logout", auth(h.Auth.Logout))

	// User
	mux.Handle("GET /api/users/me", auth(h.Auth.Me))
	mux.Handle("POST /api/users/me/password", auth(h.Auth.ChangePassword))

	// Invitations — preview ve redeem public'tir (davet edilen kişi henüz hesap açmamıştır)
	mux.Handle("POST /api/invitations", auth(h.Invitation.Create))
	mux.Handle("GET /api/invitations", auth(h.Invitation.ListMine))
	mux.HandleFunc("GET /api/invitations/{code}/preview", h.Invitation.Preview)
	mux.Handle("POST /api/invitations/send", auth(h.Invitation.SendEmail))
	mux.HandleFunc("POST /api/invitations/redeem", h.Invitation.Redeem)

	// Credits
	mux.Handle("GET /api/credits", auth(h.Credits.Balance))
	mux.Handle("POST /api/credits/spend", auth(h.Credits.Spend))

	// Designs
	mux.Handle("POST /api/designs", auth(h.Design.Upload))
	mux.Handle("GET /api/designs", auth(h.Design.ListMine))
	mux.HandleFunc("GET /api/designs/shared", h.Design.ListShared)
	mux.Handle("GET /api/designs/{id}", auth(h.Design.Get))
	mux.Handle("PATCH /api/designs/{id}", auth(h.Design.Update))
	mux.Handle("DELETE /api/designs/{id}", auth(h.Design.Delete))

	// Previews
	mux.Handle("POST /api/previews", auth(h.Preview.Start))
	mux.Handle("GET /api/previews/{id}", auth(h.Preview.Get))
	mux.Handle("POST /api/previews/{id}/retry", auth(h.Preview.Retry))

	// Uploads — statik fotoğraf servisi. Alt dizin ve path traversal engellenir.
	fileServer := http.FileServer(http.Dir(cfg.Upload.Dir))
	mux.Handle("GET /api/uploads/", http.StripPrefix("/api/uploads/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.ContainsAny(r.URL.Path, "/\\") {
			http.NotFound(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	})))

	// WebSocket
	mux.HandleFunc("GET /ws", h.WS.HandleConnection)
}
