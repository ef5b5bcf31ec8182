// Package main — Handler katmanı başlatma.
//
// initHandlers, tüm HTTP handler'larını oluşturur.
// Her handler, ihtiyaç duyduğu service interface'lerini constructor'dan alır.
// Handler'lar "thin" dir — sadece HTTP parse + service call + response write.
package main

import (
	"github.com/genails/server/config"
	"github.com/genails/server/handlers"
	"github.com/genails/server/ws"
)

// Handlers, tüm handler instance'larını tutan container struct.
type Handlers struct {
	Auth       *handlers.AuthHandler
	Invitation *handlers.InvitationHandler
	Credits    *handlers.CreditsHandler
	Design     *handlers.DesignHandler
	Preview    *handlers.PreviewHandler
	WS         *ws.Handler
}

// initHandlers, tüm handler'ları service ve rate limiter dependency'leri ile oluşturur.
func initHandlers(svcs *Services, limiters *RateLimiters, hub *ws.Hub, cfg *config.Config) *Handlers {
	return &Handlers{
		Auth:       handlers.NewAuthHandler(svcs.Auth, limiters.Login),
		Invitation: handlers.NewInvitationHandler(svcs.Invitation, limiters.Redeem),
		Credits:    handlers.NewCreditsHandler(svcs.Credits),
		Design:     handlers.NewDesignHandler(svcs.Design, cfg.Upload.MaxSize),
		Preview:    handlers.NewPreviewHandler(svcs.Preview),
		WS:         ws.NewHandler(hub, svcs.Auth),
	}
}
