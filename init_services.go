// Package main — Service katmanı başlatma.
//
// initServices, tüm service implementasyonlarını oluşturur.
// Her service, ihtiyaç duyduğu repository interface'lerini ve diğer
// dependency'leri constructor injection ile alır.
//
// Sıralama kuralı: invitationService → authService'den ÖNCE
// (Register opsiyonel davet kodunu invitationService üzerinden redeem eder).
package main

import (
	"database/sql"
	"log"
	"time"

	"github.com/genails/server/config"
	"github.com/genails/server/models"
	"github.com/genails/server/pkg/cache"
	"github.com/genails/server/pkg/email"
	"github.com/genails/server/pkg/imageloader"
	"github.com/genails/server/pkg/ratelimit"
	"github.com/genails/server/services"
	"github.com/genails/server/ws"
)

// Services, tüm service instance'larını tutan container struct.
type Services struct {
	Auth       services.AuthService
	Invitation services.InvitationService
	Credits    services.CreditsService
	Design     services.DesignService
	Preview    services.PreviewService
}

// RateLimiters, tüm rate limiter instance'larını tutan container.
type RateLimiters struct {
	Login  *ratelimit.Limiter
	Redeem *ratelimit.Limiter
}

// initServices, tüm service'leri ve rate limiter'ları oluşturur.
func initServices(db *sql.DB, repos *Repositories, hub ws.EventPublisher, cfg *config.Config) (*Services, *RateLimiters) {
	// ─── Email service (opsiyonel) ───
	var emailSender email.EmailSender
	if cfg.Email.ResendAPIKey != "" && cfg.Email.FromEmail != "" && cfg.Email.AppURL != "" {
		emailSender = email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.FromEmail, cfg.Email.AppURL)
		log.Printf("[main] email service enabled (from=%s)", cfg.Email.FromEmail)
	} else {
		log.Println("[main] email service disabled (RESEND_API_KEY / RESEND_FROM / APP_URL not fully set)")
	}

	// Davetin public landing page cache'i — 30sn TTL yeterli,
	// redemption sonrası entry zaten invalidate edilir.
	previewCache := cache.New[string, models.InvitationPreview](30*time.Second, 5*time.Minute)

	invitationService := services.NewInvitationService(
		db,
		repos.Invitation,
		repos.User,
		repos.Credits,
		previewCache,
		emailSender,
		hub,
		cfg.Credits.WelcomeAmount,
		cfg.Credits.ReferralReward,
	)

	authService := services.NewAuthService(
		repos.User,
		repos.Session,
		invitationService,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	creditsService := services.NewCreditsService(repos.Credits, hub)
	designService := services.NewDesignService(repos.Design, hub, cfg.Upload.Dir, cfg.Upload.MaxSize)

	loaderCfg := imageloader.Config{
		MaxRetries: cfg.Preview.MaxRetries,
		BaseDelay:  time.Duration(cfg.Preview.RetryBaseMS) * time.Millisecond,
		Timeout:    time.Duration(cfg.Preview.ProbeTimeoutMS) * time.Millisecond,
	}
	previewService := services.NewPreviewService(
		repos.Design,
		creditsService,
		services.NewStaticGenerator(cfg.Preview.GeneratorBaseURL),
		hub,
		loaderCfg,
		nil, // loader kendi HTTP client'ını kurar
	)

	limiters := &RateLimiters{
		// Login: 2 dakikada 5 deneme — brute-force koruması
		Login: ratelimit.New(5, 2*time.Minute),
		// Redemption: 5 dakikada 10 deneme — kod enumeration koruması
		Redeem: ratelimit.New(10, 5*time.Minute),
	}

	return &Services{
		Auth:       authService,
		Invitation: invitationService,
		Credits:    creditsService,
		Design:     designService,
		Preview:    previewService,
	}, limiters
}
