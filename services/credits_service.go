// Package services — CreditsService: kredi bakiyesi iş mantığı.
//
// Bakiye satırı lazy oluşur: kullanıcının hiç satırı yoksa bakiyesi 0'dır.
// Satır redemption sırasında (welcome kredisi) veya referral ödülüyle doğar.
package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/genails/server/models"
	"github.com/genails/server/pkg"
	"github.com/genails/server/repository"
	"github.com/genails/server/ws"
)

// CreditsService, kredi bakiyesi iş mantığı interface'i.
type CreditsService interface {
	// Balance, kullanıcının güncel bakiyesini döner. Satır yoksa 0 döner.
	Balance(ctx context.Context, userID string) (*models.CreditsBalance, error)

	// Spend, bakiyeden atomik düşüm yapar.
	// Yetersiz bakiye → ErrInsufficientCredits, bakiye değişmez.
	Spend(ctx context.Context, userID string, req *models.SpendCreditsRequest) (*models.CreditsBalance, error)
}

type creditsService struct {
	creditsRepo repository.CreditsRepository
	hub         ws.EventPublisher
}

// NewCreditsService, constructor.
func NewCreditsService(creditsRepo repository.CreditsRepository, hub ws.EventPublisher) CreditsService {
	return &creditsService{
		creditsRepo: creditsRepo,
		hub:         hub,
	}
}

// Balance, kullanıcının bakiyesini döner.
// Hiç redemption yapmamış kullanıcı için satır yoktur — 0 bakiye normaldir,
// hata değildir.
func (s *creditsService) Balance(ctx context.Context, userID string) (*models.CreditsBalance, error) {
	balance, err := s.creditsRepo.GetBalance(ctx, userID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return &models.CreditsBalance{UserID: userID, Credits: 0}, nil
		}
		return nil, err
	}
	return balance, nil
}

// Spend, bakiyeden kredi düşer.
//
// Düşüm tek UPDATE ile koşulludur (credits >= amount) — read-then-write
// yarışı yoktur, eşzamanlı harcamalar bakiyeyi eksiye düşüremez.
func (s *creditsService) Spend(ctx context.Context, userID string, req *models.SpendCreditsRequest) (*models.CreditsBalance, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", pkg.ErrBadRequest, err)
	}

	if err := s.creditsRepo.Spend(ctx, userID, req.Amount); err != nil {
		return nil, err // ErrInsufficientCredits olabilir
	}

	balance, err := s.creditsRepo.GetBalance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance after spend: %w", err)
	}

	log.Printf("[credits] user %s spent %d (%s), balance now %d",
		userID, req.Amount, req.Reason, balance.Credits)

	reason := req.Reason
	if reason == "" {
		reason = "spend"
	}
	if s.hub != nil {
		s.hub.BroadcastToUser(userID, ws.Event{
			Op:   ws.OpCreditsUpdate,
			Data: ws.CreditsUpdateData{Credits: balance.Credits, Reason: reason},
		})
	}

	return balance, nil
}
