// Package services, business logic katmanını barındırır.
//
// Handler (HTTP) ile Repository (DB) arasında oturan katmandır.
// Tüm iş kuralları burada yaşar: davet redemption ledger'ı, kredi
// hesapları, preview job yönetimi, şifre hash'leme, JWT üretimi.
//
// Service ASLA http.Request/Response bilmez — sadece domain modelleri alır/verir.
// Service ASLA doğrudan SQL çalıştırmaz — Repository interface'i kullanır.
// Tek istisna: InvitationService, redemption'ın üç bağımlı yazmasını tek
// transaction'a sarabilmek için *sql.DB tutar ve tx-scoped repository'ler kurar.
package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log"

	"github.com/genails/server/database"
	"github.com/genails/server/models"
	"github.com/genails/server/pkg"
	"github.com/genails/server/pkg/cache"
	"github.com/genails/server/pkg/email"
	"github.com/genails/server/repository"
	"github.com/genails/server/ws"
)

// InvitationService, davet kodu iş mantığı interface'i.
type InvitationService interface {
	// Create, kullanıcı için yeni bir tek kullanımlık davet kodu oluşturur.
	Create(ctx context.Context, ownerUserID string) (*models.Invitation, error)

	// ListMine, kullanıcının kodlarını kullanım bilgisiyle döner.
	ListMine(ctx context.Context, ownerUserID string) ([]models.InvitationWithUse, error)

	// Preview, redeem landing page'i için davet sahibinin görünen adını döner.
	// Auth gerektirmez; sonuç TTL cache'lenir.
	Preview(ctx context.Context, code string) (*models.InvitationPreview, error)

	// SendEmail, davet kodunu email ile gönderir. Kod çağırana ait olmalı
	// ve henüz kullanılmamış olmalıdır.
	SendEmail(ctx context.Context, ownerUserID string, req *models.SendInvitationRequest) error

	// CheckRedeemable, kodu yazma yapmadan doğrular: var mı, kullanılmamış mı.
	// Register akışı kullanıcıyı oluşturmadan ÖNCE çağırır.
	CheckRedeemable(ctx context.Context, code string) error

	// Redeem, davet kodunu kullanır ve kredi ledger'ını işler.
	// Başarıda yeni kullanıcının güncel bakiyesini döner.
	Redeem(ctx context.Context, req *models.RedeemRequest) (*models.CreditsBalance, error)
}

type invitationService struct {
	db             *sql.DB
	invitationRepo repository.InvitationRepository
	userRepo       repository.UserRepository
	creditsRepo    repository.CreditsRepository
	previewCache   *cache.TTLCache[string, models.InvitationPreview]
	emailSender    email.EmailSender
	hub            ws.EventPublisher
	welcomeAmount  int
	referralReward int
}

// NewInvitationService, constructor.
//
// db: redemption transaction'ı için ham bağlantı — repository'ler normal
// akışta kullanılır, Redeem içinde tx-scoped kopyaları kurulur.
// emailSender nil olabilir (RESEND_API_KEY konfigüre edilmemişse) —
// bu durumda SendEmail hata döner, diğer operasyonlar etkilenmez.
func NewInvitationService(
	db *sql.DB,
	invitationRepo repository.InvitationRepository,
	userRepo repository.UserRepository,
	creditsRepo repository.CreditsRepository,
	previewCache *cache.TTLCache[string, models.InvitationPreview],
	emailSender email.EmailSender,
	hub ws.EventPublisher,
	welcomeAmount int,
	referralReward int,
) InvitationService {
	return &invitationService{
		db:             db,
		invitationRepo: invitationRepo,
		userRepo:       userRepo,
		creditsRepo:    creditsRepo,
		previewCache:   previewCache,
		emailSender:    emailSender,
		hub:            hub,
		welcomeAmount:  welcomeAmount,
		referralReward: referralReward,
	}
}

// Create, yeni bir davet kodu oluşturur.
//
// Kod üretimi: crypto/rand ile 8 byte → 16 hex karakter.
// Kriptografik rastgelelik kodların tahmin edilemez olmasını sağlar —
// redemption endpoint'i public olduğu için bu önemlidir.
func (s *invitationService) Create(ctx context.Context, ownerUserID string) (*models.Invitation, error) {
	codeBytes := make([]byte, 8)
	if _, err := rand.Read(codeBytes); err != nil {
		return nil, fmt.Errorf("failed to generate invitation code: %w", err)
	}

	invitation := &models.Invitation{
		Code:        hex.EncodeToString(codeBytes),
		OwnerUserID: ownerUserID,
	}

	if err := s.invitationRepo.Create(ctx, invitation); err != nil {
		return nil, err
	}

	return invitation, nil
}

// ListMine, kullanıcının davet kodlarını döner.
func (s *invitationService) ListMine(ctx context.Context, ownerUserID string) ([]models.InvitationWithUse, error) {
	invitations, err := s.invitationRepo.ListByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}

	// nil slice yerine boş slice döndür (JSON'da [] olması için, null değil)
	if invitations == nil {
		invitations = []models.InvitationWithUse{}
	}

	return invitations, nil
}

// Preview, davet sahibinin görünen adını döner (public landing page için).
//
// Public endpoint olduğu için TTL cache ile korunur — aynı kod için
// art arda gelen istekler DB'ye inmez.
func (s *invitationService) Preview(ctx context.Context, code string) (*models.InvitationPreview, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: invitation code is required", pkg.ErrBadRequest)
	}

	if cached, ok := s.previewCache.Get(code); ok {
		return &cached, nil
	}

	invitation, err := s.invitationRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: invitation code not found", pkg.ErrNotFound)
		}
		return nil, err
	}

	owner, err := s.userRepo.GetByID(ctx, invitation.OwnerUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation owner: %w", err)
	}

	preview := models.InvitationPreview{
		OwnerUsername:    owner.Username,
		OwnerDisplayName: owner.DisplayName,
	}
	s.previewCache.Set(code, preview)

	return &preview, nil
}

// SendEmail, davet kodunu email ile gönderir.
func (s *invitationService) SendEmail(ctx context.Context, ownerUserID string, req *models.SendInvitationRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %v", pkg.ErrBadRequest, err)
	}

	if s.emailSender == nil {
		return fmt.Errorf("%w: email delivery is not configured", pkg.ErrInternal)
	}

	invitation, err := s.invitationRepo.GetByCode(ctx, req.Code)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return fmt.Errorf("%w: invitation code not found", pkg.ErrNotFound)
		}
		return err
	}

	// Başkasının kodunu gönderemezsin
	if invitation.OwnerUserID != ownerUserID {
		return fmt.Errorf("%w: invitation belongs to another user", pkg.ErrForbidden)
	}

	// Kullanılmış kodu göndermenin anlamı yok
	if _, err := s.invitationRepo.GetUse(ctx, req.Code); err == nil {
		return fmt.Errorf("%w: cannot send a used invitation", pkg.ErrCodeAlreadyUsed)
	} else if !errors.Is(err, pkg.ErrNotFound) {
		return err
	}

	owner, err := s.userRepo.GetByID(ctx, ownerUserID)
	if err != nil {
		return fmt.Errorf("failed to get invitation owner: %w", err)
	}

	inviterName := owner.Username
	if owner.DisplayName != nil && *owner.DisplayName != "" {
		inviterName = *owner.DisplayName
	}

	if err := s.emailSender.SendInvitation(ctx, req.Email, inviterName, req.Code); err != nil {
		return err
	}

	log.Printf("[invitation] code %s emailed by user %s", req.Code, ownerUserID)
	return nil
}

// CheckRedeemable, kodu yazma yapmadan doğrular.
func (s *invitationService) CheckRedeemable(ctx context.Context, code string) error {
	if code == "" {
		return fmt.Errorf("%w: invitation code is required", pkg.ErrBadRequest)
	}

	if _, err := s.invitationRepo.GetByCode(ctx, code); err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return fmt.Errorf("%w: invitation code not found", pkg.ErrNotFound)
		}
		return err
	}

	if _, err := s.invitationRepo.GetUse(ctx, code); err == nil {
		return fmt.Errorf("%w", pkg.ErrCodeAlreadyUsed)
	} else if !errors.Is(err, pkg.ErrNotFound) {
		return err
	}

	return nil
}

// Redeem, davet kodunu kullanır ve kredi ledger'ını işler.
//
// Akış:
// 1. Request validasyonu → ErrBadRequest
// 2. Kod lookup → ErrNotFound
// 3. Yeni kullanıcı var mı → ErrNotFound
// 4. Idempotency ön kontrolü → ErrCodeAlreadyUsed
// 5. TEK transaction içinde üç bağımlı yazma:
//    a. invitation_uses kaydı (UNIQUE constraint — eşzamanlı redemption'da
//       yalnızca biri kazanır, kaybeden ErrCodeAlreadyUsed alır)
//    b. Yeni kullanıcının bakiye satırı (welcome kredisi)
//    c. Davet sahibinin bakiyesine referral ödülü (upsert artırma)
//    Herhangi biri başarısız olursa hepsi geri alınır — yarım ledger yok.
// 6. Commit sonrası her iki tarafa credits_update broadcast edilir.
//
// Ön kontrol (4) yarışabilir; otorite transaction içindeki constraint'tir (5a).
func (s *invitationService) Redeem(ctx context.Context, req *models.RedeemRequest) (*models.CreditsBalance, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", pkg.ErrBadRequest, err)
	}

	invitation, err := s.invitationRepo.GetByCode(ctx, req.InvitationCode)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: invitation code not found", pkg.ErrNotFound)
		}
		return nil, err
	}

	if _, err := s.userRepo.GetByID(ctx, req.NewUserID); err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: user not found", pkg.ErrNotFound)
		}
		return nil, err
	}

	// Kendi davetini kullanmak kredi farmingi olur
	if invitation.OwnerUserID == req.NewUserID {
		return nil, fmt.Errorf("%w: cannot redeem your own invitation", pkg.ErrBadRequest)
	}

	// Idempotency ön kontrolü — yaygın durumda (kod çoktan kullanılmış)
	// transaction başlatmadan temiz hata döner.
	if _, err := s.invitationRepo.GetUse(ctx, req.InvitationCode); err == nil {
		return nil, fmt.Errorf("%w", pkg.ErrCodeAlreadyUsed)
	} else if !errors.Is(err, pkg.ErrNotFound) {
		return nil, err
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		txInvitations := repository.NewSQLiteInvitationRepo(tx)
		txCredits := repository.NewSQLiteCreditsRepo(tx)

		use := &models.InvitationUse{
			InvitationCode: req.InvitationCode,
			UsedByUserID:   req.NewUserID,
			ReferrerUserID: invitation.OwnerUserID,
		}
		if err := txInvitations.RecordUse(ctx, use); err != nil {
			return err // UNIQUE ihlali → ErrCodeAlreadyUsed
		}

		if err := txCredits.InsertBalance(ctx, req.NewUserID, s.welcomeAmount); err != nil {
			if errors.Is(err, pkg.ErrAlreadyExists) {
				// Bakiyesi olan kullanıcı ikinci bir davet kullanamaz
				return fmt.Errorf("%w: user has already redeemed an invitation", pkg.ErrCodeAlreadyUsed)
			}
			return err
		}

		return txCredits.AddCredits(ctx, invitation.OwnerUserID, s.referralReward)
	})
	if err != nil {
		return nil, err
	}

	// Kullanım durumu değişti — landing page cache'i bayat
	s.previewCache.Delete(req.InvitationCode)

	log.Printf("[invitation] code %s redeemed by user %s (referrer %s)",
		req.InvitationCode, req.NewUserID, invitation.OwnerUserID)

	balance, err := s.creditsRepo.GetBalance(ctx, req.NewUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to read new balance: %w", err)
	}

	s.broadcastCredits(ctx, req.NewUserID, balance.Credits, "welcome")
	if referrerBalance, err := s.creditsRepo.GetBalance(ctx, invitation.OwnerUserID); err == nil {
		s.broadcastCredits(ctx, invitation.OwnerUserID, referrerBalance.Credits, "referral_reward")
	}

	return balance, nil
}

// broadcastCredits, kredi değişikliğini kullanıcının tüm bağlantılarına iletir.
func (s *invitationService) broadcastCredits(_ context.Context, userID string, credits int, reason string) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToUser(userID, ws.Event{
		Op:   ws.OpCreditsUpdate,
		Data: ws.CreditsUpdateData{Credits: credits, Reason: reason},
	})
}
