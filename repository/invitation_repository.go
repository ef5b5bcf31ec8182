// Package repository — InvitationRepository interface.
//
// Davet kodları ve redemption ledger kayıtları için soyutlama.
// RecordUse, "kod başına en fazla bir kullanım" kuralının kritik noktasıdır:
// UNIQUE constraint ihlali ErrCodeAlreadyUsed olarak döner.
package repository

import (
	"context"

	"github.com/genails/server/models"
)

// InvitationRepository, davet kodu veritabanı işlemleri için interface.
type InvitationRepository interface {
	// Create, yeni bir davet kodu oluşturur.
	Create(ctx context.Context, invitation *models.Invitation) error

	// GetByCode, belirli bir davet kodunu döner. Kod yoksa ErrNotFound.
	GetByCode(ctx context.Context, code string) (*models.Invitation, error)

	// ListByOwner, kullanıcının ürettiği kodları kullanım durumuyla döner.
	ListByOwner(ctx context.Context, ownerUserID string) ([]models.InvitationWithUse, error)

	// GetUse, kodun redemption kaydını döner. Kayıt yoksa ErrNotFound —
	// yani kod hâlâ kullanılabilir.
	GetUse(ctx context.Context, code string) (*models.InvitationUse, error)

	// RecordUse, redemption kaydını ekler (append-only).
	// Kod daha önce kullanılmışsa ErrCodeAlreadyUsed döner — UNIQUE
	// constraint bu kuralın otoritesidir, çağıranın ön kontrolü değil.
	RecordUse(ctx context.Context, use *models.InvitationUse) error
}
