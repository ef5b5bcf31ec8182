// Package repository, veritabanı erişim katmanını tanımlar.
//
// Repository Pattern: veritabanı işlemlerini (CRUD) soyutlayan katman.
// Service katmanı doğrudan SQL yazmaz — repository interface'i üzerinden çalışır.
//
// Neden interface?
// 1. Test: mock repository ile DB olmadan test edilebilir
// 2. Esneklik: SQLite'tan başka store'a geçiş sadece yeni implementasyon ister
// 3. Dependency Inversion: service concrete struct'a değil interface'e bağımlı
package repository

import (
	"context"

	"github.com/genails/server/models"
)

// UserRepository, kullanıcı veritabanı işlemleri için interface.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// UpdatePassword, kullanıcının şifre hash'ini günceller.
	UpdatePassword(ctx context.Context, userID string, newPasswordHash string) error
	Count(ctx context.Context) (int, error)
}
