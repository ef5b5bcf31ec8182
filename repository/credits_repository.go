// Package repository — CreditsRepository interface.
//
// Kredi bakiyesi mutasyonları atomik SQL ifadeleriyle yapılır:
// read-modify-write YOK. InsertBalance yeni satır açar, AddCredits upsert ile
// artırır, Spend koşullu UPDATE ile düşer. Böylece eşzamanlı istekler
// bakiyeyi bozamaz.
package repository

import (
	"context"

	"github.com/genails/server/models"
)

// CreditsRepository, kredi bakiyesi veritabanı işlemleri için interface.
type CreditsRepository interface {
	// GetBalance, kullanıcının bakiyesini döner. Satır yoksa ErrNotFound —
	// çağıran bunu sıfır bakiye olarak yorumlayabilir.
	GetBalance(ctx context.Context, userID string) (*models.CreditsBalance, error)

	// InsertBalance, kullanıcı için yeni bakiye satırı açar (başlangıç grant'ı).
	// Satır zaten varsa ErrAlreadyExists.
	InsertBalance(ctx context.Context, userID string, amount int) error

	// AddCredits, bakiyeye atomik olarak amount ekler.
	// Satır yoksa amount ile oluşturur (upsert).
	AddCredits(ctx context.Context, userID string, amount int) error

	// Spend, bakiyeden atomik olarak amount düşer.
	// Bakiye yetersizse ErrInsufficientCredits döner ve bakiye değişmez.
	Spend(ctx context.Context, userID string, amount int) error
}
