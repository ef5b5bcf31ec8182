package repository

import (
	"context"

	"github.com/genails/server/models"
)

// SessionRepository, refresh token oturumları için interface.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByRefreshToken(ctx context.Context, refreshToken string) (*models.Session, error)
	DeleteByID(ctx context.Context, id string) error
	// DeleteExpired, süresi dolmuş tüm oturumları siler (periyodik temizlik).
	DeleteExpired(ctx context.Context) (int64, error)
}
