package repository

import (
	"context"

	"github.com/genails/server/models"
)

// DesignRepository, tırnak tasarımı veritabanı işlemleri için interface.
type DesignRepository interface {
	Create(ctx context.Context, design *models.Design) error
	GetByID(ctx context.Context, id string) (*models.Design, error)
	ListByUser(ctx context.Context, userID string) ([]models.Design, error)
	// ListShared, public galeride görünen tasarımları döner (en yeni önce).
	ListShared(ctx context.Context, limit int) ([]models.Design, error)
	// SetPreviewURL, AI generator'ın ürettiği preview URL'ini kaydeder.
	SetPreviewURL(ctx context.Context, id string, previewURL string) error
	Update(ctx context.Context, design *models.Design) error
	Delete(ctx context.Context, id string) error
}
