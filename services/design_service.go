// Package services — DesignService: tırnak tasarımı iş mantığı.
//
// Tasarım yaşam döngüsü: fotoğraf upload → (opsiyonel) AI preview →
// paylaşım toggle'ı → public galeri. Preview üretimi PreviewService'in
// işidir; burada yalnızca tasarım kaydı ve dosya yönetimi yapılır.
package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/genails/server/models"
	"github.com/genails/server/pkg"
	"github.com/genails/server/repository"
	"github.com/genails/server/ws"
)

// DesignService, tırnak tasarımı iş mantığı interface'i.
type DesignService interface {
	// UploadPhoto, el fotoğrafını diske kaydeder ve yeni tasarım oluşturur.
	UploadPhoto(ctx context.Context, userID string, file multipart.File, header *multipart.FileHeader) (*models.Design, error)

	// Get, tek bir tasarımı döner. Paylaşılmamış tasarımı sadece sahibi görebilir.
	Get(ctx context.Context, userID, designID string) (*models.Design, error)

	// ListMine, kullanıcının tüm tasarımlarını döner.
	ListMine(ctx context.Context, userID string) ([]models.Design, error)

	// ListShared, public galerideki tasarımları döner.
	ListShared(ctx context.Context, limit int) ([]models.Design, error)

	// Update, prompt ve paylaşım durumunu günceller (sadece sahibi).
	Update(ctx context.Context, userID, designID string, req *models.UpdateDesignRequest) (*models.Design, error)

	// Delete, tasarımı ve diskteki fotoğrafını siler (sadece sahibi).
	Delete(ctx context.Context, userID, designID string) error
}

type designService struct {
	designRepo repository.DesignRepository
	hub        ws.EventPublisher
	uploadDir  string
	maxSize    int64
}

// NewDesignService, constructor.
func NewDesignService(
	designRepo repository.DesignRepository,
	hub ws.EventPublisher,
	uploadDir string,
	maxSize int64,
) DesignService {
	return &designService{
		designRepo: designRepo,
		hub:        hub,
		uploadDir:  uploadDir,
		maxSize:    maxSize,
	}
}

// allowedImageTypes, fotoğraf yüklemeye izin verilen MIME türleri.
// Tırnak fotoğrafı her zaman görseldir — video/pdf kabul edilmez.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/heic": true,
}

// UploadPhoto, fotoğrafı doğrular, diske kaydeder ve tasarım kaydı oluşturur.
func (s *designService) UploadPhoto(ctx context.Context, userID string, file multipart.File, header *multipart.FileHeader) (*models.Design, error) {
	// Boyut kontrolü
	if header.Size > s.maxSize {
		return nil, fmt.Errorf("%w: file too large (max %dMB)", pkg.ErrBadRequest, s.maxSize/(1024*1024))
	}

	// MIME type kontrolü — sadece base type (charset vb. parametre olabilir)
	contentType := header.Header.Get("Content-Type")
	mimeBase := strings.TrimSpace(strings.Split(contentType, ";")[0])

	if !allowedImageTypes[mimeBase] {
		return nil, fmt.Errorf("%w: file type not allowed: %s", pkg.ErrBadRequest, mimeBase)
	}

	// Unique dosya adı — çakışma ve güvenlik için {random_hex}_{original}
	randomBytes := make([]byte, 8)
	if _, err := rand.Read(randomBytes); err != nil {
		return nil, fmt.Errorf("failed to generate random filename: %w", err)
	}
	diskFilename := hex.EncodeToString(randomBytes) + "_" + sanitizeFilename(header.Filename)

	destPath := filepath.Join(s.uploadDir, diskFilename)
	destFile, err := os.Create(destPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, file); err != nil {
		os.Remove(destPath)
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	design := &models.Design{
		ID:       uuid.NewString(),
		UserID:   userID,
		PhotoURL: "/api/uploads/" + diskFilename,
	}

	if err := s.designRepo.Create(ctx, design); err != nil {
		os.Remove(destPath) // Hata durumunda dosyayı temizle
		return nil, fmt.Errorf("failed to create design record: %w", err)
	}

	log.Printf("[design] user %s uploaded photo, design %s", userID, design.ID)
	return design, nil
}

// Get, tek bir tasarımı döner.
// Paylaşılmamış tasarım için sahiplik kontrolü yapılır — başkasının
// private tasarımı 404 döner (varlığı bile açık edilmez).
func (s *designService) Get(ctx context.Context, userID, designID string) (*models.Design, error) {
	design, err := s.designRepo.GetByID(ctx, designID)
	if err != nil {
		return nil, err
	}

	if !design.Shared && design.UserID != userID {
		return nil, pkg.ErrNotFound
	}

	return design, nil
}

// ListMine, kullanıcının tasarımlarını döner.
func (s *designService) ListMine(ctx context.Context, userID string) ([]models.Design, error) {
	designs, err := s.designRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if designs == nil {
		designs = []models.Design{}
	}
	return designs, nil
}

// ListShared, public galeriyi döner.
func (s *designService) ListShared(ctx context.Context, limit int) ([]models.Design, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	designs, err := s.designRepo.ListShared(ctx, limit)
	if err != nil {
		return nil, err
	}
	if designs == nil {
		designs = []models.Design{}
	}
	return designs, nil
}

// Update, prompt ve paylaşım durumunu günceller.
func (s *designService) Update(ctx context.Context, userID, designID string, req *models.UpdateDesignRequest) (*models.Design, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", pkg.ErrBadRequest, err)
	}

	design, err := s.designRepo.GetByID(ctx, designID)
	if err != nil {
		return nil, err
	}

	if design.UserID != userID {
		return nil, fmt.Errorf("%w: design belongs to another user", pkg.ErrForbidden)
	}

	wasShared := design.Shared

	if req.Prompt != nil {
		design.Prompt = req.Prompt
	}
	if req.Shared != nil {
		design.Shared = *req.Shared
	}

	if err := s.designRepo.Update(ctx, design); err != nil {
		return nil, err
	}

	// Paylaşım durumu değiştiyse galeri görünümündeki client'ları bilgilendir
	if s.hub != nil && design.Shared != wasShared {
		s.hub.BroadcastToAll(ws.Event{
			Op:   ws.OpDesignShare,
			Data: ws.DesignShareData{DesignID: design.ID, Shared: design.Shared},
		})
	}

	return design, nil
}

// Delete, tasarımı ve diskteki fotoğrafını siler.
func (s *designService) Delete(ctx context.Context, userID, designID string) error {
	design, err := s.designRepo.GetByID(ctx, designID)
	if err != nil {
		return err
	}

	if design.UserID != userID {
		return fmt.Errorf("%w: design belongs to another user", pkg.ErrForbidden)
	}

	if err := s.designRepo.Delete(ctx, designID); err != nil {
		return err
	}

	// DB kaydı gitti — diskteki dosya best-effort temizlenir
	if filename, ok := strings.CutPrefix(design.PhotoURL, "/api/uploads/"); ok {
		if err := os.Remove(filepath.Join(s.uploadDir, filename)); err != nil && !os.IsNotExist(err) {
			log.Printf("[design] failed to remove photo file for %s: %v", designID, err)
		}
	}

	return nil
}

// sanitizeFilename, dosya adını güvenli hale getirir.
// Path traversal saldırılarını önler (../../etc/passwd gibi).
func sanitizeFilename(name string) string {
	name = filepath.Base(name)

	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == '\x00' {
			return -1
		}
		return r
	}, name)

	if name == "" || name == "." || name == ".." {
		name = "unnamed"
	}

	return name
}
