// Package services — PreviewService: AI preview job yönetimi.
//
// Akış:
// 1. Start: tasarım sahipliği doğrulanır, 1 kredi düşülür, generator'dan
//    preview URL'i alınır, tasarıma yazılır ve image loader gözlemeye başlar.
// 2. Loader her state geçişinde (loaded/errored/retry) job sahibine
//    preview_status event'i push eder — client polling yapmak zorunda değildir.
// 3. Terminal hatada Retry ile (kredi harcamadan) aynı URL yeniden denenir.
//
// Generator bir interface'tir: production'da gerçek AI servisine HTTP çağrısı
// yapan bir implementasyon takılır; şimdilik deterministik URL üreten stub var.
package services

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/genails/server/models"
	"github.com/genails/server/pkg"
	"github.com/genails/server/pkg/cache"
	"github.com/genails/server/pkg/imageloader"
	"github.com/genails/server/repository"
	"github.com/genails/server/ws"
)

// Job registry TTL'i: tamamlanan veya terk edilen job'lar bu süre sonunda
// bellekteki registry'den düşer. Terminal job'ın timer'ı kalmaz — düşürmek güvenlidir.
const (
	jobTTL             = 2 * time.Hour
	jobCleanupInterval = 10 * time.Minute
)

// PreviewGenerator, AI preview üretimini soyutlar.
// Dönen URL uzak bir görseldir; erişilebilirliği garanti DEĞİLDİR —
// image loader'ın var olma sebebi budur.
type PreviewGenerator interface {
	GeneratePreviewURL(ctx context.Context, design *models.Design, prompt string) (string, error)
}

// staticGenerator, generator service'in URL şemasını taklit eden stub.
type staticGenerator struct {
	baseURL string
}

// NewStaticGenerator, baseURL altında benzersiz preview URL'leri üreten
// PreviewGenerator döner.
func NewStaticGenerator(baseURL string) PreviewGenerator {
	return &staticGenerator{baseURL: baseURL}
}

func (g *staticGenerator) GeneratePreviewURL(_ context.Context, design *models.Design, _ string) (string, error) {
	return fmt.Sprintf("%s/previews/%s/%s.png", g.baseURL, design.ID, uuid.NewString()), nil
}

// PreviewStatus, bir preview job'ının dışarıya açık anlık durumu.
type PreviewStatus struct {
	JobID      string `json:"job_id"`
	DesignID   string `json:"design_id"`
	SourceURL  string `json:"source_url"`
	DisplayURL string `json:"display_url"`
	Loaded     bool   `json:"loaded"`
	Errored    bool   `json:"errored"`
	RetryCount int    `json:"retry_count"`
	Terminal   bool   `json:"terminal"`
}

// PreviewService, preview job iş mantığı interface'i.
type PreviewService interface {
	// Start, yeni bir preview job başlatır. 1 kredi düşer.
	Start(ctx context.Context, userID string, req *models.StartPreviewRequest) (*PreviewStatus, error)

	// Get, job'ın anlık durumunu döner (sadece sahibi).
	Get(ctx context.Context, userID, jobID string) (*PreviewStatus, error)

	// Retry, terminal hatadaki job'ı yeniden dener. Kredi harcamaz.
	Retry(ctx context.Context, userID, jobID string) (*PreviewStatus, error)
}

// previewJob, registry'deki tek bir job.
type previewJob struct {
	id       string
	designID string
	userID   string
	loader   *imageloader.Loader
}

type previewService struct {
	designRepo repository.DesignRepository
	creditsSvc CreditsService
	generator  PreviewGenerator
	hub        ws.EventPublisher
	jobs       *cache.TTLCache[string, *previewJob]
	loaderCfg  imageloader.Config
	httpClient *http.Client
}

// NewPreviewService, constructor.
//
// httpClient nil olabilir — loader kendi client'ını kurar. Testlerde
// httpmock'lu client enjekte edilir.
func NewPreviewService(
	designRepo repository.DesignRepository,
	creditsSvc CreditsService,
	generator PreviewGenerator,
	hub ws.EventPublisher,
	loaderCfg imageloader.Config,
	httpClient *http.Client,
) PreviewService {
	return &previewService{
		designRepo: designRepo,
		creditsSvc: creditsSvc,
		generator:  generator,
		hub:        hub,
		jobs:       cache.New[string, *previewJob](jobTTL, jobCleanupInterval),
		loaderCfg:  loaderCfg,
		httpClient: httpClient,
	}
}

// Start, preview job'ı başlatır.
//
// Kredi düşümü generator çağrısından ÖNCE yapılır — yetersiz bakiyede
// generator'a hiç gidilmez. Generator hatasında kredi iade edilmez;
// kullanıcı Retry ile ücretsiz yeniden deneyebilir.
func (s *previewService) Start(ctx context.Context, userID string, req *models.StartPreviewRequest) (*PreviewStatus, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", pkg.ErrBadRequest, err)
	}

	design, err := s.designRepo.GetByID(ctx, req.DesignID)
	if err != nil {
		return nil, err
	}
	if design.UserID != userID {
		return nil, fmt.Errorf("%w: design belongs to another user", pkg.ErrForbidden)
	}

	spendReq := &models.SpendCreditsRequest{Amount: 1, Reason: "preview"}
	if _, err := s.creditsSvc.Spend(ctx, userID, spendReq); err != nil {
		return nil, err // ErrInsufficientCredits olabilir
	}

	prompt := ""
	if req.Prompt != nil {
		prompt = *req.Prompt
	}

	sourceURL, err := s.generator.GeneratePreviewURL(ctx, design, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate preview: %w", err)
	}

	if err := s.designRepo.SetPreviewURL(ctx, design.ID, sourceURL); err != nil {
		return nil, err
	}

	job := &previewJob{
		id:       uuid.NewString(),
		designID: design.ID,
		userID:   userID,
	}
	job.loader = imageloader.New(s.loaderCfg, s.httpClient, s.onLoaderChange(job))
	s.jobs.Set(job.id, job)

	log.Printf("[preview] job %s started for design %s (user %s)", job.id, design.ID, userID)
	job.loader.Observe(sourceURL)

	return s.snapshot(job), nil
}

// Get, job'ın anlık durumunu döner.
func (s *previewService) Get(_ context.Context, userID, jobID string) (*PreviewStatus, error) {
	job, ok := s.jobs.Get(jobID)
	if !ok || job.userID != userID {
		return nil, fmt.Errorf("%w: preview job not found", pkg.ErrNotFound)
	}

	return s.snapshot(job), nil
}

// Retry, terminal hatadaki job'ı aynı kaynak URL ile yeniden başlatır.
// Sayaçlar sıfırlanır — loader tam retry bütçesiyle tekrar dener.
func (s *previewService) Retry(_ context.Context, userID, jobID string) (*PreviewStatus, error) {
	job, ok := s.jobs.Get(jobID)
	if !ok || job.userID != userID {
		return nil, fmt.Errorf("%w: preview job not found", pkg.ErrNotFound)
	}

	state := job.loader.State()
	if !state.Terminal(job.loader.MaxRetries()) {
		return nil, fmt.Errorf("%w: preview job is still in progress", pkg.ErrBadRequest)
	}
	if state.Loaded {
		return nil, fmt.Errorf("%w: preview already loaded", pkg.ErrBadRequest)
	}

	log.Printf("[preview] job %s manual retry (user %s)", jobID, userID)
	job.loader.Observe(state.SourceURL)

	return s.snapshot(job), nil
}

// onLoaderChange, loader state geçişlerini job sahibine push eden callback üretir.
func (s *previewService) onLoaderChange(job *previewJob) func(imageloader.State) {
	return func(state imageloader.State) {
		if s.hub == nil {
			return
		}
		s.hub.BroadcastToUser(job.userID, ws.Event{
			Op: ws.OpPreviewStatus,
			Data: ws.PreviewStatusData{
				JobID:      job.id,
				DesignID:   job.designID,
				SourceURL:  state.SourceURL,
				DisplayURL: state.DisplayURL,
				Loaded:     state.Loaded,
				Errored:    state.Errored,
				RetryCount: state.RetryCount,
				Terminal:   state.Terminal(job.loader.MaxRetries()),
			},
		})
	}
}

// snapshot, job'ın loader state'ini DTO'ya çevirir.
func (s *previewService) snapshot(job *previewJob) *PreviewStatus {
	state := job.loader.State()
	return &PreviewStatus{
		JobID:      job.id,
		DesignID:   job.designID,
		SourceURL:  state.SourceURL,
		DisplayURL: state.DisplayURL,
		Loaded:     state.Loaded,
		Errored:    state.Errored,
		RetryCount: state.RetryCount,
		Terminal:   state.Terminal(job.loader.MaxRetries()),
	}
}
