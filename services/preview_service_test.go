package services

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genails/server/models"
	"github.com/genails/server/pkg"
	"github.com/genails/server/pkg/imageloader"
	"github.com/genails/server/repository"
	"github.com/genails/server/ws"
)

// fakeGenerator, sabit bir URL döner — httpmock ile probe edilebilir.
type fakeGenerator struct {
	url string
	err error
}

func (g *fakeGenerator) GeneratePreviewURL(_ context.Context, _ *models.Design, _ string) (string, error) {
	return g.url, g.err
}

// imagePNG, http.DetectContentType'ın image/png saydığı body.
var imagePNG = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

type previewFixture struct {
	conn    *sql.DB
	svc     PreviewService
	designs repository.DesignRepository
	credits repository.CreditsRepository
	hub     *fakeHub
	user    *models.User
	design  *models.Design
}

func newPreviewFixture(t *testing.T, gen PreviewGenerator) *previewFixture {
	t.Helper()

	conn := newTestDB(t)
	hub := &fakeHub{}

	client := &http.Client{}
	httpmock.ActivateNonDefault(client)
	t.Cleanup(httpmock.DeactivateAndReset)

	designRepo := repository.NewSQLiteDesignRepo(conn)
	creditsRepo := repository.NewSQLiteCreditsRepo(conn)
	creditsSvc := NewCreditsService(creditsRepo, hub)

	user := createTestUser(t, conn, "ayse")
	require.NoError(t, creditsRepo.InsertBalance(context.Background(), user.ID, 10))

	design := &models.Design{
		ID:       uuid.NewString(),
		UserID:   user.ID,
		PhotoURL: "/api/uploads/abc_nails.jpg",
	}
	require.NoError(t, designRepo.Create(context.Background(), design))

	cfg := imageloader.Config{MaxRetries: 2, BaseDelay: time.Millisecond}
	svc := NewPreviewService(designRepo, creditsSvc, gen, hub, cfg, client)

	return &previewFixture{
		conn:    conn,
		svc:     svc,
		designs: designRepo,
		credits: creditsRepo,
		hub:     hub,
		user:    user,
		design:  design,
	}
}

func waitForStatus(t *testing.T, f *previewFixture, jobID string, cond func(*PreviewStatus) bool) *PreviewStatus {
	t.Helper()

	var last *PreviewStatus
	require.Eventually(t, func() bool {
		status, err := f.svc.Get(context.Background(), f.user.ID, jobID)
		if err != nil {
			return false
		}
		last = status
		return cond(status)
	}, 5*time.Second, 5*time.Millisecond)
	return last
}

func TestPreviewService_Start_Success(t *testing.T) {
	gen := &fakeGenerator{url: "https://previews.test/p.png"}
	f := newPreviewFixture(t, gen)
	ctx := context.Background()

	httpmock.RegisterResponder("GET", `=~^https://previews\.test/p\.png`,
		httpmock.NewBytesResponder(http.StatusOK, imagePNG))

	status, err := f.svc.Start(ctx, f.user.ID, &models.StartPreviewRequest{DesignID: f.design.ID})
	require.NoError(t, err)
	assert.NotEmpty(t, status.JobID)
	assert.Equal(t, f.design.ID, status.DesignID)
	assert.Equal(t, gen.url, status.SourceURL)

	// 1 kredi düştü
	balance, err := f.credits.GetBalance(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, balance.Credits)

	// Preview URL tasarıma yazıldı
	design, err := f.designs.GetByID(ctx, f.design.ID)
	require.NoError(t, err)
	require.NotNil(t, design.PreviewURL)
	assert.Equal(t, gen.url, *design.PreviewURL)

	final := waitForStatus(t, f, status.JobID, func(s *PreviewStatus) bool { return s.Loaded })
	assert.True(t, final.Terminal)

	// Sahibine preview_status event'leri push edildi
	var sawLoaded bool
	for _, e := range f.hub.eventsFor(f.user.ID) {
		if e.Op != ws.OpPreviewStatus {
			continue
		}
		if data, ok := e.Data.(ws.PreviewStatusData); ok && data.Loaded {
			sawLoaded = true
		}
	}
	assert.True(t, sawLoaded)
}

func TestPreviewService_Start_InsufficientCredits(t *testing.T) {
	gen := &fakeGenerator{url: "https://previews.test/p.png"}
	f := newPreviewFixture(t, gen)
	ctx := context.Background()

	// Bakiyeyi tüket
	require.NoError(t, f.credits.Spend(ctx, f.user.ID, 10))

	_, err := f.svc.Start(ctx, f.user.ID, &models.StartPreviewRequest{DesignID: f.design.ID})
	assert.ErrorIs(t, err, pkg.ErrInsufficientCredits)

	// Generator'a hiç gidilmedi — tasarımda preview URL yok
	design, err := f.designs.GetByID(ctx, f.design.ID)
	require.NoError(t, err)
	assert.Nil(t, design.PreviewURL)
}

func TestPreviewService_Start_NotOwner(t *testing.T) {
	gen := &fakeGenerator{url: "https://previews.test/p.png"}
	f := newPreviewFixture(t, gen)
	ctx := context.Background()

	other := createTestUser(t, f.conn, "fatma")
	require.NoError(t, f.credits.InsertBalance(ctx, other.ID, 10))

	_, err := f.svc.Start(ctx, other.ID, &models.StartPreviewRequest{DesignID: f.design.ID})
	assert.ErrorIs(t, err, pkg.ErrForbidden)

	// Kredi düşmedi
	balance, err := f.credits.GetBalance(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, balance.Credits)
}

func TestPreviewService_Start_Validation(t *testing.T) {
	f := newPreviewFixture(t, &fakeGenerator{url: "https://previews.test/p.png"})

	_, err := f.svc.Start(context.Background(), f.user.ID, &models.StartPreviewRequest{DesignID: ""})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestPreviewService_Get_OwnerOnly(t *testing.T) {
	gen := &fakeGenerator{url: "https://previews.test/p.png"}
	f := newPreviewFixture(t, gen)
	ctx := context.Background()

	httpmock.RegisterResponder("GET", `=~^https://previews\.test/p\.png`,
		httpmock.NewBytesResponder(http.StatusOK, imagePNG))

	status, err := f.svc.Start(ctx, f.user.ID, &models.StartPreviewRequest{DesignID: f.design.ID})
	require.NoError(t, err)

	other := createTestUser(t, f.conn, "fatma")
	_, err = f.svc.Get(ctx, other.ID, status.JobID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	_, err = f.svc.Get(ctx, f.user.ID, "bilinmeyen-job")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestPreviewService_Retry(t *testing.T) {
	gen := &fakeGenerator{url: "https://previews.test/broken.png"}
	f := newPreviewFixture(t, gen)
	ctx := context.Background()

	httpmock.RegisterResponder("GET", `=~^https://previews\.test/broken\.png`,
		httpmock.NewStringResponder(http.StatusNotFound, ""))

	status, err := f.svc.Start(ctx, f.user.ID, &models.StartPreviewRequest{DesignID: f.design.ID})
	require.NoError(t, err)

	terminal := waitForStatus(t, f, status.JobID, func(s *PreviewStatus) bool { return s.Terminal })
	assert.True(t, terminal.Errored)

	// CDN artık hazır — manuel retry ücretsizdir
	httpmock.Reset()
	httpmock.RegisterResponder("GET", `=~^https://previews\.test/broken\.png`,
		httpmock.NewBytesResponder(http.StatusOK, imagePNG))

	balanceBefore, err := f.credits.GetBalance(ctx, f.user.ID)
	require.NoError(t, err)

	_, err = f.svc.Retry(ctx, f.user.ID, status.JobID)
	require.NoError(t, err)

	final := waitForStatus(t, f, status.JobID, func(s *PreviewStatus) bool { return s.Loaded })
	assert.Equal(t, 0, final.RetryCount)

	balanceAfter, err := f.credits.GetBalance(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, balanceBefore.Credits, balanceAfter.Credits)
}

func TestPreviewService_Retry_Rejections(t *testing.T) {
	gen := &fakeGenerator{url: "https://previews.test/ok.png"}
	f := newPreviewFixture(t, gen)
	ctx := context.Background()

	httpmock.RegisterResponder("GET", `=~^https://previews\.test/ok\.png`,
		httpmock.NewBytesResponder(http.StatusOK, imagePNG))

	status, err := f.svc.Start(ctx, f.user.ID, &models.StartPreviewRequest{DesignID: f.design.ID})
	require.NoError(t, err)

	waitForStatus(t, f, status.JobID, func(s *PreviewStatus) bool { return s.Loaded })

	// Yüklenmiş job yeniden denenemez
	_, err = f.svc.Retry(ctx, f.user.ID, status.JobID)
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}
