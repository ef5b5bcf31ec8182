package services

import (
	"context"
	"database/sql"
	"io/fs"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/genails/server/database"
	"github.com/genails/server/models"
	"github.com/genails/server/pkg/cache"
	"github.com/genails/server/repository"
	"github.com/genails/server/ws"
)

// newTestDB, t.TempDir altında gerçek bir SQLite dosyası açar ve migration'ları
// uygular. ":memory:" kullanılmaz — connection pool her bağlantıya ayrı bir
// in-memory DB verir, testler sessizce boş tablo görür.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	migrations, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	require.NoError(t, err)

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), migrations)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db.Conn
}

// createTestUser, doğrudan repository üzerinden kullanıcı oluşturur.
func createTestUser(t *testing.T, conn *sql.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: "not-a-real-hash",
	}
	require.NoError(t, repository.NewSQLiteUserRepo(conn).Create(context.Background(), user))

	return user
}

// fakeHub, broadcast edilen event'leri kaydeden EventPublisher.
type fakeHub struct {
	mu     sync.Mutex
	events []fakeHubEvent
}

type fakeHubEvent struct {
	userID string // boş ise BroadcastToAll
	event  ws.Event
}

func (h *fakeHub) BroadcastToAll(event ws.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, fakeHubEvent{event: event})
}

func (h *fakeHub) BroadcastToUser(userID string, event ws.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, fakeHubEvent{userID: userID, event: event})
}

func (h *fakeHub) GetOnlineUserIDs() []string { return nil }

// eventsFor, belirli bir kullanıcıya giden event'leri döner.
func (h *fakeHub) eventsFor(userID string) []ws.Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []ws.Event
	for _, e := range h.events {
		if e.userID == userID {
			out = append(out, e.event)
		}
	}
	return out
}

// invitationFixture, InvitationService + bağımlılıklarını tek seferde kurar.
type invitationFixture struct {
	conn    *sql.DB
	svc     InvitationService
	credits repository.CreditsRepository
	hub     *fakeHub
}

func newInvitationFixture(t *testing.T) *invitationFixture {
	t.Helper()

	conn := newTestDB(t)
	hub := &fakeHub{}

	previewCache := cache.New[string, models.InvitationPreview](30*time.Second, time.Minute)
	t.Cleanup(previewCache.Close)

	creditsRepo := repository.NewSQLiteCreditsRepo(conn)
	svc := NewInvitationService(
		conn,
		repository.NewSQLiteInvitationRepo(conn),
		repository.NewSQLiteUserRepo(conn),
		creditsRepo,
		previewCache,
		nil, // email yapılandırılmamış
		hub,
		10, // welcome
		5,  // referral reward
	)

	return &invitationFixture{conn: conn, svc: svc, credits: creditsRepo, hub: hub}
}
