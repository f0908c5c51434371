package certification

import (
	"bytes"
	"code212/database/dbtest"
	"code212/models"
	"code212/models/formation"
	"code212/utils/logger"
	"code212/utils/render"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"
)

type fakeRenderer struct {
	mu    sync.Mutex
	calls []render.CertificateData
	err   error
}

func (r *fakeRenderer) Render(data render.CertificateData) (*render.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, data)
	if r.err != nil {
		return nil, r.err
	}
	return &render.Document{
		Preview: []byte("png:" + data.Code + ":" + data.VerificationCode),
		PDF:     []byte("%PDF-" + data.Code + ":" + data.VerificationCode),
	}, nil
}

// gatedRenderer holds the first Render call until release is closed.
type gatedRenderer struct {
	next    Renderer
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedRenderer(next Renderer) *gatedRenderer {
	return &gatedRenderer{next: next, entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedRenderer) Render(data render.CertificateData) (*render.Document, error) {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
	}
	return g.next.Render(data)
}

type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}}
}

func (m *memStorage) Save(_ context.Context, key string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = buf.Bytes()
	return key, nil
}

func (m *memStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memStorage) URL(key string) string {
	return "https://files.test/" + key
}

type fixture struct {
	db       *gorm.DB
	svc      *Service
	renderer *fakeRenderer
	storage  *memStorage
	clock    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		db:       dbtest.Open(t),
		renderer: &fakeRenderer{},
		storage:  newMemStorage(),
		clock:    time.Date(2025, 6, 30, 10, 0, 0, 0, time.UTC),
	}
	f.svc = New(f.db, logger.Nop(), Options{
		Renderer:      f.renderer,
		Storage:       f.storage,
		PublicBaseURL: "https://code212.test/",
		Now:           func() time.Time { return f.clock },
	})
	return f
}

// enrolled seeds a learner approved on a published formation with the given modules.
func (f *fixture) enrolled(t *testing.T, name string, modules ...string) (models.User, formation.Formation, []formation.Module) {
	t.Helper()
	u := dbtest.SeedUser(t, f.db, name, models.RoleStudent)
	fm, mods := dbtest.SeedFormation(t, f.db, "Formation "+name, modules...)
	dbtest.SeedRegistration(t, f.db, u.ID, fm.ID, formation.RegistrationApproved)
	return u, fm, mods
}

func (f *fixture) completeAll(t *testing.T, userID uint, mods []formation.Module) {
	t.Helper()
	for _, m := range mods {
		dbtest.SeedCompletion(t, f.db, userID, m.ID)
	}
}

var errRenderFailed = errors.New("render failed")
