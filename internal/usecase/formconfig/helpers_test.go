package formconfig

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	domain "formcfg/internal/domain/formconfig"
	"formcfg/internal/infrastructure/cache"
	"formcfg/internal/infrastructure/persistence/sqlite/model"
	"formcfg/internal/infrastructure/persistence/sqlite/repository"
	"formcfg/internal/infrastructure/persistence/sqlite/uow"
	"formcfg/internal/ports"
)

type fakeMirror struct {
	mu        sync.Mutex
	calls     []ports.Form
	result    bool
	panicWith any
}

func (m *fakeMirror) Sync(_ context.Context, form ports.Form) bool {
	m.mu.Lock()
	m.calls = append(m.calls, form)
	m.mu.Unlock()
	if m.panicWith != nil {
		panic(m.panicWith)
	}
	return m.result
}

type fixture struct {
	db     *gorm.DB
	svc    *Service
	forms  ports.FormRepository
	events *repository.EventRepository
	cache  *cache.SQLiteCache
	mirror *fakeMirror
}

type fixtureOption func(*Dependencies)

func withDomains(kinds ...domain.TargetKind) fixtureOption {
	return func(d *Dependencies) { d.Domains = kinds }
}

func withForms(wrap func(ports.FormRepository) ports.FormRepository) fixtureOption {
	return func(d *Dependencies) { d.Forms = wrap(d.Forms) }
}

func withEvents(wrap func(ports.EventLog) ports.EventLog) fixtureOption {
	return func(d *Dependencies) { d.Events = wrap(d.Events) }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	db, err := gorm.Open(gormsqlite.Open(filepath.Join(t.TempDir(), "formcfg.sqlite")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	events := repository.NewEventRepository(db)
	kv := cache.NewSQLiteCache(db)
	mirror := &fakeMirror{result: true}
	deps := Dependencies{
		Forms:        repository.NewFormRepository(db),
		EventConfigs: repository.NewEventConfigRepository(db),
		Events:       events,
		Loads:        repository.NewFormLoadRepository(db),
		UnitOfWork: uow.NewRetryingUnitOfWork(uow.NewUnitOfWork(db), uow.RetryPolicy{
			MaxAttempts: 3,
			BaseDelay:   time.Millisecond,
		}),
		Mirror: mirror,
		Cache:  kv,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	return &fixture{
		db:     db,
		svc:    NewService(deps),
		forms:  deps.Forms,
		events: events,
		cache:  kv,
		mirror: mirror,
	}
}

func (f *fixture) count(t *testing.T, value any) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(value).Count(&n).Error; err != nil {
		t.Fatalf("count %T: %v", value, err)
	}
	return n
}

func (f *fixture) mustCreateForm(t *testing.T, payload domain.FormPayload) MutationResult {
	t.Helper()
	result, err := f.svc.CreateForm(context.Background(), payload)
	if err != nil {
		t.Fatalf("CreateForm() error = %v", err)
	}
	return result
}

func strPtr(s string) *string { return &s }

func idPtr(id uint64) *uint64 { return &id }
