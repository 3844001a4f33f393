package formconfig

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	domain "formcfg/internal/domain/formconfig"
	"formcfg/internal/errs"
	"formcfg/internal/infrastructure/persistence/sqlite/model"
	"formcfg/internal/ports"
)

// flakyStatusLog fails the next failNext status writes.
type flakyStatusLog struct {
	ports.EventLog

	mu       sync.Mutex
	failNext int
}

func (l *flakyStatusLog) UpdateEventStatus(ctx context.Context, update ports.EventStatusUpdate) error {
	l.mu.Lock()
	fail := l.failNext > 0
	if fail {
		l.failNext--
	}
	l.mu.Unlock()
	if fail {
		return errors.New("disk I/O error")
	}
	return l.EventLog.UpdateEventStatus(ctx, update)
}

func (l *flakyStatusLog) failNextWrites(n int) {
	l.mu.Lock()
	l.failNext = n
	l.mu.Unlock()
}

func newFlakyStatusFixture(t *testing.T) (*fixture, *flakyStatusLog) {
	t.Helper()
	var log *flakyStatusLog
	f := newFixture(t, withEvents(func(next ports.EventLog) ports.EventLog {
		log = &flakyStatusLog{EventLog: next}
		return log
	}))
	return f, log
}

func TestStatusWriteFailureRollsBackCreate(t *testing.T) {
	f, log := newFlakyStatusFixture(t)
	ctx := context.Background()
	log.failNextWrites(1)

	result, err := f.svc.CreateForm(ctx, domain.FormPayload{Title: "T", Category: "C"})
	if err == nil || result.Success {
		t.Fatalf("CreateForm() = %+v, %v; want failure", result, err)
	}
	if result.Kind != domain.KindStore || !strings.Contains(result.Error, "write event status") {
		t.Fatalf("result = %+v", result)
	}
	if n := f.count(t, &model.FormConfiguration{}); n != 0 {
		t.Fatalf("forms after failed create = %d, want 0", n)
	}

	pending, err := f.svc.ListPendingEvents(ctx, 0)
	if err != nil {
		t.Fatalf("ListPendingEvents() error = %v", err)
	}
	if len(pending) != 1 || pending[0].EventID != result.EventID {
		t.Fatalf("pending = %+v, want the recorded attempt %d", pending, result.EventID)
	}
	if pending[0].Error == nil || !strings.Contains(*pending[0].Error, "write event status") {
		t.Fatalf("recorded attempt error = %v", pending[0].Error)
	}

	report, err := f.svc.ReplayPending(ctx, 0)
	if err != nil {
		t.Fatalf("ReplayPending() error = %v", err)
	}
	if report.Succeeded != 1 {
		t.Fatalf("report = %+v", report)
	}
	if n := f.count(t, &model.FormConfiguration{}); n != 1 {
		t.Fatalf("forms after replay = %d, want 1", n)
	}
}

func TestStatusWriteFailureRollsBackRedeliver(t *testing.T) {
	f, log := newFlakyStatusFixture(t)
	ctx := context.Background()

	event := f.appendEvent(t, ports.EventCreate{
		Type:       "form_created",
		Data:       json.RawMessage(`{"title":"T","category":"C"}`),
		TargetKind: ports.TargetForm,
	})
	log.failNextWrites(1)

	if _, err := f.svc.Redeliver(ctx, event.EventID); err == nil {
		t.Fatalf("Redeliver() expected error")
	}
	if n := f.count(t, &model.FormConfiguration{}); n != 0 {
		t.Fatalf("forms after failed redeliver = %d, want 0", n)
	}
	stored, err := f.svc.GetEvent(ctx, event.EventID)
	if err != nil {
		t.Fatalf("GetEvent() error = %v", err)
	}
	if stored.Processed {
		t.Fatalf("event processed after rolled back redeliver")
	}

	result, err := f.svc.Redeliver(ctx, event.EventID)
	if err != nil {
		t.Fatalf("Redeliver() error = %v", err)
	}
	if !result.Success {
		t.Fatalf("result = %+v", result)
	}
	if n := f.count(t, &model.FormConfiguration{}); n != 1 {
		t.Fatalf("forms = %d, want 1", n)
	}
}

func TestHandleStatusWriteFailureRollsBackHandler(t *testing.T) {
	f, log := newFlakyStatusFixture(t)
	ctx := context.Background()

	event := f.appendEvent(t, ports.EventCreate{
		Type:       "form_created",
		Data:       json.RawMessage(`{"title":"T","category":"C"}`),
		TargetKind: ports.TargetForm,
	})
	log.failNextWrites(1)

	if ok := f.svc.Dispatcher().Handle(ctx, &event); ok {
		t.Fatalf("Handle() = true with failing status write")
	}
	if event.Processed {
		t.Fatalf("event marked processed: %+v", event)
	}
	if n := f.count(t, &model.FormConfiguration{}); n != 0 {
		t.Fatalf("forms = %d, want 0", n)
	}

	if ok := f.svc.Dispatcher().Handle(ctx, &event); !ok {
		t.Fatalf("Handle() = false on second attempt, error = %v", event.Error)
	}
	if n := f.count(t, &model.FormConfiguration{}); n != 1 {
		t.Fatalf("forms = %d, want 1", n)
	}
}

type lockedForms struct {
	ports.FormRepository

	mu    sync.Mutex
	calls int
}

func (r *lockedForms) CreateForm(context.Context, ports.Form) (ports.Form, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	return ports.Form{}, errs.MarkTransient(errors.New("database is locked"))
}

func TestExhaustedRetriesStillRecordEvent(t *testing.T) {
	locked := &lockedForms{}
	f := newFixture(t, withForms(func(next ports.FormRepository) ports.FormRepository {
		locked.FormRepository = next
		return locked
	}))
	ctx := context.Background()

	result, err := f.svc.CreateForm(ctx, domain.FormPayload{Title: "T", Category: "C"})
	if err == nil || result.Success {
		t.Fatalf("CreateForm() = %+v, %v; want failure", result, err)
	}
	if locked.calls != 3 {
		t.Fatalf("CreateForm attempts = %d, want 3", locked.calls)
	}
	if result.EventID == 0 {
		t.Fatalf("result carries no event id: %+v", result)
	}

	if n := f.count(t, &model.Event{}); n != 1 {
		t.Fatalf("events rows = %d, want 1", n)
	}
	event, err := f.svc.GetEvent(ctx, result.EventID)
	if err != nil {
		t.Fatalf("GetEvent() error = %v", err)
	}
	if event.Processed || event.Type != "form_created" {
		t.Fatalf("event = %+v", event)
	}
	if event.Error == nil || !strings.Contains(*event.Error, "database is locked") {
		t.Fatalf("event error = %v", event.Error)
	}
	if n := f.count(t, &model.FormConfiguration{}); n != 0 {
		t.Fatalf("forms = %d, want 0", n)
	}
}
