package eventconsole

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"formcfg/internal/ports"
	"formcfg/internal/usecase/formconfig"
)

type fakeSource struct {
	events      []ports.Event
	listErr     error
	redelivered []uint64
	redeliverFn func(uint64) (formconfig.MutationResult, error)
	replays     int
}

func (s *fakeSource) ListRecentEvents(_ context.Context, limit int) ([]ports.Event, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	if limit > 0 && len(s.events) > limit {
		return s.events[:limit], nil
	}
	return s.events, nil
}

func (s *fakeSource) Redeliver(_ context.Context, eventID uint64) (formconfig.MutationResult, error) {
	s.redelivered = append(s.redelivered, eventID)
	if s.redeliverFn != nil {
		return s.redeliverFn(eventID)
	}
	return formconfig.MutationResult{Success: true, EventID: eventID, EntityID: 7}, nil
}

func (s *fakeSource) ReplayPending(context.Context, int) (formconfig.ReplayReport, error) {
	s.replays++
	return formconfig.ReplayReport{Attempted: 2, Succeeded: 1, Failed: 1}, nil
}

func sampleEvents() []ports.Event {
	formID := uint64(3)
	failure := "Form not found with id 9"
	return []ports.Event{
		{EventID: 3, Type: "form_updated", TargetKind: ports.TargetForm, Error: &failure},
		{EventID: 2, Type: "question_added", TargetKind: ports.TargetForm, FormID: &formID},
		{EventID: 1, Type: "form_created", TargetKind: ports.TargetForm, FormID: &formID, Processed: true},
	}
}

func keyMsg(key string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, model tea.Model, cmd tea.Cmd) tea.Model {
	t.Helper()
	if cmd == nil {
		return model
	}
	next, _ := model.Update(cmd())
	return next
}

func TestFilterEvents(t *testing.T) {
	events := sampleEvents()

	testCases := []struct {
		filter string
		want   []uint64
	}{
		{filter: FilterAll, want: []uint64{3, 2, 1}},
		{filter: FilterPending, want: []uint64{3, 2}},
		{filter: FilterFailed, want: []uint64{3}},
	}
	for _, testCase := range testCases {
		got := FilterEvents(events, testCase.filter)
		if len(got) != len(testCase.want) {
			t.Fatalf("FilterEvents(%s) len = %d, want %d", testCase.filter, len(got), len(testCase.want))
		}
		for i, id := range testCase.want {
			if got[i].EventID != id {
				t.Fatalf("FilterEvents(%s)[%d] = e%d, want e%d", testCase.filter, i, got[i].EventID, id)
			}
		}
	}
}

func TestNormalizeFilter(t *testing.T) {
	testCases := map[string]string{
		"":          FilterAll,
		" Pending ": FilterPending,
		"failed":    FilterFailed,
		"bogus":     FilterAll,
	}
	for input, want := range testCases {
		if got := NormalizeFilter(input); got != want {
			t.Fatalf("NormalizeFilter(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestModelLoadsAndRedeliversSelectedEvent(t *testing.T) {
	source := &fakeSource{events: sampleEvents()}
	var model tea.Model = NewEventModel(context.Background(), source, Options{})

	model = run(t, model, model.(*eventModel).loadEventsCmd())
	view := model.View()
	if !strings.Contains(view, "e3 form_updated") || !strings.Contains(view, "Form not found with id 9") {
		t.Fatalf("View() missing events:\n%s", view)
	}

	model, cmd := model.Update(keyMsg("r"))
	model = run(t, model, cmd)
	if len(source.redelivered) != 1 || source.redelivered[0] != 3 {
		t.Fatalf("redelivered = %v, want [3]", source.redelivered)
	}
	if !strings.Contains(model.View(), "redeliver done: applied id=7") {
		t.Fatalf("status missing redeliver result:\n%s", model.View())
	}
}

func TestModelSkipsProcessedEventOnRedeliver(t *testing.T) {
	source := &fakeSource{events: sampleEvents()}
	var model tea.Model = NewEventModel(context.Background(), source, Options{})
	model = run(t, model, model.(*eventModel).loadEventsCmd())

	model, _ = model.Update(keyMsg("j"))
	model, _ = model.Update(keyMsg("j"))
	model, cmd := model.Update(keyMsg("r"))
	if cmd != nil {
		t.Fatalf("redeliver of processed event should not run a command")
	}
	if len(source.redelivered) != 0 {
		t.Fatalf("redelivered = %v, want none", source.redelivered)
	}
	if !strings.Contains(model.View(), "event#1 already processed") {
		t.Fatalf("status missing:\n%s", model.View())
	}
}

func TestModelRecordsFailuresInAuditLog(t *testing.T) {
	source := &fakeSource{
		events: sampleEvents(),
		redeliverFn: func(uint64) (formconfig.MutationResult, error) {
			return formconfig.MutationResult{}, errors.New("store failure: database is locked")
		},
	}
	var model tea.Model = NewEventModel(context.Background(), source, Options{})
	model = run(t, model, model.(*eventModel).loadEventsCmd())

	model, cmd := model.Update(keyMsg("r"))
	model = run(t, model, cmd)
	view := model.View()
	if !strings.Contains(view, "redeliver event#3 error=store failure: database is locked") {
		t.Fatalf("audit log missing failure:\n%s", view)
	}
}

func TestModelReplayAndFilterCycle(t *testing.T) {
	source := &fakeSource{events: sampleEvents()}
	var model tea.Model = NewEventModel(context.Background(), source, Options{Filter: "pending"})
	model = run(t, model, model.(*eventModel).loadEventsCmd())
	if got := len(model.(*eventModel).events); got != 2 {
		t.Fatalf("pending events = %d, want 2", got)
	}

	model, cmd := model.Update(keyMsg("p"))
	model = run(t, model, cmd)
	if source.replays != 1 {
		t.Fatalf("replays = %d, want 1", source.replays)
	}
	if !strings.Contains(model.View(), "attempted=2 succeeded=1 failed=1") {
		t.Fatalf("status missing replay report:\n%s", model.View())
	}

	model, cmd = model.Update(keyMsg("f"))
	model = run(t, model, cmd)
	if got := model.(*eventModel).filter; got != FilterFailed {
		t.Fatalf("filter = %q, want failed", got)
	}
	if got := len(model.(*eventModel).events); got != 1 {
		t.Fatalf("failed events = %d, want 1", got)
	}
}

func TestModelShowsLoadError(t *testing.T) {
	source := &fakeSource{listErr: errors.New("boom")}
	var model tea.Model = NewEventModel(context.Background(), source, Options{})
	model = run(t, model, model.(*eventModel).loadEventsCmd())
	if !strings.Contains(model.View(), "refresh failed: boom") {
		t.Fatalf("View() missing error:\n%s", model.View())
	}
}
