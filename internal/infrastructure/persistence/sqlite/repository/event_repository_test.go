package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"formcfg/internal/ports"
)

func TestEventRepositoryAppendAndStatus(t *testing.T) {
	repo := NewEventRepository(setupDB(t))
	ctx := context.Background()

	event, err := repo.AppendEvent(ctx, ports.EventCreate{
		Type:       "form_created",
		Data:       json.RawMessage(`{"title":"T1","category":"C1"}`),
		Metadata:   map[string]string{"source": "cli"},
		TargetKind: ports.TargetForm,
	})
	if err != nil {
		t.Fatalf("AppendEvent() error = %v", err)
	}
	if event.EventID == 0 || event.Processed || event.Error != nil {
		t.Fatalf("AppendEvent() = %+v", event)
	}
	if _, ok := event.TargetID(); ok {
		t.Fatalf("TargetID() should be empty before the create is applied")
	}

	formID := uint64(7)
	if err := repo.UpdateEventStatus(ctx, ports.EventStatusUpdate{
		EventID:   event.EventID,
		Processed: true,
		FormID:    &formID,
	}); err != nil {
		t.Fatalf("UpdateEventStatus() error = %v", err)
	}

	got, err := repo.GetEvent(ctx, event.EventID)
	if err != nil {
		t.Fatalf("GetEvent() error = %v", err)
	}
	if !got.Processed || got.Error != nil {
		t.Fatalf("GetEvent() status = %v/%v", got.Processed, got.Error)
	}
	if id, ok := got.TargetID(); !ok || id != formID {
		t.Fatalf("TargetID() = %d, %v", id, ok)
	}
	if got.Metadata["source"] != "cli" {
		t.Fatalf("metadata = %v", got.Metadata)
	}

	var payload map[string]string
	if err := json.Unmarshal(got.Data, &payload); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if payload["title"] != "T1" {
		t.Fatalf("data = %s", got.Data)
	}
}

func TestEventRepositoryRecordsError(t *testing.T) {
	repo := NewEventRepository(setupDB(t))
	ctx := context.Background()

	formID := uint64(3)
	event, err := repo.AppendEvent(ctx, ports.EventCreate{
		Type: "form_updated", TargetKind: ports.TargetForm, FormID: &formID,
	})
	if err != nil {
		t.Fatalf("AppendEvent() error = %v", err)
	}

	msg := "Form not found with id 3"
	if err := repo.UpdateEventStatus(ctx, ports.EventStatusUpdate{EventID: event.EventID, Error: &msg}); err != nil {
		t.Fatalf("UpdateEventStatus() error = %v", err)
	}

	got, err := repo.GetEvent(ctx, event.EventID)
	if err != nil {
		t.Fatalf("GetEvent() error = %v", err)
	}
	if got.Processed || got.Error == nil || *got.Error != msg {
		t.Fatalf("GetEvent() = %+v", got)
	}
	if string(got.Data) != "{}" {
		t.Fatalf("empty data should be stored as {}, got %s", got.Data)
	}

	if err := repo.UpdateEventStatus(ctx, ports.EventStatusUpdate{EventID: 999}); !errors.Is(err, ports.ErrEventNotFound) {
		t.Fatalf("UpdateEventStatus(missing) error = %v", err)
	}
	if _, err := repo.GetEvent(ctx, 999); !errors.Is(err, ports.ErrEventNotFound) {
		t.Fatalf("GetEvent(missing) error = %v", err)
	}
}

func TestEventRepositoryListings(t *testing.T) {
	repo := NewEventRepository(setupDB(t))
	ctx := context.Background()

	formA, formB, cfg := uint64(1), uint64(2), uint64(1)
	inputs := []ports.EventCreate{
		{Type: "form_updated", TargetKind: ports.TargetForm, FormID: &formA},
		{Type: "form_updated", TargetKind: ports.TargetForm, FormID: &formB},
		{Type: "event_updated", TargetKind: ports.TargetEventConfig, EventConfigID: &cfg},
		{Type: "form_deleted", TargetKind: ports.TargetForm, FormID: &formA},
	}
	var ids []uint64
	for _, in := range inputs {
		ev, err := repo.AppendEvent(ctx, in)
		if err != nil {
			t.Fatalf("AppendEvent() error = %v", err)
		}
		ids = append(ids, ev.EventID)
	}
	if err := repo.UpdateEventStatus(ctx, ports.EventStatusUpdate{EventID: ids[0], Processed: true}); err != nil {
		t.Fatalf("UpdateEventStatus() error = %v", err)
	}

	byForm, err := repo.ListEventsByTarget(ctx, ports.TargetForm, formA)
	if err != nil {
		t.Fatalf("ListEventsByTarget() error = %v", err)
	}
	if len(byForm) != 2 || byForm[0].EventID != ids[0] || byForm[1].EventID != ids[3] {
		t.Fatalf("ListEventsByTarget(form 1) = %+v", byForm)
	}

	byConfig, err := repo.ListEventsByTarget(ctx, ports.TargetEventConfig, cfg)
	if err != nil {
		t.Fatalf("ListEventsByTarget() error = %v", err)
	}
	if len(byConfig) != 1 || byConfig[0].EventID != ids[2] {
		t.Fatalf("ListEventsByTarget(event_config 1) = %+v", byConfig)
	}

	if _, err := repo.ListEventsByTarget(ctx, "invoice", 1); err == nil {
		t.Fatalf("ListEventsByTarget(unknown kind) expected error")
	}

	pending, err := repo.ListPendingEvents(ctx, 2)
	if err != nil {
		t.Fatalf("ListPendingEvents() error = %v", err)
	}
	if len(pending) != 2 || pending[0].EventID != ids[1] || pending[1].EventID != ids[2] {
		t.Fatalf("ListPendingEvents() = %+v", pending)
	}

	recent, err := repo.ListRecentEvents(ctx, 0)
	if err != nil {
		t.Fatalf("ListRecentEvents() error = %v", err)
	}
	if len(recent) != 4 || recent[0].EventID != ids[3] {
		t.Fatalf("ListRecentEvents() = %+v", recent)
	}
}
