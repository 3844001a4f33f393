package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"formcfg/internal/ports"
)

func TestEventConfigRepositoryLifecycle(t *testing.T) {
	repo := NewEventConfigRepository(setupDB(t))
	ctx := context.Background()

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 18, 0, 0, 0, time.UTC)
	created, err := repo.CreateEventConfig(ctx, ports.EventConfig{
		EventReference:    "EVT-1",
		EventType:         "conference",
		EventDescription:  strPtr("Annual meetup"),
		EventMetadata:     map[string]string{"room": "A"},
		EventDates:        []string{"2026-03-10", "2026-03-11"},
		ValidityStartDate: &start,
		ValidityEndDate:   &end,
	})
	if err != nil {
		t.Fatalf("CreateEventConfig() error = %v", err)
	}
	if created.EventConfigID == 0 || created.RegistrationDate.IsZero() {
		t.Fatalf("CreateEventConfig() = %+v", created)
	}

	got, err := repo.GetEventConfig(ctx, created.EventConfigID)
	if err != nil {
		t.Fatalf("GetEventConfig() error = %v", err)
	}
	if len(got.EventDates) != 2 || got.EventDates[1] != "2026-03-11" {
		t.Fatalf("event_dates = %v", got.EventDates)
	}
	if got.ValidityStartDate == nil || !got.ValidityStartDate.Equal(start) {
		t.Fatalf("validity_start_date = %v", got.ValidityStartDate)
	}

	got.EventType = "workshop"
	got.EventDates = nil
	got.ValidityEndDate = nil
	got.LastUpdateDate = created.LastUpdateDate.Add(time.Hour)
	if err := repo.UpdateEventConfig(ctx, got); err != nil {
		t.Fatalf("UpdateEventConfig() error = %v", err)
	}

	updated, err := repo.GetEventConfig(ctx, created.EventConfigID)
	if err != nil {
		t.Fatalf("GetEventConfig() error = %v", err)
	}
	if updated.EventType != "workshop" || len(updated.EventDates) != 0 || updated.ValidityEndDate != nil {
		t.Fatalf("GetEventConfig() after update = %+v", updated)
	}
	if !updated.LastUpdateDate.After(created.LastUpdateDate) {
		t.Fatalf("last_update_date not touched: %v", updated.LastUpdateDate)
	}

	existed, err := repo.DeleteEventConfig(ctx, created.EventConfigID)
	if err != nil || !existed {
		t.Fatalf("DeleteEventConfig() = %v, %v", existed, err)
	}
	if _, err := repo.GetEventConfig(ctx, created.EventConfigID); !errors.Is(err, ports.ErrEventConfigNotFound) {
		t.Fatalf("GetEventConfig(deleted) error = %v", err)
	}
	if err := repo.UpdateEventConfig(ctx, got); !errors.Is(err, ports.ErrEventConfigNotFound) {
		t.Fatalf("UpdateEventConfig(deleted) error = %v", err)
	}
}
