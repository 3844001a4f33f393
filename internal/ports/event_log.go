package ports

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var ErrEventNotFound = errors.New("event not found")

// Target kinds stored on each event row.
const (
	TargetForm        = "form"
	TargetEventConfig = "event_config"
)

type Event struct {
	EventID       uint64
	Type          string
	Data          json.RawMessage
	Metadata      map[string]string
	CreatedAt     time.Time
	Processed     bool
	Error         *string
	TargetKind    string
	FormID        *uint64
	EventConfigID *uint64
}

// TargetID returns the foreign key matching the event's target kind.
func (e Event) TargetID() (uint64, bool) {
	switch e.TargetKind {
	case TargetForm:
		if e.FormID != nil {
			return *e.FormID, true
		}
	case TargetEventConfig:
		if e.EventConfigID != nil {
			return *e.EventConfigID, true
		}
	}
	return 0, false
}

type EventCreate struct {
	Type          string
	Data          json.RawMessage
	Metadata      map[string]string
	TargetKind    string
	FormID        *uint64
	EventConfigID *uint64
}

// EventStatusUpdate is the only mutation allowed on an appended event.
// A non-nil FormID/EventConfigID fills the target key left empty by a
// *_created append.
type EventStatusUpdate struct {
	EventID       uint64
	Processed     bool
	Error         *string
	FormID        *uint64
	EventConfigID *uint64
}

type EventLog interface {
	AppendEvent(ctx context.Context, input EventCreate) (Event, error)
	GetEvent(ctx context.Context, eventID uint64) (Event, error)
	ListEventsByTarget(ctx context.Context, targetKind string, targetID uint64) ([]Event, error)
	ListPendingEvents(ctx context.Context, limit int) ([]Event, error)
	ListRecentEvents(ctx context.Context, limit int) ([]Event, error)
	UpdateEventStatus(ctx context.Context, update EventStatusUpdate) error
}
