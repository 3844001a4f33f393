package ports

import (
	"context"
	"errors"
	"time"
)

var ErrEventConfigNotFound = errors.New("event configuration not found")

type EventConfig struct {
	EventConfigID     uint64
	EventReference    string
	EventType         string
	EventDescription  *string
	EventMetadata     map[string]string
	EventTypeMetadata map[string]string
	EventDates        []string
	ValidityStartDate *time.Time
	ValidityEndDate   *time.Time
	RegistrationDate  time.Time
	LastUpdateDate    time.Time
}

type EventConfigRepository interface {
	CreateEventConfig(ctx context.Context, cfg EventConfig) (EventConfig, error)
	GetEventConfig(ctx context.Context, eventConfigID uint64) (EventConfig, error)
	UpdateEventConfig(ctx context.Context, cfg EventConfig) error
	DeleteEventConfig(ctx context.Context, eventConfigID uint64) (bool, error)
	ListEventConfigs(ctx context.Context) ([]EventConfig, error)
}
