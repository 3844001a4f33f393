package formconfig

import (
	"fmt"
	"strings"
)

// EventType is the closed set of mutation intents recorded in the event log.
type EventType string

const (
	FormCreated     EventType = "form_created"
	FormUpdated     EventType = "form_updated"
	FormDeleted     EventType = "form_deleted"
	QuestionAdded   EventType = "question_added"
	QuestionUpdated EventType = "question_updated"
	QuestionDeleted EventType = "question_deleted"
	// FormSubmitted is accepted and marked processed without touching state.
	FormSubmitted EventType = "form_submitted"

	EventConfigCreated EventType = "event_created"
	EventConfigUpdated EventType = "event_updated"
	EventConfigDeleted EventType = "event_deleted"
)

// TargetKind names the entity family an event applies to.
type TargetKind string

const (
	TargetForm        TargetKind = "form"
	TargetEventConfig TargetKind = "event_config"
)

// Domain names accepted by the pipeline.domains setting.
const (
	DomainForms  = "forms"
	DomainEvents = "events"
)

var eventTypeTargets = map[EventType]TargetKind{
	FormCreated:        TargetForm,
	FormUpdated:        TargetForm,
	FormDeleted:        TargetForm,
	QuestionAdded:      TargetForm,
	QuestionUpdated:    TargetForm,
	QuestionDeleted:    TargetForm,
	FormSubmitted:      TargetForm,
	EventConfigCreated: TargetEventConfig,
	EventConfigUpdated: TargetEventConfig,
	EventConfigDeleted: TargetEventConfig,
}

// ParseEventType returns the typed event for a stored tag. Unknown tags are
// reported with ok=false.
func ParseEventType(raw string) (EventType, bool) {
	t := EventType(strings.TrimSpace(raw))
	_, ok := eventTypeTargets[t]
	return t, ok
}

// Target reports which entity family the event type mutates.
func (t EventType) Target() TargetKind {
	return eventTypeTargets[t]
}

// Creates reports whether the event allocates a new target id.
func (t EventType) Creates() bool {
	return t == FormCreated || t == EventConfigCreated
}

func (t EventType) String() string {
	return string(t)
}

// TargetForDomain maps a configured domain name to its target kind.
func TargetForDomain(domain string) (TargetKind, error) {
	switch strings.ToLower(strings.TrimSpace(domain)) {
	case DomainForms, string(TargetForm):
		return TargetForm, nil
	case DomainEvents, string(TargetEventConfig):
		return TargetEventConfig, nil
	default:
		return "", fmt.Errorf("unknown pipeline domain %q", domain)
	}
}
