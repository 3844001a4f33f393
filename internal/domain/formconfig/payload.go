package formconfig

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

type QuestionPayload struct {
	ID               *uint64           `json:"id,omitempty" yaml:"id,omitempty" toml:"id,omitempty"`
	Reference        string            `json:"reference" yaml:"reference" toml:"reference"`
	Content          string            `json:"content" yaml:"content" toml:"content"`
	AnswerType       string            `json:"answer_type" yaml:"answer_type" toml:"answer_type"`
	Options          []string          `json:"options,omitempty" yaml:"options,omitempty" toml:"options,omitempty"`
	QuestionMetadata map[string]string `json:"question_metadata,omitempty" yaml:"question_metadata,omitempty" toml:"question_metadata,omitempty"`
	Required         bool              `json:"required" yaml:"required" toml:"required"`
	Order            int               `json:"order" yaml:"order" toml:"order"`
	AIInstructions   *string           `json:"ai_instructions,omitempty" yaml:"ai_instructions,omitempty" toml:"ai_instructions,omitempty"`
}

type FormPayload struct {
	Title               string            `json:"title" yaml:"title" toml:"title"`
	Category            string            `json:"category" yaml:"category" toml:"category"`
	Subcategory         *string           `json:"subcategory,omitempty" yaml:"subcategory,omitempty" toml:"subcategory,omitempty"`
	CategoryMetadata    map[string]string `json:"category_metadata,omitempty" yaml:"category_metadata,omitempty" toml:"category_metadata,omitempty"`
	SubcategoryMetadata map[string]string `json:"subcategory_metadata,omitempty" yaml:"subcategory_metadata,omitempty" toml:"subcategory_metadata,omitempty"`
	Questions           []QuestionPayload `json:"questions,omitempty" yaml:"questions,omitempty" toml:"questions,omitempty"`
}

type EventDates struct {
	Dates []string `json:"dates" yaml:"dates" toml:"dates"`
}

type EventConfigPayload struct {
	EventReference    string            `json:"event_reference" yaml:"event_reference" toml:"event_reference"`
	EventType         string            `json:"event_type" yaml:"event_type" toml:"event_type"`
	EventDescription  *string           `json:"event_description,omitempty" yaml:"event_description,omitempty" toml:"event_description,omitempty"`
	EventMetadata     map[string]string `json:"event_metadata,omitempty" yaml:"event_metadata,omitempty" toml:"event_metadata,omitempty"`
	EventTypeMetadata map[string]string `json:"event_type_metadata,omitempty" yaml:"event_type_metadata,omitempty" toml:"event_type_metadata,omitempty"`
	EventDates        *EventDates       `json:"event_dates,omitempty" yaml:"event_dates,omitempty" toml:"event_dates,omitempty"`
	ValidityStartDate *string           `json:"validity_start_date,omitempty" yaml:"validity_start_date,omitempty" toml:"validity_start_date,omitempty"`
	ValidityEndDate   *string           `json:"validity_end_date,omitempty" yaml:"validity_end_date,omitempty" toml:"validity_end_date,omitempty"`
}

// Dates returns the event dates list, never nil.
func (p EventConfigPayload) Dates() []string {
	if p.EventDates == nil || p.EventDates.Dates == nil {
		return []string{}
	}
	return p.EventDates.Dates
}

// ValidityWindow parses the optional validity bounds.
func (p EventConfigPayload) ValidityWindow() (start *time.Time, end *time.Time, err error) {
	if start, err = parseOptionalTimestamp(p.ValidityStartDate); err != nil {
		return nil, nil, err
	}
	if end, err = parseOptionalTimestamp(p.ValidityEndDate); err != nil {
		return nil, nil, err
	}
	return start, end, nil
}

// DecodeForm parses a stored form payload.
func DecodeForm(data []byte) (FormPayload, error) {
	var p FormPayload
	if err := decode(data, &p); err != nil {
		return FormPayload{}, err
	}
	return p, nil
}

func DecodeQuestion(data []byte) (QuestionPayload, error) {
	var p QuestionPayload
	if err := decode(data, &p); err != nil {
		return QuestionPayload{}, err
	}
	return p, nil
}

func DecodeEventConfig(data []byte) (EventConfigPayload, error) {
	var p EventConfigPayload
	if err := decode(data, &p); err != nil {
		return EventConfigPayload{}, err
	}
	return p, nil
}

func decode(data []byte, out any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return newValidationError(FieldError{Field: "data", Message: "payload is empty"})
	}
	if err := json.Unmarshal(data, out); err != nil {
		return newValidationError(FieldError{Field: "data", Message: "payload is malformed: " + err.Error()})
	}
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts ISO-8601 dates and datetimes. Values without a
// zone are read as UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func parseOptionalTimestamp(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := ParseTimestamp(*raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
