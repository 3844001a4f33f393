package formconfig

import (
	"encoding/json"
	"time"

	"formcfg/internal/ports"
)

// Views are the JSON shapes shared by the CLI and the HTTP API.

type QuestionView struct {
	ID               uint64            `json:"id"`
	FormID           uint64            `json:"form_id"`
	Reference        string            `json:"reference"`
	Content          string            `json:"content"`
	AnswerType       string            `json:"answer_type"`
	Options          []string          `json:"options"`
	QuestionMetadata map[string]string `json:"question_metadata"`
	Required         bool              `json:"required"`
	Order            int               `json:"order"`
	AIInstructions   *string           `json:"ai_instructions"`
}

type FormView struct {
	ID                  uint64            `json:"id"`
	Title               string            `json:"title"`
	Category            string            `json:"category"`
	Subcategory         *string           `json:"subcategory"`
	CategoryMetadata    map[string]string `json:"category_metadata"`
	SubcategoryMetadata map[string]string `json:"subcategory_metadata"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
	Questions           []QuestionView    `json:"questions,omitempty"`
	SheetsSync          string            `json:"sheets_sync,omitempty"`
}

type EventConfigView struct {
	ID                uint64            `json:"id"`
	EventReference    string            `json:"event_reference"`
	EventType         string            `json:"event_type"`
	EventDescription  *string           `json:"event_description"`
	EventMetadata     map[string]string `json:"event_metadata"`
	EventTypeMetadata map[string]string `json:"event_type_metadata"`
	EventDates        []string          `json:"event_dates"`
	ValidityStartDate *time.Time        `json:"validity_start_date"`
	ValidityEndDate   *time.Time        `json:"validity_end_date"`
	RegistrationDate  time.Time         `json:"registration_date"`
	LastUpdateDate    time.Time         `json:"last_update_date"`
}

type EventView struct {
	ID            uint64            `json:"id"`
	Type          string            `json:"type"`
	Data          json.RawMessage   `json:"data"`
	Metadata      map[string]string `json:"event_metadata"`
	CreatedAt     time.Time         `json:"created_at"`
	Processed     bool              `json:"processed"`
	Error         *string           `json:"error"`
	TargetKind    string            `json:"target_kind"`
	FormID        *uint64           `json:"form_id,omitempty"`
	EventConfigID *uint64           `json:"event_config_id,omitempty"`
}

func NewFormView(form ports.Form) FormView {
	view := FormView{
		ID:                  form.FormID,
		Title:               form.Title,
		Category:            form.Category,
		Subcategory:         form.Subcategory,
		CategoryMetadata:    form.CategoryMetadata,
		SubcategoryMetadata: form.SubcategoryMetadata,
		CreatedAt:           form.CreatedAt,
		UpdatedAt:           form.UpdatedAt,
	}
	for _, q := range form.Questions {
		view.Questions = append(view.Questions, NewQuestionView(q))
	}
	return view
}

func NewFormDetailView(detail FormDetail) FormView {
	view := NewFormView(detail.Form)
	if view.Questions == nil {
		view.Questions = []QuestionView{}
	}
	view.SheetsSync = detail.SheetsSync
	return view
}

func NewQuestionView(q ports.Question) QuestionView {
	return QuestionView{
		ID:               q.QuestionID,
		FormID:           q.FormID,
		Reference:        q.Reference,
		Content:          q.Content,
		AnswerType:       q.AnswerType,
		Options:          q.Options,
		QuestionMetadata: q.QuestionMetadata,
		Required:         q.Required,
		Order:            q.Order,
		AIInstructions:   q.AIInstructions,
	}
}

func NewEventConfigView(cfg ports.EventConfig) EventConfigView {
	return EventConfigView{
		ID:                cfg.EventConfigID,
		EventReference:    cfg.EventReference,
		EventType:         cfg.EventType,
		EventDescription:  cfg.EventDescription,
		EventMetadata:     cfg.EventMetadata,
		EventTypeMetadata: cfg.EventTypeMetadata,
		EventDates:        cfg.EventDates,
		ValidityStartDate: cfg.ValidityStartDate,
		ValidityEndDate:   cfg.ValidityEndDate,
		RegistrationDate:  cfg.RegistrationDate,
		LastUpdateDate:    cfg.LastUpdateDate,
	}
}

func NewEventView(event ports.Event) EventView {
	data := event.Data
	if len(data) == 0 {
		data = json.RawMessage(`{}`)
	}
	return EventView{
		ID:            event.EventID,
		Type:          event.Type,
		Data:          data,
		Metadata:      event.Metadata,
		CreatedAt:     event.CreatedAt,
		Processed:     event.Processed,
		Error:         event.Error,
		TargetKind:    event.TargetKind,
		FormID:        event.FormID,
		EventConfigID: event.EventConfigID,
	}
}

func NewFormViews(forms []ports.Form) []FormView {
	out := make([]FormView, 0, len(forms))
	for _, form := range forms {
		out = append(out, NewFormView(form))
	}
	return out
}

func NewEventConfigViews(items []ports.EventConfig) []EventConfigView {
	out := make([]EventConfigView, 0, len(items))
	for _, item := range items {
		out = append(out, NewEventConfigView(item))
	}
	return out
}

func NewEventViews(events []ports.Event) []EventView {
	out := make([]EventView, 0, len(events))
	for _, event := range events {
		out = append(out, NewEventView(event))
	}
	return out
}
