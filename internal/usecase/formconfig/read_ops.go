package formconfig

import (
	"context"
	"errors"
	"sort"
	"strings"

	domain "formcfg/internal/domain/formconfig"
	"formcfg/internal/ports"
)

func (s *Service) GetForm(ctx context.Context, formID uint64) (FormDetail, error) {
	if err := s.checkReady(ctx); err != nil {
		return FormDetail{}, err
	}

	form, err := s.forms.GetForm(ctx, formID)
	if err != nil {
		if errors.Is(err, ports.ErrFormNotFound) {
			return FormDetail{}, domain.FormNotFound(formID)
		}
		return FormDetail{}, domain.AsStoreError(err)
	}
	sortQuestions(form.Questions)

	detail := FormDetail{Form: form}
	if s.cache != nil {
		if status, found, err := s.cache.Get(ctx, mirrorStatusKey(formID)); err == nil && found {
			detail.SheetsSync = status
		}
	}
	return detail, nil
}

func (s *Service) ListForms(ctx context.Context) ([]ports.Form, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	forms, err := s.forms.ListForms(ctx)
	if err != nil {
		return nil, domain.AsStoreError(err)
	}
	return forms, nil
}

func (s *Service) GetEventConfig(ctx context.Context, eventConfigID uint64) (ports.EventConfig, error) {
	if err := s.checkReady(ctx); err != nil {
		return ports.EventConfig{}, err
	}

	cfg, err := s.eventConfigs.GetEventConfig(ctx, eventConfigID)
	if err != nil {
		if errors.Is(err, ports.ErrEventConfigNotFound) {
			return ports.EventConfig{}, domain.EventConfigNotFound(eventConfigID)
		}
		return ports.EventConfig{}, domain.AsStoreError(err)
	}
	return cfg, nil
}

func (s *Service) ListEventConfigs(ctx context.Context) ([]ports.EventConfig, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	items, err := s.eventConfigs.ListEventConfigs(ctx)
	if err != nil {
		return nil, domain.AsStoreError(err)
	}
	return items, nil
}

func (s *Service) GetEvent(ctx context.Context, eventID uint64) (ports.Event, error) {
	if err := s.checkReady(ctx); err != nil {
		return ports.Event{}, err
	}
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, ports.ErrEventNotFound) {
			return ports.Event{}, err
		}
		return ports.Event{}, domain.AsStoreError(err)
	}
	return event, nil
}

func (s *Service) ListEventsForForm(ctx context.Context, formID uint64) ([]ports.Event, error) {
	return s.listEventsByTarget(ctx, ports.TargetForm, formID)
}

func (s *Service) ListEventsForEventConfig(ctx context.Context, eventConfigID uint64) ([]ports.Event, error) {
	return s.listEventsByTarget(ctx, ports.TargetEventConfig, eventConfigID)
}

func (s *Service) listEventsByTarget(ctx context.Context, targetKind string, targetID uint64) ([]ports.Event, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	items, err := s.events.ListEventsByTarget(ctx, targetKind, targetID)
	if err != nil {
		return nil, domain.AsStoreError(err)
	}
	return items, nil
}

func (s *Service) ListPendingEvents(ctx context.Context, limit int) ([]ports.Event, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	items, err := s.events.ListPendingEvents(ctx, limit)
	if err != nil {
		return nil, domain.AsStoreError(err)
	}
	return items, nil
}

func (s *Service) ListRecentEvents(ctx context.Context, limit int) ([]ports.Event, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	items, err := s.events.ListRecentEvents(ctx, limit)
	if err != nil {
		return nil, domain.AsStoreError(err)
	}
	return items, nil
}

// RecordFormLoad appends an audit row for a form read. The core never reads
// these rows back.
func (s *Service) RecordFormLoad(ctx context.Context, input FormLoadInput) error {
	if err := s.checkReady(ctx); err != nil {
		return err
	}
	if s.loads == nil {
		return nil
	}

	load := ports.FormLoad{
		FormID:    input.FormID,
		LoadedAt:  s.now(),
		IPAddress: truncatedOptional(input.IPAddress, 45),
		UserAgent: truncatedOptional(input.UserAgent, 255),
		Success:   input.Success,
	}
	if msg := strings.TrimSpace(input.ErrorMessage); msg != "" {
		load.ErrorMessage = &msg
	}
	if _, err := s.loads.RecordFormLoad(ctx, load); err != nil {
		return domain.AsStoreError(err)
	}
	return nil
}

func sortQuestions(questions []ports.Question) {
	sort.SliceStable(questions, func(i, j int) bool {
		if questions[i].Order != questions[j].Order {
			return questions[i].Order < questions[j].Order
		}
		return questions[i].QuestionID < questions[j].QuestionID
	})
}

func truncatedOptional(value string, max int) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if runes := []rune(value); len(runes) > max {
		value = string(runes[:max])
	}
	return &value
}
