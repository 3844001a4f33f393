package formconfig

import (
	"context"
	"encoding/json"
	"log/slog"

	"formcfg/internal/bootstrap/logging"
	domain "formcfg/internal/domain/formconfig"
	"formcfg/internal/errs"
	"formcfg/internal/ports"
)

// mutation is one admitted intent: the event to append and the admission
// check that must pass before anything is written.
type mutation struct {
	eventType domain.EventType
	targetID  uint64
	payload   any
	validate  func() error
}

// mutate runs the single pipeline every write goes through:
// validate, append, dispatch, status write, commit, then mirror for form creates.
func (s *Service) mutate(ctx context.Context, m mutation) (MutationResult, error) {
	if err := s.checkReady(ctx); err != nil {
		return MutationResult{}, err
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.formconfig"),
		slog.String("event_type", m.eventType.String()),
	)

	if m.validate != nil {
		if err := m.validate(); err != nil {
			logging.Info(logCtx, "mutation rejected", slog.Any("err", errs.Loggable(err)))
			return failedResult(0, err), err
		}
	}

	data, err := json.Marshal(m.payload)
	if err != nil {
		err = domain.AsStoreError(errs.Wrap(err, "encode event payload"))
		return failedResult(0, err), err
	}

	create := ports.EventCreate{
		Type:       m.eventType.String(),
		Data:       data,
		Metadata:   s.eventMetadata(ctx),
		TargetKind: string(m.eventType.Target()),
	}
	if m.targetID != 0 {
		id := m.targetID
		switch m.eventType.Target() {
		case domain.TargetForm:
			create.FormID = &id
		case domain.TargetEventConfig:
			create.EventConfigID = &id
		}
	}

	var (
		event       ports.Event
		res         applyResult
		dispatchErr error
	)
	txErr := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		appended, err := s.events.AppendEvent(txCtx, create)
		if err != nil {
			return err
		}
		res, dispatchErr = s.dispatcher.dispatch(txCtx, &appended)
		event = appended
		// A transient failure aborts the whole transaction so the retrying
		// unit of work can run it again from the append. A failed status
		// write aborts it too; the handler's writes must not outlive it.
		if errs.IsTransient(dispatchErr) || isStatusWriteFailure(dispatchErr) {
			return dispatchErr
		}
		return nil
	})
	if txErr != nil {
		err := domain.AsStoreError(txErr)
		logging.Error(logCtx, "mutation transaction failed", slog.Any("err", errs.Loggable(txErr)))
		eventID := s.recordAbortedEvent(logCtx, create, err)
		return failedResult(eventID, err), err
	}
	if dispatchErr != nil {
		return failedResult(event.EventID, dispatchErr), dispatchErr
	}

	result := MutationResult{
		Success:  true,
		EntityID: res.entityID,
		EventID:  event.EventID,
	}
	if m.eventType == domain.FormCreated {
		synced := s.syncMirror(ctx, res.entityID)
		result.SheetsSync = &synced
	}
	return result, nil
}

// recordAbortedEvent appends the intent of a rolled back mutation as an
// unprocessed event carrying the failure, so the log still shows the attempt.
// It is best effort and returns 0 when the write fails too.
func (s *Service) recordAbortedEvent(ctx context.Context, create ports.EventCreate, cause error) uint64 {
	msg := cause.Error()
	var eventID uint64
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		appended, err := s.events.AppendEvent(txCtx, create)
		if err != nil {
			return err
		}
		eventID = appended.EventID
		return s.events.UpdateEventStatus(txCtx, ports.EventStatusUpdate{
			EventID: appended.EventID,
			Error:   &msg,
		})
	})
	if err != nil {
		logging.Error(ctx, "record aborted event failed", slog.Any("err", errs.Loggable(err)))
		return 0
	}
	logging.Warn(ctx, "aborted mutation recorded", slog.Uint64("event_id", eventID))
	return eventID
}

func (s *Service) CreateForm(ctx context.Context, payload domain.FormPayload) (MutationResult, error) {
	payload = domain.NormalizeForm(payload)
	return s.mutate(ctx, mutation{
		eventType: domain.FormCreated,
		payload:   payload,
		validate:  func() error { return domain.ValidateForm(payload) },
	})
}

// UpdateForm overwrites the form's own fields. Questions in the payload are
// ignored; they change through the question operations.
func (s *Service) UpdateForm(ctx context.Context, formID uint64, payload domain.FormPayload) (MutationResult, error) {
	payload = domain.NormalizeForm(payload)
	payload.Questions = nil
	return s.mutate(ctx, mutation{
		eventType: domain.FormUpdated,
		targetID:  formID,
		payload:   payload,
		validate: func() error {
			if err := requireID("form_id", formID); err != nil {
				return err
			}
			return domain.ValidateForm(payload)
		},
	})
}

func (s *Service) DeleteForm(ctx context.Context, formID uint64) (MutationResult, error) {
	result, err := s.mutate(ctx, mutation{
		eventType: domain.FormDeleted,
		targetID:  formID,
		payload:   map[string]uint64{"id": formID},
		validate:  func() error { return requireID("form_id", formID) },
	})
	if err == nil && s.cache != nil {
		_ = s.cache.Delete(ctx, mirrorStatusKey(formID))
	}
	return result, err
}

func (s *Service) AddQuestion(ctx context.Context, formID uint64, payload domain.QuestionPayload) (MutationResult, error) {
	payload = domain.NormalizeQuestion(payload)
	payload.ID = nil
	return s.mutate(ctx, mutation{
		eventType: domain.QuestionAdded,
		targetID:  formID,
		payload:   payload,
		validate: func() error {
			if err := requireID("form_id", formID); err != nil {
				return err
			}
			return domain.ValidateQuestion(payload, false)
		},
	})
}

// UpdateQuestion addresses the question by payload.ID.
func (s *Service) UpdateQuestion(ctx context.Context, formID uint64, payload domain.QuestionPayload) (MutationResult, error) {
	payload = domain.NormalizeQuestion(payload)
	return s.mutate(ctx, mutation{
		eventType: domain.QuestionUpdated,
		targetID:  formID,
		payload:   payload,
		validate: func() error {
			if err := requireID("form_id", formID); err != nil {
				return err
			}
			return domain.ValidateQuestion(payload, true)
		},
	})
}

func (s *Service) DeleteQuestion(ctx context.Context, formID uint64, questionID uint64) (MutationResult, error) {
	return s.mutate(ctx, mutation{
		eventType: domain.QuestionDeleted,
		targetID:  formID,
		payload:   map[string]uint64{"id": questionID},
		validate: func() error {
			if err := requireID("form_id", formID); err != nil {
				return err
			}
			return requireID("id", questionID)
		},
	})
}

// SubmitForm records a submission against a form. The event is logged and
// marked processed without changing form state.
func (s *Service) SubmitForm(ctx context.Context, formID uint64, answers map[string]string) (MutationResult, error) {
	if answers == nil {
		answers = map[string]string{}
	}
	return s.mutate(ctx, mutation{
		eventType: domain.FormSubmitted,
		targetID:  formID,
		payload:   map[string]any{"answers": answers},
		validate:  func() error { return requireID("form_id", formID) },
	})
}

func (s *Service) CreateEventConfig(ctx context.Context, payload domain.EventConfigPayload) (MutationResult, error) {
	payload = domain.NormalizeEventConfig(payload)
	return s.mutate(ctx, mutation{
		eventType: domain.EventConfigCreated,
		payload:   payload,
		validate:  func() error { return domain.ValidateEventConfig(payload) },
	})
}

func (s *Service) UpdateEventConfig(ctx context.Context, eventConfigID uint64, payload domain.EventConfigPayload) (MutationResult, error) {
	payload = domain.NormalizeEventConfig(payload)
	return s.mutate(ctx, mutation{
		eventType: domain.EventConfigUpdated,
		targetID:  eventConfigID,
		payload:   payload,
		validate: func() error {
			if err := requireID("event_config_id", eventConfigID); err != nil {
				return err
			}
			return domain.ValidateEventConfig(payload)
		},
	})
}

func (s *Service) DeleteEventConfig(ctx context.Context, eventConfigID uint64) (MutationResult, error) {
	return s.mutate(ctx, mutation{
		eventType: domain.EventConfigDeleted,
		targetID:  eventConfigID,
		payload:   map[string]uint64{"id": eventConfigID},
		validate:  func() error { return requireID("event_config_id", eventConfigID) },
	})
}

func requireID(field string, id uint64) error {
	if id != 0 {
		return nil
	}
	return &domain.ValidationError{Fields: []domain.FieldError{{Field: field, Message: field + " is required"}}}
}
