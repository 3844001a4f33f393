package formconfig

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"formcfg/internal/bootstrap/logging"
	domain "formcfg/internal/domain/formconfig"
	"formcfg/internal/errs"
	"formcfg/internal/ports"
)

// Dispatcher applies one event to current state and records the outcome on
// the event row. The handler runs in a nested unit of work so a failure
// rolls back only the domain writes, never the event itself.
type Dispatcher struct {
	forms        ports.FormRepository
	eventConfigs ports.EventConfigRepository
	events       ports.EventLog
	uow          ports.UnitOfWork
	enabled      map[domain.TargetKind]bool
	now          func() time.Time
}

func NewDispatcher(
	forms ports.FormRepository,
	eventConfigs ports.EventConfigRepository,
	events ports.EventLog,
	uow ports.UnitOfWork,
	domains []domain.TargetKind,
) *Dispatcher {
	enabled := make(map[domain.TargetKind]bool, 2)
	for _, kind := range domains {
		enabled[kind] = true
	}
	if len(enabled) == 0 {
		enabled[domain.TargetForm] = true
		enabled[domain.TargetEventConfig] = true
	}

	return &Dispatcher{
		forms:        forms,
		eventConfigs: eventConfigs,
		events:       events,
		uow:          uow,
		enabled:      enabled,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// applyResult carries ids produced by a handler.
type applyResult struct {
	// createdTarget is set by *_created handlers and written back onto the
	// event row as its target key.
	createdTarget uint64
	entityID      uint64
}

// Handle applies event and reports whether it is processed. It never
// returns an error; the failure message is stored in event.Error. If the
// status write fails the handler's writes are rolled back with it.
func (d *Dispatcher) Handle(ctx context.Context, event *ports.Event) bool {
	if event == nil {
		return false
	}
	snapshot := *event
	var dispatchErr error
	txErr := d.uow.WithTx(ctx, func(txCtx context.Context) error {
		_, dispatchErr = d.dispatch(txCtx, event)
		if isStatusWriteFailure(dispatchErr) {
			return dispatchErr
		}
		return nil
	})
	if txErr != nil {
		*event = snapshot
		return false
	}
	return dispatchErr == nil
}

// statusWriteError marks a failed event status write. The enclosing
// transaction must roll back so the domain rows and the event row agree.
type statusWriteError struct {
	err error
}

func (e *statusWriteError) Error() string { return e.err.Error() }

func (e *statusWriteError) Unwrap() error { return e.err }

func isStatusWriteFailure(err error) bool {
	var target *statusWriteError
	return errors.As(err, &target)
}

func (d *Dispatcher) dispatch(ctx context.Context, event *ports.Event) (applyResult, error) {
	if event == nil {
		return applyResult{}, errors.New("event is required")
	}
	if event.Processed {
		return applyResult{}, nil
	}

	logCtx := logging.WithEvent(
		logging.WithAttrs(ctx, slog.String("component", "usecase.formconfig.dispatcher")),
		event.EventID,
		event.Type,
	)

	var res applyResult
	eventType, routable := d.route(event)
	var applyErr error
	if !routable {
		applyErr = &domain.UnknownEventTypeError{Type: event.Type}
	} else {
		applyErr = d.uow.WithTx(ctx, func(txCtx context.Context) error {
			var err error
			res, err = d.applySafely(txCtx, eventType, *event)
			return err
		})
		applyErr = domain.AsStoreError(applyErr)
	}

	update := ports.EventStatusUpdate{
		EventID:   event.EventID,
		Processed: applyErr == nil,
	}
	if applyErr != nil {
		msg := applyErr.Error()
		update.Error = &msg
	} else if eventType.Creates() && res.createdTarget != 0 {
		id := res.createdTarget
		switch eventType.Target() {
		case domain.TargetForm:
			update.FormID = &id
		case domain.TargetEventConfig:
			update.EventConfigID = &id
		}
	}

	if err := d.events.UpdateEventStatus(ctx, update); err != nil {
		logging.Error(logCtx, "write event status failed", slog.Any("err", errs.Loggable(err)))
		return res, &statusWriteError{err: domain.AsStoreError(errs.Wrap(err, "write event status"))}
	}

	event.Processed = update.Processed
	event.Error = update.Error
	if update.FormID != nil {
		event.FormID = update.FormID
	}
	if update.EventConfigID != nil {
		event.EventConfigID = update.EventConfigID
	}

	if applyErr != nil {
		logging.Warn(logCtx, "event not applied",
			slog.String("kind", string(domain.KindOf(applyErr))),
			slog.Any("err", errs.Loggable(applyErr)),
		)
		return res, applyErr
	}
	logging.Info(logCtx, "event applied", slog.Uint64("entity_id", res.entityID))
	return res, nil
}

// route resolves the typed event. Tags outside the enumeration, tags of a
// disabled domain and tags that disagree with the row's target kind are not
// routable.
func (d *Dispatcher) route(event *ports.Event) (domain.EventType, bool) {
	eventType, ok := domain.ParseEventType(event.Type)
	if !ok {
		return "", false
	}
	target := eventType.Target()
	if !d.enabled[target] || string(target) != event.TargetKind {
		return "", false
	}
	return eventType, true
}

func (d *Dispatcher) applySafely(ctx context.Context, eventType domain.EventType, event ports.Event) (res applyResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.WithStack(fmt.Errorf("handler panic: %v", r))
		}
	}()
	return d.apply(ctx, eventType, event)
}

func (d *Dispatcher) apply(ctx context.Context, eventType domain.EventType, event ports.Event) (applyResult, error) {
	switch eventType {
	case domain.FormCreated:
		return d.applyFormCreated(ctx, event)
	case domain.FormUpdated:
		return d.applyFormUpdated(ctx, event)
	case domain.FormDeleted:
		return d.applyFormDeleted(ctx, event)
	case domain.QuestionAdded:
		return d.applyQuestionAdded(ctx, event)
	case domain.QuestionUpdated:
		return d.applyQuestionUpdated(ctx, event)
	case domain.QuestionDeleted:
		return d.applyQuestionDeleted(ctx, event)
	case domain.FormSubmitted:
		formID, _ := event.TargetID()
		return applyResult{entityID: formID}, nil
	case domain.EventConfigCreated:
		return d.applyEventConfigCreated(ctx, event)
	case domain.EventConfigUpdated:
		return d.applyEventConfigUpdated(ctx, event)
	case domain.EventConfigDeleted:
		return d.applyEventConfigDeleted(ctx, event)
	default:
		return applyResult{}, &domain.UnknownEventTypeError{Type: string(eventType)}
	}
}

func requireTarget(event ports.Event, field string) (uint64, error) {
	id, ok := event.TargetID()
	if !ok || id == 0 {
		return 0, &domain.ValidationError{Fields: []domain.FieldError{{
			Field:   field,
			Message: field + " is required",
		}}}
	}
	return id, nil
}
