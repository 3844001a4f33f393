package formconfig

import (
	"context"
	"errors"
	"log/slog"

	"formcfg/internal/bootstrap/logging"
	domain "formcfg/internal/domain/formconfig"
	"formcfg/internal/errs"
	"formcfg/internal/ports"
)

// Redeliver dispatches a stored event again. Processed events short-circuit
// to success without writes.
func (s *Service) Redeliver(ctx context.Context, eventID uint64) (MutationResult, error) {
	if err := s.checkReady(ctx); err != nil {
		return MutationResult{}, err
	}

	var (
		event         ports.Event
		wasProcessed  bool
		res           applyResult
		dispatchErr   error
		eventNotFound bool
	)
	txErr := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		loaded, err := s.events.GetEvent(txCtx, eventID)
		if err != nil {
			if errors.Is(err, ports.ErrEventNotFound) {
				eventNotFound = true
				return nil
			}
			return err
		}
		wasProcessed = loaded.Processed
		res, dispatchErr = s.dispatcher.dispatch(txCtx, &loaded)
		event = loaded
		if errs.IsTransient(dispatchErr) || isStatusWriteFailure(dispatchErr) {
			return dispatchErr
		}
		return nil
	})
	if txErr != nil {
		err := domain.AsStoreError(txErr)
		return failedResult(eventID, err), err
	}
	if eventNotFound {
		err := errs.Wrapf(ports.ErrEventNotFound, "event %d", eventID)
		return MutationResult{Success: false, EventID: eventID, Error: err.Error()}, err
	}
	if dispatchErr != nil {
		return failedResult(event.EventID, dispatchErr), dispatchErr
	}

	result := MutationResult{Success: true, EventID: event.EventID, EntityID: res.entityID}
	if wasProcessed {
		if id, ok := event.TargetID(); ok {
			result.EntityID = id
		}
		return result, nil
	}
	if event.Type == domain.FormCreated.String() {
		synced := s.syncMirror(ctx, res.entityID)
		result.SheetsSync = &synced
	}
	return result, nil
}

// ReplayPending redelivers unprocessed events in id order, each in its own
// transaction. A failing event does not stop the batch.
func (s *Service) ReplayPending(ctx context.Context, limit int) (ReplayReport, error) {
	if err := s.checkReady(ctx); err != nil {
		return ReplayReport{}, err
	}

	pending, err := s.events.ListPendingEvents(ctx, limit)
	if err != nil {
		return ReplayReport{}, domain.AsStoreError(err)
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "usecase.formconfig.replay"))
	report := ReplayReport{Results: make([]MutationResult, 0, len(pending))}
	for _, event := range pending {
		if err := ctx.Err(); err != nil {
			return report, errs.Wrap(err, "check context")
		}

		report.Attempted++
		result, err := s.Redeliver(ctx, event.EventID)
		report.Results = append(report.Results, result)
		if err != nil {
			report.Failed++
			if domain.KindOf(err) == domain.KindStore {
				logging.Warn(logCtx, "replay event failed", slog.Uint64("event_id", event.EventID), slog.Any("err", errs.Loggable(err)))
			}
			continue
		}
		report.Succeeded++
	}

	logging.Info(logCtx, "replay finished",
		slog.Int("attempted", report.Attempted),
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", report.Failed),
	)
	return report, nil
}
