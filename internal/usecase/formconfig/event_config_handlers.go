package formconfig

import (
	"context"
	"errors"
	"log/slog"

	"formcfg/internal/bootstrap/logging"
	domain "formcfg/internal/domain/formconfig"
	"formcfg/internal/ports"
)

func (d *Dispatcher) applyEventConfigCreated(ctx context.Context, event ports.Event) (applyResult, error) {
	cfg, err := decodeEventConfig(event)
	if err != nil {
		return applyResult{}, err
	}

	now := d.now()
	cfg.RegistrationDate = now
	cfg.LastUpdateDate = now
	created, err := d.eventConfigs.CreateEventConfig(ctx, cfg)
	if err != nil {
		return applyResult{}, err
	}
	return applyResult{createdTarget: created.EventConfigID, entityID: created.EventConfigID}, nil
}

func (d *Dispatcher) applyEventConfigUpdated(ctx context.Context, event ports.Event) (applyResult, error) {
	id, err := requireTarget(event, "event_config_id")
	if err != nil {
		return applyResult{}, err
	}

	current, err := d.eventConfigs.GetEventConfig(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrEventConfigNotFound) {
			return applyResult{}, domain.EventConfigNotFound(id)
		}
		return applyResult{}, err
	}

	next, err := decodeEventConfig(event)
	if err != nil {
		return applyResult{}, err
	}
	next.EventConfigID = id
	next.RegistrationDate = current.RegistrationDate
	next.LastUpdateDate = d.now()

	if err := d.eventConfigs.UpdateEventConfig(ctx, next); err != nil {
		if errors.Is(err, ports.ErrEventConfigNotFound) {
			return applyResult{}, domain.EventConfigNotFound(id)
		}
		return applyResult{}, err
	}
	return applyResult{entityID: id}, nil
}

func (d *Dispatcher) applyEventConfigDeleted(ctx context.Context, event ports.Event) (applyResult, error) {
	id, err := requireTarget(event, "event_config_id")
	if err != nil {
		return applyResult{}, err
	}

	existed, err := d.eventConfigs.DeleteEventConfig(ctx, id)
	if err != nil {
		return applyResult{}, err
	}
	if !existed {
		logging.Debug(ctx, "event configuration already absent, delete is a no-op", slog.Uint64("event_config_id", id))
	}
	return applyResult{entityID: id}, nil
}

func decodeEventConfig(event ports.Event) (ports.EventConfig, error) {
	payload, err := domain.DecodeEventConfig(event.Data)
	if err != nil {
		return ports.EventConfig{}, err
	}
	payload = domain.NormalizeEventConfig(payload)
	if err := domain.ValidateEventConfig(payload); err != nil {
		return ports.EventConfig{}, err
	}

	start, end, err := payload.ValidityWindow()
	if err != nil {
		return ports.EventConfig{}, err
	}

	return ports.EventConfig{
		EventReference:    payload.EventReference,
		EventType:         payload.EventType,
		EventDescription:  payload.EventDescription,
		EventMetadata:     payload.EventMetadata,
		EventTypeMetadata: payload.EventTypeMetadata,
		EventDates:        payload.Dates(),
		ValidityStartDate: start,
		ValidityEndDate:   end,
	}, nil
}
