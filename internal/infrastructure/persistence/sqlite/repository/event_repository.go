package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"formcfg/internal/infrastructure/persistence/sqlite/model"
	"formcfg/internal/ports"
)

// EventRepository implements the append-only event log.
type EventRepository struct {
	db *gorm.DB
}

var _ ports.EventLog = (*EventRepository)(nil)

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) AppendEvent(ctx context.Context, input ports.EventCreate) (ports.Event, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Event{}, err
	}

	data := datatypes.JSON(input.Data)
	if len(data) == 0 {
		data = datatypes.JSON("{}")
	}

	row := model.Event{
		Type:          input.Type,
		Data:          data,
		EventMetadata: datatypes.NewJSONType(nonNilMap(input.Metadata)),
		Processed:     false,
		TargetKind:    input.TargetKind,
		FormID:        input.FormID,
		EventConfigID: input.EventConfigID,
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.Event{}, storeErr(err, "insert event")
	}
	return mapEvent(row), nil
}

func (r *EventRepository) GetEvent(ctx context.Context, eventID uint64) (ports.Event, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Event{}, err
	}

	var row model.Event
	if err := db.Where("event_id = ?", eventID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Event{}, ports.ErrEventNotFound
		}
		return ports.Event{}, storeErr(err, "query event")
	}
	return mapEvent(row), nil
}

func (r *EventRepository) ListEventsByTarget(ctx context.Context, targetKind string, targetID uint64) ([]ports.Event, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var column string
	switch targetKind {
	case ports.TargetForm:
		column = "form_id"
	case ports.TargetEventConfig:
		column = "event_config_id"
	default:
		return nil, fmt.Errorf("unknown target kind %q", targetKind)
	}

	var rows []model.Event
	if err := db.
		Where("target_kind = ? AND "+column+" = ?", targetKind, targetID).
		Order("event_id asc").
		Find(&rows).Error; err != nil {
		return nil, storeErr(err, "query events by target")
	}
	return mapEvents(rows), nil
}

func (r *EventRepository) ListPendingEvents(ctx context.Context, limit int) ([]ports.Event, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Where("processed = ?", false).Order("event_id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []model.Event
	if err := query.Find(&rows).Error; err != nil {
		return nil, storeErr(err, "query pending events")
	}
	return mapEvents(rows), nil
}

func (r *EventRepository) ListRecentEvents(ctx context.Context, limit int) ([]ports.Event, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Order("event_id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []model.Event
	if err := query.Find(&rows).Error; err != nil {
		return nil, storeErr(err, "query recent events")
	}
	return mapEvents(rows), nil
}

func (r *EventRepository) UpdateEventStatus(ctx context.Context, update ports.EventStatusUpdate) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	values := map[string]any{
		"processed": update.Processed,
		"error":     update.Error,
	}
	if update.FormID != nil {
		values["form_id"] = *update.FormID
	}
	if update.EventConfigID != nil {
		values["event_config_id"] = *update.EventConfigID
	}

	result := db.Model(&model.Event{}).Where("event_id = ?", update.EventID).Updates(values)
	if result.Error != nil {
		return storeErr(result.Error, "update event status")
	}
	if result.RowsAffected == 0 {
		return ports.ErrEventNotFound
	}
	return nil
}

func mapEvents(rows []model.Event) []ports.Event {
	items := make([]ports.Event, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapEvent(row))
	}
	return items
}

func mapEvent(row model.Event) ports.Event {
	return ports.Event{
		EventID:       row.EventID,
		Type:          row.Type,
		Data:          json.RawMessage(row.Data),
		Metadata:      nonNilMap(row.EventMetadata.Data()),
		CreatedAt:     row.CreatedAt,
		Processed:     row.Processed,
		Error:         row.Error,
		TargetKind:    row.TargetKind,
		FormID:        row.FormID,
		EventConfigID: row.EventConfigID,
	}
}
