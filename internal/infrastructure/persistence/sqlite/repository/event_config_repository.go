package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"formcfg/internal/infrastructure/persistence/sqlite/model"
	"formcfg/internal/ports"
)

type EventConfigRepository struct {
	db *gorm.DB
}

var _ ports.EventConfigRepository = (*EventConfigRepository)(nil)

func NewEventConfigRepository(db *gorm.DB) *EventConfigRepository {
	return &EventConfigRepository{db: db}
}

func (r *EventConfigRepository) CreateEventConfig(ctx context.Context, cfg ports.EventConfig) (ports.EventConfig, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.EventConfig{}, err
	}

	now := time.Now().UTC()
	row := model.EventConfiguration{
		EventReference:    cfg.EventReference,
		EventType:         cfg.EventType,
		EventDescription:  cfg.EventDescription,
		EventMetadata:     datatypes.NewJSONType(nonNilMap(cfg.EventMetadata)),
		EventTypeMetadata: datatypes.NewJSONType(nonNilMap(cfg.EventTypeMetadata)),
		EventDates:        datatypes.NewJSONType(model.EventDates{Dates: nonNilSlice(cfg.EventDates)}),
		ValidityStartDate: cfg.ValidityStartDate,
		ValidityEndDate:   cfg.ValidityEndDate,
		RegistrationDate:  orNow(cfg.RegistrationDate, now),
		LastUpdateDate:    orNow(cfg.LastUpdateDate, now),
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.EventConfig{}, storeErr(err, "insert event configuration")
	}
	return mapEventConfig(row), nil
}

func (r *EventConfigRepository) GetEventConfig(ctx context.Context, eventConfigID uint64) (ports.EventConfig, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.EventConfig{}, err
	}

	var row model.EventConfiguration
	if err := db.Where("event_config_id = ?", eventConfigID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.EventConfig{}, ports.ErrEventConfigNotFound
		}
		return ports.EventConfig{}, storeErr(err, "query event configuration")
	}
	return mapEventConfig(row), nil
}

func (r *EventConfigRepository) UpdateEventConfig(ctx context.Context, cfg ports.EventConfig) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	result := db.Model(&model.EventConfiguration{}).
		Where("event_config_id = ?", cfg.EventConfigID).
		Updates(map[string]any{
			"event_reference":     cfg.EventReference,
			"event_type":          cfg.EventType,
			"event_description":   cfg.EventDescription,
			"event_metadata":      datatypes.NewJSONType(nonNilMap(cfg.EventMetadata)),
			"event_type_metadata": datatypes.NewJSONType(nonNilMap(cfg.EventTypeMetadata)),
			"event_dates":         datatypes.NewJSONType(model.EventDates{Dates: nonNilSlice(cfg.EventDates)}),
			"validity_start_date": cfg.ValidityStartDate,
			"validity_end_date":   cfg.ValidityEndDate,
			"last_update_date":    orNow(cfg.LastUpdateDate, time.Now().UTC()),
		})
	if result.Error != nil {
		return storeErr(result.Error, "update event configuration")
	}
	if result.RowsAffected == 0 {
		return ports.ErrEventConfigNotFound
	}
	return nil
}

func (r *EventConfigRepository) DeleteEventConfig(ctx context.Context, eventConfigID uint64) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}

	result := db.Where("event_config_id = ?", eventConfigID).Delete(&model.EventConfiguration{})
	if result.Error != nil {
		return false, storeErr(result.Error, "delete event configuration")
	}
	return result.RowsAffected > 0, nil
}

func (r *EventConfigRepository) ListEventConfigs(ctx context.Context) ([]ports.EventConfig, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.EventConfiguration
	if err := db.Order("event_config_id asc").Find(&rows).Error; err != nil {
		return nil, storeErr(err, "query event configurations")
	}

	items := make([]ports.EventConfig, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapEventConfig(row))
	}
	return items, nil
}

func mapEventConfig(row model.EventConfiguration) ports.EventConfig {
	return ports.EventConfig{
		EventConfigID:     row.EventConfigID,
		EventReference:    row.EventReference,
		EventType:         row.EventType,
		EventDescription:  row.EventDescription,
		EventMetadata:     nonNilMap(row.EventMetadata.Data()),
		EventTypeMetadata: nonNilMap(row.EventTypeMetadata.Data()),
		EventDates:        nonNilSlice(row.EventDates.Data().Dates),
		ValidityStartDate: row.ValidityStartDate,
		ValidityEndDate:   row.ValidityEndDate,
		RegistrationDate:  row.RegistrationDate,
		LastUpdateDate:    row.LastUpdateDate,
	}
}

func orNow(t time.Time, now time.Time) time.Time {
	if t.IsZero() {
		return now
	}
	return t
}
