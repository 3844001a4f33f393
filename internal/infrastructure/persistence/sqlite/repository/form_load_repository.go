package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"formcfg/internal/infrastructure/persistence/sqlite/model"
	"formcfg/internal/ports"
)

type FormLoadRepository struct {
	db *gorm.DB
}

var _ ports.FormLoadRecorder = (*FormLoadRepository)(nil)

func NewFormLoadRepository(db *gorm.DB) *FormLoadRepository {
	return &FormLoadRepository{db: db}
}

func (r *FormLoadRepository) RecordFormLoad(ctx context.Context, load ports.FormLoad) (ports.FormLoad, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.FormLoad{}, err
	}

	row := model.FormLoadHistory{
		FormID:       load.FormID,
		LoadedAt:     orNow(load.LoadedAt, time.Now().UTC()),
		IPAddress:    load.IPAddress,
		UserAgent:    load.UserAgent,
		Success:      load.Success,
		ErrorMessage: load.ErrorMessage,
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.FormLoad{}, storeErr(err, "insert form load")
	}

	load.LoadID = row.LoadID
	load.LoadedAt = row.LoadedAt
	return load, nil
}
