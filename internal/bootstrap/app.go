package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"formcfg/internal/bootstrap/config"
	"formcfg/internal/bootstrap/database"
	"formcfg/internal/bootstrap/logging"
	"formcfg/internal/errs"
	"formcfg/internal/infrastructure/persistence/schema"
	"formcfg/internal/infrastructure/persistence/sqlite/model"
)

type App struct {
	Config config.Config
	DB     *gorm.DB
}

func New(ctx context.Context, configFile string) (*App, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.app"))
	logging.Info(logCtx, "loading application config", slog.String("config_file", configFile))

	cfg, err := config.Load(logCtx, configFile)
	if err != nil {
		return nil, errs.Wrap(err, "load config")
	}

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, errs.Wrap(err, "open database")
	}

	logging.Info(logCtx, "application bootstrap completed", slog.String("database_driver", cfg.Database.Driver))

	return &App{
		Config: cfg,
		DB:     db,
	}, nil
}

// InitSchema migrates every table and stamps the schema version. It is safe
// to run repeatedly; initialized_at keeps its first value.
func (a *App) InitSchema(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.app"))
	logging.Info(logCtx, "start schema migration")

	tables := append(model.All(), &schema.SchemaMeta{})
	if err := a.DB.WithContext(ctx).AutoMigrate(tables...); err != nil {
		return errs.Wrap(err, "auto migrate schema")
	}

	db := a.DB.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&schema.SchemaMeta{Key: schema.KeyVersion, Value: schema.Version}).Error; err != nil {
		return errs.Wrap(err, "write schema version")
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&schema.SchemaMeta{
		Key:   schema.KeyInitializedAt,
		Value: time.Now().UTC().Format(time.RFC3339),
	}).Error; err != nil {
		return errs.Wrap(err, "write schema init time")
	}

	logging.Info(logCtx, "schema migration completed", slog.String("schema_version", schema.Version))
	return nil
}

// SchemaVersion reads the stamped version, empty when init-db never ran.
func (a *App) SchemaVersion(ctx context.Context) (string, error) {
	var meta schema.SchemaMeta
	err := a.DB.WithContext(ctx).Where("key = ?", schema.KeyVersion).Take(&meta).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || !a.DB.Migrator().HasTable(&schema.SchemaMeta{}) {
			return "", nil
		}
		return "", errs.Wrap(err, "read schema version")
	}
	return meta.Value, nil
}

func (a *App) Close(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	sqlDB, err := a.DB.DB()
	if err != nil {
		return errs.Wrap(err, "get sql db")
	}

	if err := sqlDB.Close(); err != nil {
		return errs.Wrap(err, "close sql db")
	}

	logging.Info(logging.WithAttrs(ctx, slog.String("component", "bootstrap.app")), "database connection closed")
	return nil
}
