package bootstrap

import (
	"context"
	"log/slog"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"formcfg/internal/bootstrap/config"
	"formcfg/internal/bootstrap/database"
	"formcfg/internal/bootstrap/logging"
	domain "formcfg/internal/domain/formconfig"
	"formcfg/internal/errs"
	cacheinfra "formcfg/internal/infrastructure/cache"
	sqliterepo "formcfg/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "formcfg/internal/infrastructure/persistence/sqlite/uow"
	"formcfg/internal/infrastructure/sheets"
	"formcfg/internal/ports"
	"formcfg/internal/usecase/formconfig"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewFormRepository,
			fx.As(new(ports.FormRepository)),
		),
		fx.Annotate(
			sqliterepo.NewEventConfigRepository,
			fx.As(new(ports.EventConfigRepository)),
		),
		fx.Annotate(
			sqliterepo.NewEventRepository,
			fx.As(new(ports.EventLog)),
		),
		fx.Annotate(
			sqliterepo.NewFormLoadRepository,
			fx.As(new(ports.FormLoadRecorder)),
		),
	),
	fx.Provide(provideUnitOfWork),
	fx.Provide(
		fx.Annotate(
			cacheinfra.NewSQLiteCache,
			fx.As(new(ports.Cache)),
		),
	),
	fx.Provide(provideSheetMirror),
	fx.Provide(provideService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

// provideUnitOfWork wraps the gorm unit of work with the commit retry loop.
func provideUnitOfWork(cfg config.Config, db *gorm.DB) ports.UnitOfWork {
	return sqliteuow.NewRetryingUnitOfWork(sqliteuow.NewUnitOfWork(db), sqliteuow.RetryPolicy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		MaxDelay:    cfg.Retry.MaxDelay,
	})
}

// provideSheetMirror picks the Google Sheets mirror when enabled. A mirror
// that fails to start degrades to the no-op one instead of failing boot.
func provideSheetMirror(ctx context.Context, cfg config.Config) ports.SheetMirror {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))
	if !cfg.Sheets.Enabled {
		return sheets.NoopMirror{}
	}

	mirror, err := sheets.NewMirror(logCtx, cfg.Sheets)
	if err != nil {
		logging.Error(logCtx, "sheets mirror unavailable, continuing without it", slog.Any("err", errs.Loggable(err)))
		return sheets.NoopMirror{}
	}
	return mirror
}

type serviceParams struct {
	fx.In

	Config       config.Config
	Forms        ports.FormRepository
	EventConfigs ports.EventConfigRepository
	Events       ports.EventLog
	Loads        ports.FormLoadRecorder
	UnitOfWork   ports.UnitOfWork
	Mirror       ports.SheetMirror
	Cache        ports.Cache
}

func provideService(p serviceParams) (*formconfig.Service, error) {
	domains, err := PipelineDomains(p.Config.Pipeline)
	if err != nil {
		return nil, err
	}

	return formconfig.NewService(formconfig.Dependencies{
		Forms:        p.Forms,
		EventConfigs: p.EventConfigs,
		Events:       p.Events,
		Loads:        p.Loads,
		UnitOfWork:   p.UnitOfWork,
		Mirror:       p.Mirror,
		Cache:        p.Cache,
		Domains:      domains,
	}), nil
}

// PipelineDomains maps configured domain names onto dispatcher target kinds.
func PipelineDomains(cfg config.PipelineConfig) ([]domain.TargetKind, error) {
	kinds := make([]domain.TargetKind, 0, len(cfg.Domains))
	for _, name := range cfg.Domains {
		kind, err := domain.TargetForDomain(name)
		if err != nil {
			return nil, errs.Wrap(err, "resolve pipeline domains")
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}
