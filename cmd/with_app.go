package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"formcfg/internal/bootstrap"
	"formcfg/internal/bootstrap/logging"
	"formcfg/internal/errs"
	"formcfg/internal/usecase/formconfig"
)

func withApp(run func(cmd *cobra.Command, app *bootstrap.App, svc *formconfig.Service) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := logging.WithAttrs(
			cmd.Context(),
			slog.String("command", cmd.CommandPath()),
			slog.String("config_file", cfgFile),
		)

		var app *bootstrap.App
		var svc *formconfig.Service
		fxApp := fx.New(
			bootstrap.Module,
			fx.NopLogger,
			fx.Provide(func() context.Context { return ctx }),
			fx.Provide(
				fx.Annotate(
					func() string { return cfgFile },
					fx.ResultTags(`name:"configFile"`),
				),
			),
			fx.Populate(&app, &svc),
		)

		startCtx, cancelStart := context.WithTimeout(ctx, 10*time.Second)
		defer cancelStart()
		if err := fxApp.Start(startCtx); err != nil {
			logging.Error(ctx, "bootstrap application failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "start fx application")
		}

		defer func() {
			stopCtx, cancelStop := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancelStop()
			if err := fxApp.Stop(stopCtx); err != nil {
				logging.Error(ctx, "fx application stop failed", slog.Any("err", errs.Loggable(err)))
			}
		}()

		logCtx, err := configuredLogger(ctx, cmd, app)
		if err != nil {
			return err
		}
		cmd.SetContext(logCtx)

		if err := run(cmd, app, svc); err != nil {
			return errs.Wrap(err, "run command")
		}
		return nil
	}
}

// configuredLogger swaps the bootstrap logger for one built from log.*
// config, with --log-level/--log-format taking precedence.
func configuredLogger(ctx context.Context, cmd *cobra.Command, app *bootstrap.App) (context.Context, error) {
	level := app.Config.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	format := app.Config.Log.Format
	if logFormat != "" {
		format = logFormat
	}

	logger, err := logging.New(cmd.ErrOrStderr(), level, format)
	if err != nil {
		return nil, errs.Wrap(err, "configure logger")
	}
	return logging.WithLogger(ctx, logger), nil
}
