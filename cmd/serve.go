package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"formcfg/internal/bootstrap"
	"formcfg/internal/errs"
	"formcfg/internal/infrastructure/httpapi"
	"formcfg/internal/usecase/formconfig"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API until interrupted",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *formconfig.Service) error {
		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		addr := app.Config.HTTP.Addr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}
		if err := httpapi.Serve(ctx, addr, svc); err != nil {
			return errs.Wrap(err, "serve http api")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (overrides http.addr)")
}
