package cmd

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"formcfg/internal/bootstrap"
	"formcfg/internal/errs"
	"formcfg/internal/usecase/eventconsole"
	"formcfg/internal/usecase/formconfig"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Terminal console commands",
}

var consoleEventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Browse the event log and redeliver failed events",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *formconfig.Service) error {
		filter, _ := cmd.Flags().GetString("filter")
		limit, _ := cmd.Flags().GetInt("limit")
		refreshInterval, _ := cmd.Flags().GetDuration("refresh-interval")

		model := eventconsole.NewEventModel(commandContext(cmd), svc, eventconsole.Options{
			Filter:          filter,
			Limit:           limit,
			RefreshInterval: refreshInterval,
		})

		program := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return errs.Wrap(err, "run events console")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	consoleCmd.AddCommand(consoleEventsCmd)

	consoleEventsCmd.Flags().String("filter", eventconsole.FilterAll, "Initial filter: all, pending or failed")
	consoleEventsCmd.Flags().Int("limit", 50, "Number of recent events to load")
	consoleEventsCmd.Flags().Duration("refresh-interval", 5*time.Second, "Auto refresh interval")
}
