package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"formcfg/internal/bootstrap"
	"formcfg/internal/bootstrap/logging"
	"formcfg/internal/errs"
	"formcfg/internal/ports"
	"formcfg/internal/usecase/formconfig"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect and redeliver the event log",
}

var eventsShowCmd = &cobra.Command{
	Use:   "show <event-id>",
	Short: "Show one event",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *formconfig.Service) error {
		id, err := parseID("event-id", cmd.Flags().Arg(0))
		if err != nil {
			return err
		}
		event, err := svc.GetEvent(commandContext(cmd), id)
		if err != nil {
			return errs.Wrap(err, "show event")
		}
		return printJSON(cmd, formconfig.NewEventView(event))
	}),
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List events, newest first, or per target",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *formconfig.Service) error {
		ctx := commandContext(cmd)

		events, err := listEvents(cmd, svc)
		if err != nil {
			logging.Error(ctx, "list events failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list events")
		}
		return printJSON(cmd, formconfig.NewEventViews(events))
	}),
}

var eventsRedeliverCmd = &cobra.Command{
	Use:   "redeliver <event-id>",
	Short: "Dispatch a stored event again; processed events are a no-op",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *formconfig.Service) error {
		id, err := parseID("event-id", cmd.Flags().Arg(0))
		if err != nil {
			return err
		}
		result, err := svc.Redeliver(commandContext(cmd), id)
		return printMutation(cmd, result, err)
	}),
}

var eventsReplayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Redeliver every unprocessed event in id order",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *formconfig.Service) error {
		limit, _ := cmd.Flags().GetInt("limit")
		report, err := svc.ReplayPending(commandContext(cmd), limit)
		if err != nil {
			return errs.Wrap(err, "replay pending events")
		}
		return printJSON(cmd, report)
	}),
}

func listEvents(cmd *cobra.Command, svc *formconfig.Service) ([]ports.Event, error) {
	ctx := commandContext(cmd)
	flags := cmd.Flags()
	limit, _ := flags.GetInt("limit")
	pending, _ := flags.GetBool("pending")
	formID, _ := flags.GetUint64("form")
	eventConfigID, _ := flags.GetUint64("event-config")

	switch {
	case formID != 0 && eventConfigID != 0:
		return nil, fmt.Errorf("--form and --event-config are mutually exclusive")
	case formID != 0:
		return svc.ListEventsForForm(ctx, formID)
	case eventConfigID != 0:
		return svc.ListEventsForEventConfig(ctx, eventConfigID)
	case pending:
		return svc.ListPendingEvents(ctx, limit)
	default:
		return svc.ListRecentEvents(ctx, limit)
	}
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsShowCmd, eventsListCmd, eventsRedeliverCmd, eventsReplayCmd)

	eventsListCmd.Flags().Int("limit", 50, "Maximum number of events (0 for all)")
	eventsListCmd.Flags().Bool("pending", false, "Only unprocessed events, oldest first")
	eventsListCmd.Flags().Uint64("form", 0, "Only events targeting this form")
	eventsListCmd.Flags().Uint64("event-config", 0, "Only events targeting this event configuration")
	eventsReplayCmd.Flags().Int("limit", 0, "Maximum number of events to replay (0 for all)")
}
