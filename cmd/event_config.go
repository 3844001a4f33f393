package cmd

import (
	"github.com/spf13/cobra"

	"formcfg/internal/bootstrap"
	domain "formcfg/internal/domain/formconfig"
	"formcfg/internal/errs"
	"formcfg/internal/usecase/formconfig"
)

var eventConfigCmd = &cobra.Command{
	Use:     "event-config",
	Aliases: []string{"ec"},
	Short:   "Create, change and inspect event configurations",
}

var eventConfigCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Append an event_created event and apply it",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *formconfig.Service) error {
		payload, err := eventConfigPayloadFromFlags(cmd)
		if err != nil {
			return err
		}
		result, err := svc.CreateEventConfig(commandContext(cmd), payload)
		return printMutation(cmd, result, err)
	}),
}

var eventConfigUpdateCmd = &cobra.Command{
	Use:   "update <event-config-id>",
	Short: "Append an event_updated event and apply it",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *formconfig.Service) error {
		id, err := parseID("event-config-id", cmd.Flags().Arg(0))
		if err != nil {
			return err
		}
		payload, err := eventConfigPayloadFromFlags(cmd)
		if err != nil {
			return err
		}
		result, err := svc.UpdateEventConfig(commandContext(cmd), id, payload)
		return printMutation(cmd, result, err)
	}),
}

var eventConfigDeleteCmd = &cobra.Command{
	Use:   "delete <event-config-id>",
	Short: "Append an event_deleted event and apply it",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *formconfig.Service) error {
		id, err := parseID("event-config-id", cmd.Flags().Arg(0))
		if err != nil {
			return err
		}
		result, err := svc.DeleteEventConfig(commandContext(cmd), id)
		return printMutation(cmd, result, err)
	}),
}

var eventConfigShowCmd = &cobra.Command{
	Use:   "show <event-config-id>",
	Short: "Show an event configuration",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *formconfig.Service) error {
		id, err := parseID("event-config-id", cmd.Flags().Arg(0))
		if err != nil {
			return err
		}
		cfg, err := svc.GetEventConfig(commandContext(cmd), id)
		if err != nil {
			return errs.Wrap(err, "show event configuration")
		}
		return printJSON(cmd, formconfig.NewEventConfigView(cfg))
	}),
}

var eventConfigListCmd = &cobra.Command{
	Use:   "list",
	Short: "List event configurations",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *formconfig.Service) error {
		items, err := svc.ListEventConfigs(commandContext(cmd))
		if err != nil {
			return errs.Wrap(err, "list event configurations")
		}
		return printJSON(cmd, formconfig.NewEventConfigViews(items))
	}),
}

func eventConfigPayloadFromFlags(cmd *cobra.Command) (domain.EventConfigPayload, error) {
	var payload domain.EventConfigPayload
	fromFile, err := loadPayload(cmd, &payload)
	if err != nil {
		return domain.EventConfigPayload{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("reference") {
		payload.EventReference, _ = flags.GetString("reference")
	}
	if flags.Changed("type") {
		payload.EventType, _ = flags.GetString("type")
	}
	if value := optionalString(cmd, "description"); value != nil {
		payload.EventDescription = value
	}
	if flags.Changed("meta") {
		payload.EventMetadata, _ = flags.GetStringToString("meta")
	}
	if flags.Changed("type-meta") {
		payload.EventTypeMetadata, _ = flags.GetStringToString("type-meta")
	}
	if flags.Changed("date") {
		dates, _ := flags.GetStringSlice("date")
		payload.EventDates = &domain.EventDates{Dates: dates}
	}
	if value := optionalString(cmd, "valid-from"); value != nil {
		payload.ValidityStartDate = value
	}
	if value := optionalString(cmd, "valid-until"); value != nil {
		payload.ValidityEndDate = value
	}

	if !fromFile && !flags.Changed("reference") && !flags.Changed("type") {
		return domain.EventConfigPayload{}, errNoPayload
	}
	return payload, nil
}

func addEventConfigFlags(cmd *cobra.Command) {
	cmd.Flags().String("file", "", "Event configuration payload file (.json, .yaml, .toml, - for JSON on stdin)")
	cmd.Flags().String("reference", "", "Event reference")
	cmd.Flags().String("type", "", "Event type")
	cmd.Flags().String("description", "", "Event description")
	cmd.Flags().StringToString("meta", nil, "Event metadata key=value pairs")
	cmd.Flags().StringToString("type-meta", nil, "Event type metadata key=value pairs")
	cmd.Flags().StringSlice("date", nil, "Event date (ISO 8601), repeatable")
	cmd.Flags().String("valid-from", "", "Validity window start (ISO 8601)")
	cmd.Flags().String("valid-until", "", "Validity window end (ISO 8601)")
}

func init() {
	rootCmd.AddCommand(eventConfigCmd)
	eventConfigCmd.AddCommand(eventConfigCreateCmd, eventConfigUpdateCmd, eventConfigDeleteCmd, eventConfigShowCmd, eventConfigListCmd)

	addEventConfigFlags(eventConfigCreateCmd)
	addEventConfigFlags(eventConfigUpdateCmd)
}
