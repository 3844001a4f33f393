package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"formcfg/internal/bootstrap"
	"formcfg/internal/bootstrap/logging"
	domain "formcfg/internal/domain/formconfig"
	"formcfg/internal/errs"
	"formcfg/internal/usecase/formconfig"
)

var formCmd = &cobra.Command{
	Use:   "form",
	Short: "Create, change and inspect form configurations",
}

var formCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Append a form_created event and apply it",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *formconfig.Service) error {
		ctx := commandContext(cmd)

		payload, err := formPayloadFromFlags(cmd)
		if err != nil {
			return err
		}
		result, err := svc.CreateForm(ctx, payload)
		return printMutation(cmd, result, err)
	}),
}

var formUpdateCmd = &cobra.Command{
	Use:   "update <form-id>",
	Short: "Append a form_updated event and apply it",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *formconfig.Service) error {
		ctx := commandContext(cmd)

		formID, err := parseID("form-id", cmd.Flags().Arg(0))
		if err != nil {
			return err
		}
		payload, err := formPayloadFromFlags(cmd)
		if err != nil {
			return err
		}
		result, err := svc.UpdateForm(ctx, formID, payload)
		return printMutation(cmd, result, err)
	}),
}

var formDeleteCmd = &cobra.Command{
	Use:   "delete <form-id>",
	Short: "Append a form_deleted event and apply it",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *formconfig.Service) error {
		formID, err := parseID("form-id", cmd.Flags().Arg(0))
		if err != nil {
			return err
		}
		result, err := svc.DeleteForm(commandContext(cmd), formID)
		return printMutation(cmd, result, err)
	}),
}

var formShowCmd = &cobra.Command{
	Use:   "show <form-id>",
	Short: "Show a form with its questions and last mirror status",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *formconfig.Service) error {
		ctx := commandContext(cmd)

		formID, err := parseID("form-id", cmd.Flags().Arg(0))
		if err != nil {
			return err
		}
		detail, err := svc.GetForm(ctx, formID)
		load := formconfig.FormLoadInput{FormID: formID, UserAgent: "formcfg-cli", Success: err == nil}
		if err != nil {
			load.ErrorMessage = err.Error()
		}
		if recordErr := svc.RecordFormLoad(ctx, load); recordErr != nil {
			logging.Warn(ctx, "record form load failed", slog.Any("err", errs.Loggable(recordErr)))
		}
		if err != nil {
			logging.Error(ctx, "show form failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "show form")
		}
		return printJSON(cmd, formconfig.NewFormDetailView(detail))
	}),
}

var formListCmd = &cobra.Command{
	Use:   "list",
	Short: "List forms",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *formconfig.Service) error {
		forms, err := svc.ListForms(commandContext(cmd))
		if err != nil {
			return errs.Wrap(err, "list forms")
		}
		return printJSON(cmd, formconfig.NewFormViews(forms))
	}),
}

var formSubmitCmd = &cobra.Command{
	Use:   "submit <form-id>",
	Short: "Append a form_submitted event with answers",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *formconfig.Service) error {
		formID, err := parseID("form-id", cmd.Flags().Arg(0))
		if err != nil {
			return err
		}
		answers, _ := cmd.Flags().GetStringToString("answer")
		result, err := svc.SubmitForm(commandContext(cmd), formID, answers)
		return printMutation(cmd, result, err)
	}),
}

// formPayloadFromFlags starts from --file and lets explicit field flags
// override it.
func formPayloadFromFlags(cmd *cobra.Command) (domain.FormPayload, error) {
	var payload domain.FormPayload
	fromFile, err := loadPayload(cmd, &payload)
	if err != nil {
		return domain.FormPayload{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("title") {
		payload.Title, _ = flags.GetString("title")
	}
	if flags.Changed("category") {
		payload.Category, _ = flags.GetString("category")
	}
	if value := optionalString(cmd, "subcategory"); value != nil {
		payload.Subcategory = value
	}
	if flags.Changed("category-meta") {
		payload.CategoryMetadata, _ = flags.GetStringToString("category-meta")
	}
	if flags.Changed("subcategory-meta") {
		payload.SubcategoryMetadata, _ = flags.GetStringToString("subcategory-meta")
	}

	if !fromFile && !flags.Changed("title") && !flags.Changed("category") {
		return domain.FormPayload{}, errNoPayload
	}
	return payload, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	return logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
}

func addFormFlags(cmd *cobra.Command) {
	cmd.Flags().String("file", "", "Form payload file (.json, .yaml, .toml, - for JSON on stdin)")
	cmd.Flags().String("title", "", "Form title")
	cmd.Flags().String("category", "", "Form category")
	cmd.Flags().String("subcategory", "", "Form subcategory")
	cmd.Flags().StringToString("category-meta", nil, "Category metadata key=value pairs")
	cmd.Flags().StringToString("subcategory-meta", nil, "Subcategory metadata key=value pairs")
}

func init() {
	rootCmd.AddCommand(formCmd)
	formCmd.AddCommand(formCreateCmd, formUpdateCmd, formDeleteCmd, formShowCmd, formListCmd, formSubmitCmd)

	addFormFlags(formCreateCmd)
	addFormFlags(formUpdateCmd)
	formSubmitCmd.Flags().StringToString("answer", nil, "Answers as reference=value pairs")
}
