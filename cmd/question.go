package cmd

import (
	"github.com/spf13/cobra"

	"formcfg/internal/bootstrap"
	domain "formcfg/internal/domain/formconfig"
	"formcfg/internal/usecase/formconfig"
)

var questionCmd = &cobra.Command{
	Use:   "question",
	Short: "Add, change and remove questions of a form",
}

var questionAddCmd = &cobra.Command{
	Use:   "add <form-id>",
	Short: "Append a question_added event and apply it",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *formconfig.Service) error {
		formID, err := parseID("form-id", cmd.Flags().Arg(0))
		if err != nil {
			return err
		}
		payload, err := questionPayloadFromFlags(cmd)
		if err != nil {
			return err
		}
		result, err := svc.AddQuestion(commandContext(cmd), formID, payload)
		return printMutation(cmd, result, err)
	}),
}

var questionUpdateCmd = &cobra.Command{
	Use:   "update <form-id> <question-id>",
	Short: "Append a question_updated event and apply it",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *formconfig.Service) error {
		formID, err := parseID("form-id", cmd.Flags().Arg(0))
		if err != nil {
			return err
		}
		questionID, err := parseID("question-id", cmd.Flags().Arg(1))
		if err != nil {
			return err
		}
		payload, err := questionPayloadFromFlags(cmd)
		if err != nil {
			return err
		}
		payload.ID = &questionID
		result, err := svc.UpdateQuestion(commandContext(cmd), formID, payload)
		return printMutation(cmd, result, err)
	}),
}

var questionDeleteCmd = &cobra.Command{
	Use:   "delete <form-id> <question-id>",
	Short: "Append a question_deleted event and apply it",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *formconfig.Service) error {
		formID, err := parseID("form-id", cmd.Flags().Arg(0))
		if err != nil {
			return err
		}
		questionID, err := parseID("question-id", cmd.Flags().Arg(1))
		if err != nil {
			return err
		}
		result, err := svc.DeleteQuestion(commandContext(cmd), formID, questionID)
		return printMutation(cmd, result, err)
	}),
}

func questionPayloadFromFlags(cmd *cobra.Command) (domain.QuestionPayload, error) {
	var payload domain.QuestionPayload
	fromFile, err := loadPayload(cmd, &payload)
	if err != nil {
		return domain.QuestionPayload{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("reference") {
		payload.Reference, _ = flags.GetString("reference")
	}
	if flags.Changed("content") {
		payload.Content, _ = flags.GetString("content")
	}
	if flags.Changed("answer-type") || (!fromFile && payload.AnswerType == "") {
		payload.AnswerType, _ = flags.GetString("answer-type")
	}
	if flags.Changed("option") {
		payload.Options, _ = flags.GetStringSlice("option")
	}
	if flags.Changed("question-meta") {
		payload.QuestionMetadata, _ = flags.GetStringToString("question-meta")
	}
	if flags.Changed("required") {
		payload.Required, _ = flags.GetBool("required")
	}
	if flags.Changed("order") {
		payload.Order, _ = flags.GetInt("order")
	}
	if value := optionalString(cmd, "ai-instructions"); value != nil {
		payload.AIInstructions = value
	}

	if !fromFile && !flags.Changed("reference") && !flags.Changed("content") {
		return domain.QuestionPayload{}, errNoPayload
	}
	return payload, nil
}

func addQuestionFlags(cmd *cobra.Command) {
	cmd.Flags().String("file", "", "Question payload file (.json, .yaml, .toml, - for JSON on stdin)")
	cmd.Flags().String("reference", "", "Question reference")
	cmd.Flags().String("content", "", "Question text")
	cmd.Flags().String("answer-type", "text", "Answer type (text, list, ...)")
	cmd.Flags().StringSlice("option", nil, "Answer option, repeatable")
	cmd.Flags().StringToString("question-meta", nil, "Question metadata key=value pairs")
	cmd.Flags().Bool("required", false, "Mark the question as required")
	cmd.Flags().Int("order", 0, "Display order")
	cmd.Flags().String("ai-instructions", "", "Instructions for AI assisted answers")
}

func init() {
	rootCmd.AddCommand(questionCmd)
	questionCmd.AddCommand(questionAddCmd, questionUpdateCmd, questionDeleteCmd)

	addQuestionFlags(questionAddCmd)
	addQuestionFlags(questionUpdateCmd)
}
