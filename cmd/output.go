package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"formcfg/internal/errs"
	"formcfg/internal/infrastructure/payloadfile"
	"formcfg/internal/usecase/formconfig"
)

func printJSON(cmd *cobra.Command, value any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(value); err != nil {
		return errs.Wrap(err, "write json output")
	}
	return nil
}

// printMutation writes the result and turns a failed mutation into a
// non-zero exit.
func printMutation(cmd *cobra.Command, result formconfig.MutationResult, err error) error {
	if writeErr := printJSON(cmd, result); writeErr != nil {
		return writeErr
	}
	return err
}

// loadPayload reads --file into out when set. "-" reads JSON from stdin.
func loadPayload(cmd *cobra.Command, out any) (bool, error) {
	path, _ := cmd.Flags().GetString("file")
	path = strings.TrimSpace(path)
	if path == "" {
		return false, nil
	}
	if path == "-" {
		if err := payloadfile.Decode(cmd.InOrStdin(), payloadfile.FormatJSON, out); err != nil {
			return false, errs.Wrap(err, "read payload from stdin")
		}
		return true, nil
	}
	if err := payloadfile.Load(path, out); err != nil {
		return false, errs.Wrapf(err, "read payload file %q", path)
	}
	return true, nil
}

func parseID(name string, raw string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, raw)
	}
	return id, nil
}

func optionalString(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	value, _ := cmd.Flags().GetString(name)
	return &value
}

var errNoPayload = errors.New("payload required: pass --file or the field flags")
