package main

import (
	"fmt"
	"os"

	"github.com/parleyhq/parley/internal/models"
	"github.com/parleyhq/parley/internal/validation"
	"github.com/spf13/cobra"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <script.yaml>...",
		Short: "Validate script files without running them",
		Args:  cobra.MinimumNArgs(1),
		RunE:  validateCommandE,
	}
}

func validateCommandE(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	invalid := 0

	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading script %s: %w", path, err)
		}

		violations := validation.ValidateScriptBytes(data)
		if len(violations) == 0 {
			// Schema-clean files still get the structural checks the schema
			// cannot express, like negative timeouts inside option maps.
			if _, err := models.ParseScript(data); err != nil {
				violations = append(violations, err.Error())
			}
		}

		if len(violations) == 0 {
			fmt.Fprintf(out, "✓ %s\n", path)
			continue
		}
		invalid++
		fmt.Fprintf(out, "✗ %s\n", path)
		for _, v := range violations {
			fmt.Fprintf(out, "    %s\n", v)
		}
	}

	if invalid > 0 {
		return &SessionFailureError{
			Message: fmt.Sprintf("%d of %d script(s) invalid", invalid, len(args)),
		}
	}
	return nil
}
