package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/rewind/internal/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|dir>",
	Short: "Check the machine for consistency",
	Long: `Reports an undeclared initial state and transitions pointing at undeclared
states as errors, and states unreachable from the initial state as warnings.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		report := validator.Validate(cfg)
		for _, w := range report.Warnings {
			fmt.Fprintf(out, "warning: %s\n", w)
		}
		if err := report.Err(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}

		fmt.Fprintln(out, "Machine is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
