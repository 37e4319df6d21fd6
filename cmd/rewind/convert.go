package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/rewind/pkg/adapters/file"
)

var convertCmd = &cobra.Command{
	Use:   "convert <file|dir> <output.yaml|output.json>",
	Short: "Write the machine as a single YAML or JSON file",
	Long:  `Loads a machine from any supported source and saves it in the format implied by the output extension.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args[0])
		if err != nil {
			return err
		}
		if err := file.Save(cmd.Context(), args[1], cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d states to %s\n", cfg.Len(), args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
}
