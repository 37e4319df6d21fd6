package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/rewind/internal/cli"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <file|dir>",
	Short: "Explore the machine interactively",
	Long:  `Starts a REPL over the machine. Type an event name to fire it, or 'help' for commands.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		initial, _ := cmd.Flags().GetString("initial")
		strict, _ := cmd.Flags().GetBool("strict")
		jsonMode, _ := cmd.Flags().GetBool("json")

		return cli.Execute(cli.RunOptions{
			Path:    args[0],
			Initial: initial,
			Debug:   debug,
			Strict:  strict,
			JSON:    jsonMode,
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("strict", false, "Reject configurations with dangling transitions")
	runCmd.Flags().Bool("json", false, "Print one JSON object per command (NDJSON)")
}
