package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/rewind/internal/cli"
	"github.com/aretw0/rewind/pkg/domain"
)

var rootCmd = &cobra.Command{
	Use:   "rewind",
	Short: "rewind drives configuration-defined state machines with undo and redo",
	Long: `rewind loads a state machine from a YAML/JSON file or a directory of
Markdown documents (one per state) and lets you validate, visualize, explore
and serve it.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().Bool("debug", false, "Log machine activity to stderr")
	rootCmd.PersistentFlags().String("initial", "", "Override the initial state of a directory config")
}

// loadConfig reads the configuration at path using the loader matching its kind.
func loadConfig(cmd *cobra.Command, path string) (*domain.Config, error) {
	initial, _ := cmd.Flags().GetString("initial")
	loader, err := cli.OpenLoader(path, initial)
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
