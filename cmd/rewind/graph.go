package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/rewind"
	"github.com/aretw0/rewind/internal/presentation/graph"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <file|dir>",
	Short: "Export the machine as a Mermaid diagram",
	Long: `Outputs a Mermaid diagram (graph TD) of every state and transition.
With --events the events are replayed first and the visited path is highlighted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args[0])
		if err != nil {
			return err
		}

		events, _ := cmd.Flags().GetStringSlice("events")
		if len(events) == 0 {
			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(cfg, nil))
			return nil
		}

		m, err := rewind.New(cfg)
		if err != nil {
			return err
		}
		for _, event := range events {
			if _, err := m.Trigger(event); err != nil {
				return fmt.Errorf("replay failed: %w", err)
			}
		}

		overlay := graph.OverlayFrom(m.Snapshot())
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(cfg, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringSlice("events", nil, "Events to replay before drawing (comma separated)")
}
