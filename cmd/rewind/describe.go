package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aretw0/rewind/internal/presentation/tui"
)

var describeCmd = &cobra.Command{
	Use:   "describe <file|dir>",
	Short: "Print a readable description of the machine",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args[0])
		if err != nil {
			return err
		}

		md := tui.Describe(filepath.Base(args[0]), cfg)

		render := func(s string) (string, error) { return s, nil }
		if f, ok := cmd.OutOrStdout().(*os.File); ok {
			render = tui.NewRenderer(f)
		}
		out, err := render(md)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
}
