package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/rewind"
	"github.com/aretw0/rewind/internal/cli"
	"github.com/aretw0/rewind/internal/logging"
	"github.com/aretw0/rewind/pkg/adapters/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp <file|dir>",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes one machine as an MCP Server so AI agents can drive it through tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		debug, _ := cmd.Flags().GetBool("debug")

		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}
		// Logs go to stderr so they never corrupt JSON-RPC on stdout.
		logger := logging.New(level)
		slog.SetDefault(logger)
		log.SetOutput(os.Stderr)

		cfg, err := loadConfig(cmd, args[0])
		if err != nil {
			return err
		}
		m, err := rewind.New(cfg,
			rewind.WithName(args[0]),
			rewind.WithLogger(logger),
			rewind.WithLifecycleHooks(cli.DebugHooks(logger)),
		)
		if err != nil {
			return err
		}

		srv := mcp.NewServer(m)

		switch transport {
		case "stdio":
			slog.Info("Starting rewind MCP Server (Stdio)...")
			return srv.ServeStdio()
		case "sse":
			slog.Info("Starting rewind MCP Server (SSE)", "port", port)
			sigCtx := cli.NewSignalContext(cmd.Context())
			defer sigCtx.Cancel()

			if err := srv.ServeSSE(sigCtx, port); err != nil {
				return err
			}
			slog.Info("MCP Server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
