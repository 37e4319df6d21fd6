package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/aretw0/rewind"
	"github.com/aretw0/rewind/internal/cli"
	"github.com/aretw0/rewind/internal/config"
	"github.com/aretw0/rewind/internal/logging"
	httpadapter "github.com/aretw0/rewind/pkg/adapters/http"
	"github.com/aretw0/rewind/pkg/adapters/redis"
	"github.com/aretw0/rewind/pkg/domain"
	"github.com/aretw0/rewind/pkg/observability"
	"github.com/aretw0/rewind/pkg/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves a JSON API for creating and driving machines, reading settings from
REWIND_* environment variables (and an optional .env file). Flags win over the environment.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.Addr, _ = cmd.Flags().GetString("addr")
		}
		if cmd.Flags().Changed("config") {
			cfg.ConfigPath, _ = cmd.Flags().GetString("config")
		}
		if cmd.Flags().Changed("strict") {
			cfg.Strict, _ = cmd.Flags().GetBool("strict")
		}
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			cfg.LogLevel = "debug"
		}

		level, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		logger := logging.New(level)

		streams := httpadapter.NewStreamManager()
		hooks := []domain.LifecycleHooks{streams.Hooks(), cli.DebugHooks(logger)}
		handlerOpts := []httpadapter.Option{
			httpadapter.WithStreams(streams),
			httpadapter.WithLogger(logger),
		}

		if cfg.Metrics {
			metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
			hooks = append(hooks, metrics.Hooks())
			handlerOpts = append(handlerOpts, httpadapter.WithMetricsHandler(promhttp.Handler()))
		}

		if cfg.Redis.Addr != "" {
			pub := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
				redis.WithChannel(cfg.Redis.Channel),
				redis.WithLogger(logger),
			)
			defer pub.Close()
			hooks = append(hooks, pub.Hooks())
			logger.Info("Publishing machine events", "redis", cfg.Redis.Addr, "channel", cfg.Redis.Channel)
		}

		machineOpts := []rewind.Option{
			rewind.WithLogger(logger),
			rewind.WithLifecycleHooks(domain.ChainHooks(hooks...)),
		}
		if cfg.Strict {
			machineOpts = append(machineOpts, rewind.WithStrict())
		}
		sessions := session.NewManager(nil,
			session.WithLogger(logger),
			session.WithMachineOptions(machineOpts...),
		)

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		if cfg.ConfigPath != "" {
			machineCfg, err := loadConfig(cmd, cfg.ConfigPath)
			if err != nil {
				return err
			}
			if _, err := sessions.Create(sigCtx, "default", machineCfg); err != nil {
				return fmt.Errorf("failed to create default machine: %w", err)
			}
			logger.Info("Preloaded machine", "id", "default", "config", cfg.ConfigPath)
		}

		srv := &http.Server{
			Addr:    cfg.Addr,
			Handler: httpadapter.NewHandler(sessions, handlerOpts...),
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting rewind server", "addr", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-sigCtx.Done():
			logger.Info("Start shutdown...", "signal", sigCtx.Signal())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("Graceful shutdown did not complete", "timeout", cfg.ShutdownTimeout, "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("rewind server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on (REWIND_ADDR)")
	serveCmd.Flags().String("config", "", "Machine to preload under the id 'default' (REWIND_CONFIG)")
	serveCmd.Flags().Bool("strict", false, "Reject configurations with dangling transitions (REWIND_STRICT)")
}
