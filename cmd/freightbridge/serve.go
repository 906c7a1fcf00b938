package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sinoafrica/freightbridge/internal/config"
	"github.com/sinoafrica/freightbridge/internal/logging"
	"github.com/sinoafrica/freightbridge/internal/server"
	"github.com/sinoafrica/freightbridge/internal/telemetry"
	"github.com/sinoafrica/freightbridge/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the contact API server",
	Long: `Run the contact API server. Configuration is read from the environment,
optionally seeded from .env.<ENV> and .env files.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		if err := initLogger(cfg.LogLevel, cfg.LogFile); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer logging.GetGlobalLogger().Close()
		logger.EnableRequestLogging(cfg.LogRequests)

		logger.Info("Starting %s in %s mode", version.Info(), cfg.Environment)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		shutdownTracing, err := telemetry.Setup(ctx, "freightbridge", version.Version, cfg.OTLPEndpoint)
		if err != nil {
			logger.Warn("Tracing disabled: %v", err)
		}
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				logger.Warn("Failed to flush traces: %v", err)
			}
		}()

		srv, closeStore, err := server.Build(ctx, cfg)
		if err != nil {
			logger.Error("Failed to create server: %v", err)
			return err
		}
		defer func() {
			if err := closeStore(); err != nil {
				logger.Warn("Failed to close store: %v", err)
			}
		}()

		logger.Info("Using %s store and %s dispatcher", cfg.StoreDriver, cfg.Dispatcher)

		if err := srv.Start(ctx); err != nil {
			logger.Error("Server error: %v", err)
			return err
		}
		logger.Info("Server stopped")
		return nil
	},
}
