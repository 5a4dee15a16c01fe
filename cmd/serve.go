package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/synorb/synorb-mcp/internal/api"
	"github.com/synorb/synorb-mcp/internal/config"
	"github.com/synorb/synorb-mcp/internal/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP transport",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runServe(cfg)
	},
}

// runServe starts the HTTP transport, with optional OTLP trace export.
func runServe(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()
	logger.Info("starting HTTP transport", "version", Version, "port", cfg.Port)

	shutdownTracing, err := observability.Setup(ctx, cfg.Tracing, logger)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("tracing shutdown error", "error", err)
		}
	}()

	server, err := api.NewServer(api.ServerConfig{
		Logger:          logger,
		ServiceName:     cfg.Tracing.ServiceName,
		BaseURL:         cfg.BaseURL,
		Defaults:        cfg.Credentials(),
		UpstreamTimeout: time.Duration(cfg.HTTPTimeoutSeconds) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("creating HTTP server: %w", err)
	}

	return server.Run(ctx, fmt.Sprintf(":%d", cfg.Port))
}
