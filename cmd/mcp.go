package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	mcpSdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/synorb/synorb-mcp/internal/config"
	"github.com/synorb/synorb-mcp/internal/mcp"
	"github.com/synorb/synorb-mcp/internal/synorb"
	"github.com/synorb/synorb-mcp/internal/tools"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runMCP(cfg)
	},
}

// runMCP starts the MCP server on stdio transport. The upstream client is
// built once here from process-wide configuration and injected; per-request
// credential overrides exist only on the HTTP transport.
func runMCP(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()
	logger.Info("starting MCP server", "version", Version)

	client, err := synorb.NewClient(synorb.Config{
		BaseURL:     cfg.BaseURL,
		Credentials: cfg.Credentials(),
		HTTPClient:  &http.Client{Timeout: time.Duration(cfg.HTTPTimeoutSeconds) * time.Second},
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("creating upstream client: %w", err)
	}

	dispatcher, err := tools.NewDispatcher(client, logger)
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}

	server, err := mcp.NewServer(mcp.Config{
		Name:       "synorb-mcp",
		Version:    Version,
		Logger:     logger,
		Dispatcher: dispatcher,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	logger.Info("MCP server ready", "name", "synorb-mcp", "version", Version, "transport", "stdio")

	if err := server.Run(ctx, &mcpSdk.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}

	logger.Info("MCP server shut down gracefully")
	return nil
}
