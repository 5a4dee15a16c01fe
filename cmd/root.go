// Package cmd implements the synorb-mcp command line interface.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/synorb/synorb-mcp/internal/config"
	"github.com/synorb/synorb-mcp/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "synorb-mcp",
	Short: "MCP adapter for the Synorb content API",
	Long: `synorb-mcp exposes Synorb content retrieval (connection test, metadata,
entity taxonomy and value lookup, paginated story fetch) as MCP tools.

Without a subcommand it starts the transport selected by the configured
mode: "stdio" (default, for MCP clients) or "http" (remote deployment).`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Mode == config.ModeHTTP {
			return runServe(cfg)
		}
		return runMCP(cfg)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(mcpCmd, serveCmd, versionCmd)
}

// loadConfig initializes the default logger and loads configuration.
// Logs go to stderr: stdout is reserved for MCP JSON-RPC in stdio mode.
func loadConfig() (*config.Config, error) {
	logger := initLogger()
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// initLogger builds the process logger. DEBUG=1 (any value) enables debug
// level.
func initLogger() log.Logger {
	cfg := log.Config{Level: slog.LevelInfo}
	if os.Getenv("DEBUG") != "" {
		cfg.Level = slog.LevelDebug
	}
	return log.New(cfg)
}
