// Package mcp binds the tool dispatcher to the Model Context Protocol using
// the official Go SDK.
//
// The server advertises the static registry on tools/list and forwards every
// tools/call through the shared dispatcher, so both transports (this one and
// the HTTP surface) apply identical validation and produce identical
// envelopes. The upstream client is constructed once by the caller and
// injected; this package never builds clients lazily.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/synorb/synorb-mcp/internal/log"
	"github.com/synorb/synorb-mcp/internal/tools"
)

// Server wraps the MCP SDK server and the tool dispatcher.
type Server struct {
	mcpServer  *mcp.Server
	dispatcher *tools.Dispatcher
	name       string
	version    string
}

// Config holds MCP server configuration.
type Config struct {
	Name       string
	Version    string
	Logger     log.Logger
	Dispatcher *tools.Dispatcher
}

// NewServer creates an MCP server with every registry tool registered.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("server name is required")
	}
	if cfg.Version == "" {
		return nil, fmt.Errorf("server version is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}

	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		}, nil),
		dispatcher: cfg.Dispatcher,
		name:       cfg.Name,
		version:    cfg.Version,
	}

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on the given transport. Blocking; returns when
// the context is cancelled or the transport closes.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.mcpServer.Run(ctx, transport)
}

// registerTools registers every catalog descriptor with its declared schema.
// Handlers take the raw argument map so that the dispatcher performs the same
// validation and defaulting on this transport as on HTTP.
func (s *Server) registerTools() {
	for _, desc := range tools.Catalog() {
		name := desc.Name
		mcp.AddTool(s.mcpServer, &mcp.Tool{
			Name:        name,
			Description: desc.Description,
			InputSchema: desc.InputSchema,
		}, func(ctx context.Context, req *mcp.CallToolRequest, args map[string]any) (*mcp.CallToolResult, any, error) {
			env := s.dispatcher.Dispatch(ctx, name, args)
			return envelopeToMCP(env), nil, nil
		})
	}
}

// envelopeToMCP converts the dispatcher envelope to the SDK result type.
func envelopeToMCP(env *tools.Envelope) *mcp.CallToolResult {
	content := make([]mcp.Content, 0, len(env.Content))
	for _, block := range env.Content {
		content = append(content, &mcp.TextContent{Text: block.Text})
	}
	return &mcp.CallToolResult{Content: content, IsError: env.IsError}
}
