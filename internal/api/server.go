// Package api provides the HTTP transport for remote deployments.
//
// Routes:
//
//	GET  /health                          liveness probe
//	POST /mcp-call                        multiplexed tool invocation (canonical)
//	POST /test_connection                 per-tool compatibility routes
//	POST /get_meta
//	POST /get_entity_types
//	POST /get_entity_values
//	POST /fetch_stories                   (+ deprecated alias route)
//
// Unlike the stdio transport, which reuses one injected client, every HTTP
// request resolves its own credentials and gets a fresh client: requests may
// carry their own key/secret and must never observe each other's.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/synorb/synorb-mcp/internal/log"
	"github.com/synorb/synorb-mcp/internal/synorb"
	"github.com/synorb/synorb-mcp/internal/tools"
)

// Server timeout configuration.
const (
	ReadHeaderTimeout = 10 * time.Second
	ReadTimeout       = 30 * time.Second
	WriteTimeout      = 60 * time.Second
	IdleTimeout       = 120 * time.Second
	ShutdownTimeout   = 10 * time.Second
)

// ServerConfig holds HTTP server construction parameters.
type ServerConfig struct {
	Logger log.Logger

	// ServiceName is reported by the health endpoint.
	ServiceName string

	// BaseURL is the upstream content API base path.
	BaseURL string

	// Defaults are the process-wide fallback credentials, used when a request
	// carries none of its own. May be empty.
	Defaults synorb.Credentials

	// UpstreamTimeout bounds each outbound call. Zero means the client default.
	UpstreamTimeout time.Duration
}

// Server is the HTTP transport for the adapter.
type Server struct {
	mux      *http.ServeMux
	cfg      ServerConfig
	logger   log.Logger
	upstream *http.Client
}

// NewServer creates an HTTP server with all routes registered.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "synorb-mcp"
	}

	timeout := cfg.UpstreamTimeout
	if timeout == 0 {
		timeout = synorb.DefaultTimeout
	}

	s := &Server{
		mux:    http.NewServeMux(),
		cfg:    cfg,
		logger: cfg.Logger,
		// One pooled transport shared across requests; credentials live on the
		// per-request synorb.Client, not here.
		upstream: &http.Client{Timeout: timeout},
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /mcp-call", s.handleMCPCall)

	for _, name := range []string{
		tools.ToolTestConnection,
		tools.ToolGetMeta,
		tools.ToolGetEntityTypes,
		tools.ToolGetEntityValues,
		tools.ToolFetchStories,
	} {
		s.mux.HandleFunc("POST /"+name, s.toolHandler(name))
	}
	// Deprecated route kept for older deployments.
	s.mux.HandleFunc("POST /get-synorb-stream-feed-content", s.toolHandler(tools.ToolFetchStories))
}

// Handler returns the HTTP handler with middleware applied.
// Order: recovery → request ID → tracing → logging → mux.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		requestIDMiddleware,
		tracingMiddleware,
		loggingMiddleware(s.logger),
	)
}

// Run starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP server: %w", err)
	}
}

// dispatcherFor builds a fresh client and dispatcher for one request's
// resolved credentials.
func (s *Server) dispatcherFor(creds synorb.Credentials) (*tools.Dispatcher, error) {
	client, err := synorb.NewClient(synorb.Config{
		BaseURL:     s.cfg.BaseURL,
		Credentials: creds,
		HTTPClient:  s.upstream,
		Logger:      s.logger,
	})
	if err != nil {
		return nil, err
	}
	return tools.NewDispatcher(client, s.logger)
}
