package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/synorb/synorb-mcp/internal/synorb"
	"github.com/synorb/synorb-mcp/internal/tools"
)

// Credential override keys accepted in per-tool request bodies, and the
// header/query names used by /mcp-call.
const (
	bodyKeyAPIKey    = "api_key"
	bodyKeyAPISecret = "api_secret"

	headerAPIKey    = "x-synorb-key"
	headerAPISecret = "x-synorb-secret"
)

// maxRequestBody bounds inbound JSON bodies.
const maxRequestBody = 1 << 20

// toolHandler serves one per-tool compatibility route. The body carries the
// tool arguments plus an optional api_key/api_secret override; the response
// is the raw client Result. Upstream failures still answer 200 with an
// error-status Result; only request-fatal rejections map to 4xx.
func (s *Server) toolHandler(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		args, err := decodeBody(r)
		if err != nil {
			writeError(w, s.logger, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}

		creds := s.cfg.Defaults
		if k, ok := args[bodyKeyAPIKey].(string); ok && k != "" {
			if sec, ok := args[bodyKeyAPISecret].(string); ok && sec != "" {
				creds = synorb.Credentials{APIKey: k, APISecret: sec}
			}
		}
		delete(args, bodyKeyAPIKey)
		delete(args, bodyKeyAPISecret)

		d, err := s.dispatcherFor(creds)
		if err != nil {
			s.logger.Error("building dispatcher failed", "error", err)
			writeError(w, s.logger, http.StatusInternalServerError, "internal server error")
			return
		}

		result, err := d.Call(r.Context(), name, args)
		switch {
		case errors.Is(err, tools.ErrMissingCredentials):
			writeError(w, s.logger, http.StatusUnauthorized, err.Error())
		case err != nil:
			writeError(w, s.logger, http.StatusBadRequest, err.Error())
		default:
			writeJSON(w, s.logger, http.StatusOK, result)
		}
	}
}

// mcpCallRequest is the multiplexed invocation body.
type mcpCallRequest struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// handleMCPCall serves the canonical multiplexed route. Credential
// precedence: x-synorb-key/x-synorb-secret headers, then api_key/api_secret
// query parameters (the secret arrives percent-encoded and is decoded here),
// then process defaults. 401 when all are absent, 400 for an unrecognized
// tool, otherwise the dispatcher envelope.
func (s *Server) handleMCPCall(w http.ResponseWriter, r *http.Request) {
	var req mcpCallRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.Name == "" {
		writeError(w, s.logger, http.StatusBadRequest, "missing tool name")
		return
	}

	creds := s.requestCredentials(r)
	if !creds.Valid() {
		writeError(w, s.logger, http.StatusUnauthorized, "missing API credentials: supply x-synorb-key/x-synorb-secret headers, api_key/api_secret query parameters, or configure process defaults")
		return
	}

	if _, ok := tools.Lookup(tools.CanonicalName(req.Name)); !ok {
		writeError(w, s.logger, http.StatusBadRequest, fmt.Sprintf("unknown tool %q", req.Name))
		return
	}

	d, err := s.dispatcherFor(creds)
	if err != nil {
		s.logger.Error("building dispatcher failed", "error", err)
		writeError(w, s.logger, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, s.logger, http.StatusOK, d.Dispatch(r.Context(), req.Name, req.Arguments))
}

// requestCredentials resolves /mcp-call credentials: headers, then query
// parameters, then process defaults. r.URL.Query() percent-decodes values,
// so an encoded secret reaches the upstream header in clear form.
func (s *Server) requestCredentials(r *http.Request) synorb.Credentials {
	if k, sec := r.Header.Get(headerAPIKey), r.Header.Get(headerAPISecret); k != "" && sec != "" {
		return synorb.Credentials{APIKey: k, APISecret: sec}
	}
	q := r.URL.Query()
	if k, sec := q.Get(bodyKeyAPIKey), q.Get(bodyKeyAPISecret); k != "" && sec != "" {
		return synorb.Credentials{APIKey: k, APISecret: sec}
	}
	return s.cfg.Defaults
}

// decodeBody parses a JSON object body; an empty body yields empty arguments.
func decodeBody(r *http.Request) (map[string]any, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal(body, &args); err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}
