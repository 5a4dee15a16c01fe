// Package synorb implements the authenticated client for the Synorb content
// API. One exported method per upstream capability, each issuing exactly one
// HTTP GET and normalizing the outcome into a uniform Result value.
package synorb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/synorb/synorb-mcp/internal/log"
)

// Upstream endpoint paths, relative to the configured base URL.
const (
	pathMeta         = "/content/meta"
	pathEntityTypes  = "/content/entity-types"
	pathEntityValues = "/content/entity-values"
	pathFeed         = "/content/feed"
)

// maxResponseSize bounds upstream bodies read into memory.
const maxResponseSize = 10 * 1024 * 1024

// DefaultTimeout bounds each upstream call when no HTTP client is injected.
const DefaultTimeout = 30 * time.Second

// Config holds client construction parameters.
type Config struct {
	// BaseURL is the upstream API base path, e.g. https://api.synorb.com/v1.
	BaseURL string

	// Credentials sent as x-api-key / x-api-secret on every request.
	// May be empty at construction; calls then fail with an auth Result.
	Credentials Credentials

	// HTTPClient overrides the default client (used by tests and by callers
	// that need custom timeouts). Optional.
	HTTPClient *http.Client

	// Logger is required.
	Logger log.Logger
}

// Client owns the authenticated HTTP session to the upstream content API.
// It is safe for concurrent use; all fields are set at construction and
// thereafter only read.
type Client struct {
	baseURL string
	creds   Credentials
	http    *http.Client
	logger  log.Logger
}

// NewClient creates a Synorb API client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("base URL must be absolute http(s): %q", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		creds:   cfg.Credentials,
		http:    httpClient,
		logger:  cfg.Logger,
	}, nil
}

// Authenticated reports whether the client holds complete credentials.
func (c *Client) Authenticated() bool {
	return c.creds.Valid()
}

// TestConnection probes the metadata endpoint. Success iff the upstream
// answers 2xx; the failure message embeds the upstream or transport error.
func (c *Client) TestConnection(ctx context.Context) Result {
	res := c.get(ctx, pathMeta, nil)
	if !res.OK() {
		res.Message = fmt.Sprintf("connection test failed: %s", res.Error.Message)
		return res
	}
	res.Message = "connection to Synorb API established"
	return res
}

// Meta fetches API metadata; the upstream body is relayed verbatim.
func (c *Client) Meta(ctx context.Context) Result {
	return c.get(ctx, pathMeta, nil)
}

// EntityTypes lists the entity type dimensions available for a stream.
func (c *Client) EntityTypes(ctx context.Context, streamID string) Result {
	return c.get(ctx, pathEntityTypes+"/"+url.PathEscape(streamID), nil)
}

// EntityValues lists the values of one or all entity types for a stream.
// entityType is optional; when empty, the upstream returns all dimensions.
func (c *Client) EntityValues(ctx context.Context, streamID, entityType string) Result {
	q := url.Values{}
	if entityType != "" {
		q.Set("entity_type", entityType)
	}
	return c.get(ctx, pathEntityValues+"/"+url.PathEscape(streamID), q)
}

// FeedContent fetches one page of stories from a stream.
func (c *Client) FeedContent(ctx context.Context, query FeedQuery) Result {
	return c.get(ctx, pathFeed, feedValues(query))
}

// feedValues assembles the /content/feed query parameters. Conditional
// parameters are omitted rather than sent empty; body_sections only travels
// with markdown format.
func feedValues(q FeedQuery) url.Values {
	v := url.Values{}
	v.Set("feed_id", q.StreamID)

	format := q.EffectiveFormat()
	v.Set("format", string(format))
	v.Set("page_num", strconv.Itoa(q.PageNum))
	v.Set("page_size", strconv.Itoa(q.EffectivePageSize()))

	if format == FormatMarkdown && len(q.BodySections) > 0 {
		v.Set("body_sections", strings.Join(q.BodySections, ","))
	}
	for _, f := range q.EntityFilters {
		v.Add("entity_type", f.EntityType)
		v.Add("entity_value", f.EntityValue)
	}
	if q.PublishedAfter != "" {
		v.Set("published_after", q.PublishedAfter)
	}
	if q.PublishedBefore != "" {
		v.Set("published_before", q.PublishedBefore)
	}
	if q.CreatedAfter != "" {
		v.Set("created_after", q.CreatedAfter)
	}
	if q.CreatedBefore != "" {
		v.Set("created_before", q.CreatedBefore)
	}
	if q.ActiveOnly {
		v.Set("active_only", "true")
	}
	return v
}

// get issues one authenticated GET and normalizes every possible outcome into
// a Result. It never panics and never leaks transport error types.
func (c *Client) get(ctx context.Context, path string, query url.Values) Result {
	if !c.creds.Valid() {
		return errorResult(ErrCodeAuth, "missing API credentials: both api_key and api_secret are required")
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errorResult(ErrCodeTransport, "building request: %v", err)
	}
	req.Header.Set("x-api-key", c.creds.APIKey)
	req.Header.Set("x-api-secret", c.creds.APISecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("upstream request failed", "path", path, "error", err)
		return errorResult(ErrCodeTransport, "request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		c.logger.Error("reading upstream response failed", "path", path, "error", err)
		return errorResult(ErrCodeTransport, "reading response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := upstreamMessage(body)
		c.logger.Warn("upstream returned error status",
			"path", path, "status", resp.StatusCode, "message", msg)
		return errorResult(ErrCodeUpstream, "upstream returned %d: %s", resp.StatusCode, msg)
	}

	c.logger.Debug("upstream request succeeded",
		"path", path, "status", resp.StatusCode, "body_size", len(body))
	return Result{Status: StatusSuccess, Data: rawJSON(body)}
}

// upstreamMessage extracts the error message from an upstream body.
// Priority: the body's "message" field, else a body snippet, else the status
// text alone (handled by the caller's format string).
func upstreamMessage(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		return parsed.Message
	}
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	if snippet == "" {
		return "no error details provided"
	}
	return snippet
}

// rawJSON relays body as-is when it is valid JSON; non-JSON bodies (markdown,
// newsml, html renderings) are wrapped as a JSON string so that Result always
// marshals cleanly.
func rawJSON(body []byte) json.RawMessage {
	if json.Valid(body) && len(body) > 0 {
		return json.RawMessage(body)
	}
	quoted, err := json.Marshal(string(body))
	if err != nil {
		return json.RawMessage(`""`)
	}
	return json.RawMessage(quoted)
}

func errorResult(code, format string, args ...any) Result {
	msg := fmt.Sprintf(format, args...)
	return Result{
		Status:  StatusError,
		Message: msg,
		Error:   &Error{Code: code, Message: msg},
	}
}
