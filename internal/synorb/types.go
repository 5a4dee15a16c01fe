package synorb

import "encoding/json"

// Credentials authenticate requests against the Synorb content API.
// Both fields must be non-empty before any upstream call is issued.
type Credentials struct {
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
}

// Valid reports whether both credential fields are present.
func (c Credentials) Valid() bool {
	return c.APIKey != "" && c.APISecret != ""
}

// Status tags a Result as success or error.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Error codes attached to failed Results.
const (
	// ErrCodeAuth: credentials missing before the call was issued.
	ErrCodeAuth = "AUTH_MISSING"
	// ErrCodeUpstream: the API answered with a non-2xx status.
	ErrCodeUpstream = "UPSTREAM_ERROR"
	// ErrCodeTransport: the request never produced an HTTP response.
	ErrCodeTransport = "TRANSPORT_ERROR"
)

// Error is the structured failure attached to an unsuccessful Result.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}

// Result is the uniform envelope returned by every client operation.
// Expected upstream failures are encoded here, never raised: callers branch on
// Status instead of recovering errors, and the same value serializes directly
// as the per-tool HTTP response body.
type Result struct {
	Status  Status          `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

// Format is the output format of a feed content fetch.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatNewsML   Format = "newsml"
	FormatHTML     Format = "html"
)

// Formats lists every accepted feed output format.
func Formats() []Format {
	return []Format{FormatJSON, FormatMarkdown, FormatNewsML, FormatHTML}
}

// Valid reports whether f is one of the declared formats.
func (f Format) Valid() bool {
	switch f {
	case FormatJSON, FormatMarkdown, FormatNewsML, FormatHTML:
		return true
	}
	return false
}

// EntityFilter narrows a feed fetch to stories tagged with the given value of
// a categorical entity dimension.
type EntityFilter struct {
	EntityType  string `json:"entity_type"`
	EntityValue string `json:"entity_value"`
}

// Feed paging bounds.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// FeedQuery is the argument bundle for a paginated feed content fetch.
// Zero values mean "not supplied"; EffectivePageSize resolves defaults.
type FeedQuery struct {
	// StreamID identifies the upstream content stream. Required.
	StreamID string

	// Format selects the story rendering. Empty defaults to FormatJSON.
	Format Format

	// BodySections limits which story body sections are rendered.
	// Only meaningful (and only transmitted) for markdown format.
	BodySections []string

	// EntityFilters restrict stories to matching entity tags.
	EntityFilters []EntityFilter

	// Date-range bounds, passed through verbatim.
	PublishedAfter  string
	PublishedBefore string
	CreatedAfter    string
	CreatedBefore   string

	PageNum  int
	PageSize int

	// MaxStories is a hint for the total number of stories wanted. When set,
	// the effective page size is capped at MaxPageSize.
	MaxStories int

	ActiveOnly bool
}

// EffectiveFormat resolves the format default.
func (q FeedQuery) EffectiveFormat() Format {
	if q.Format == "" {
		return FormatJSON
	}
	return q.Format
}

// EffectivePageSize resolves paging defaults and applies the MaxStories cap.
func (q FeedQuery) EffectivePageSize() int {
	size := q.PageSize
	if size == 0 {
		if q.MaxStories > 0 {
			size = q.MaxStories
		} else {
			size = DefaultPageSize
		}
	}
	if q.MaxStories > 0 && size > MaxPageSize {
		size = MaxPageSize
	}
	return size
}
