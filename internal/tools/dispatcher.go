package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/synorb/synorb-mcp/internal/log"
	"github.com/synorb/synorb-mcp/internal/synorb"
)

var (
	// ErrMissingCredentials rejects an invocation before any upstream call.
	// Request-fatal only; the process keeps serving.
	ErrMissingCredentials = errors.New("missing API credentials")

	// ErrUnknownTool rejects an invocation whose name matches no registry entry.
	ErrUnknownTool = errors.New("unknown tool")
)

// ContentBlock is one entry of a response envelope. The adapter only ever
// produces text blocks carrying pretty-printed JSON.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Envelope is the uniform response wrapper returned for every invocation,
// well-formed even when the invocation failed. Shared by the MCP transport
// (converted to the SDK result type) and the HTTP /mcp-call route (serialized
// directly).
type Envelope struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// Dispatcher validates invocations against the registry and routes them to
// the upstream client. It holds no per-invocation state.
type Dispatcher struct {
	client *synorb.Client
	logger log.Logger
}

// NewDispatcher creates a dispatcher around an explicitly constructed client.
func NewDispatcher(client *synorb.Client, logger log.Logger) (*Dispatcher, error) {
	if client == nil {
		return nil, fmt.Errorf("client is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Dispatcher{client: client, logger: logger}, nil
}

// Typed argument bundles the dispatcher decodes validated maps into.
// JSON tags mirror the registry schemas exactly.

type entityTypesArgs struct {
	StreamID string `json:"stream_id"`
}

type entityValuesArgs struct {
	StreamID   string `json:"stream_id"`
	EntityType string `json:"entity_type"`
}

type fetchStoriesArgs struct {
	StreamID        string                `json:"stream_id"`
	Format          string                `json:"format"`
	BodySections    []string              `json:"body_sections"`
	EntityFilters   []synorb.EntityFilter `json:"entity_filters"`
	PublishedAfter  string                `json:"published_after"`
	PublishedBefore string                `json:"published_before"`
	CreatedAfter    string                `json:"created_after"`
	CreatedBefore   string                `json:"created_before"`
	PageNum         int                   `json:"page_num"`
	PageSize        int                   `json:"page_size"`
	MaxStories      int                   `json:"max_stories"`
	ActiveOnly      bool                  `json:"active_only"`
}

func (a fetchStoriesArgs) feedQuery() synorb.FeedQuery {
	return synorb.FeedQuery{
		StreamID:        a.StreamID,
		Format:          synorb.Format(a.Format),
		BodySections:    a.BodySections,
		EntityFilters:   a.EntityFilters,
		PublishedAfter:  a.PublishedAfter,
		PublishedBefore: a.PublishedBefore,
		CreatedAfter:    a.CreatedAfter,
		CreatedBefore:   a.CreatedBefore,
		PageNum:         a.PageNum,
		PageSize:        a.PageSize,
		MaxStories:      a.MaxStories,
		ActiveOnly:      a.ActiveOnly,
	}
}

// Call runs one invocation and returns the raw client result: credential
// check, name resolution, schema validation, client call, in that order.
// Returned errors are request-fatal rejections (ErrMissingCredentials,
// ErrUnknownTool, validation failures) raised before any upstream call;
// upstream failures are encoded in the Result, not in the error.
func (d *Dispatcher) Call(ctx context.Context, name string, args map[string]any) (synorb.Result, error) {
	if !d.client.Authenticated() {
		d.logger.Warn("invocation rejected: missing credentials", "tool", name)
		return synorb.Result{}, fmt.Errorf("%w: set SYNORB_API_KEY and SYNORB_API_SECRET or pass credentials per request", ErrMissingCredentials)
	}

	canonical := CanonicalName(name)
	desc, ok := Lookup(canonical)
	if !ok {
		return synorb.Result{}, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}

	validated, err := ValidateArgs(desc.InputSchema, args)
	if err != nil {
		d.logger.Warn("invocation rejected: invalid arguments", "tool", canonical, "error", err)
		return synorb.Result{}, fmt.Errorf("validation error for %s: %w", canonical, err)
	}

	return d.invoke(ctx, canonical, validated)
}

// Dispatch runs one invocation and wraps the outcome in a response envelope.
// Every failure path produces a well-formed error envelope; the transport
// never sees a fault.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args map[string]any) (env *Envelope) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic during dispatch", "tool", name, "panic", r)
			env = errorEnvelope(fmt.Sprintf("internal error dispatching %q", name))
		}
	}()

	result, err := d.Call(ctx, name, args)
	if err != nil {
		return errorEnvelope(err.Error())
	}
	return resultEnvelope(result)
}

// invoke decodes the validated argument map into the tool's typed bundle and
// calls the matching client method. Decode failures can only come from values
// the validator already vetted, so they are reported as internal errors.
func (d *Dispatcher) invoke(ctx context.Context, name string, args map[string]any) (synorb.Result, error) {
	switch name {
	case ToolTestConnection:
		return d.client.TestConnection(ctx), nil
	case ToolGetMeta:
		return d.client.Meta(ctx), nil
	case ToolGetEntityTypes:
		var a entityTypesArgs
		if err := decodeArgs(args, &a); err != nil {
			return synorb.Result{}, err
		}
		return d.client.EntityTypes(ctx, a.StreamID), nil
	case ToolGetEntityValues:
		var a entityValuesArgs
		if err := decodeArgs(args, &a); err != nil {
			return synorb.Result{}, err
		}
		return d.client.EntityValues(ctx, a.StreamID, a.EntityType), nil
	case ToolFetchStories:
		var a fetchStoriesArgs
		if err := decodeArgs(args, &a); err != nil {
			return synorb.Result{}, err
		}
		return d.client.FeedContent(ctx, a.feedQuery()), nil
	}
	return synorb.Result{}, fmt.Errorf("unknown tool %q", name)
}

// decodeArgs converts a validated argument map into a typed bundle via a JSON
// round-trip.
func decodeArgs(args map[string]any, out any) error {
	b, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("internal error encoding arguments: %w", err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("internal error decoding arguments: %w", err)
	}
	return nil
}

// resultEnvelope wraps a client result as one pretty-printed JSON text block.
func resultEnvelope(result synorb.Result) *Envelope {
	b, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errorEnvelope(fmt.Sprintf("internal error serializing result: %v", err))
	}
	return &Envelope{Content: []ContentBlock{{Type: "text", Text: string(b)}}}
}

func errorEnvelope(msg string) *Envelope {
	return &Envelope{
		Content: []ContentBlock{{Type: "text", Text: "Error: " + msg}},
		IsError: true,
	}
}
