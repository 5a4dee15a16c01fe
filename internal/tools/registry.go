// Package tools defines the static tool catalog, argument validation, and the
// dispatcher shared by both transports (MCP stdio and HTTP).
package tools

import (
	"encoding/json"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// Canonical tool names. The namespaced "synorb." form and the legacy
// fetch-stories name are accepted as deprecated aliases; CanonicalName
// normalizes them before registry lookup.
const (
	ToolTestConnection  = "test_connection"
	ToolGetMeta         = "get_meta"
	ToolGetEntityTypes  = "get_entity_types"
	ToolGetEntityValues = "get_entity_values"
	ToolFetchStories    = "fetch_stories"
)

// NamespacePrefix is the deprecated namespaced alias prefix.
const NamespacePrefix = "synorb."

// legacyFetchStories is the deprecated revision-specific fetch-stories name.
const legacyFetchStories = "get-synorb-stream-feed-content"

// Descriptor describes one tool: name, human description, and the declarative
// input schema consumed by MCP tool discovery and by the argument validator.
// Descriptors are defined at process start and never mutated.
type Descriptor struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// catalog is the static tool registry, in advertised order.
var catalog = []Descriptor{
	{
		Name:        ToolTestConnection,
		Description: "Verify connectivity and credentials against the Synorb content API.",
		InputSchema: &jsonschema.Schema{Type: "object", Properties: map[string]*jsonschema.Schema{}},
	},
	{
		Name:        ToolGetMeta,
		Description: "Fetch Synorb API metadata: available streams and account limits.",
		InputSchema: &jsonschema.Schema{Type: "object", Properties: map[string]*jsonschema.Schema{}},
	},
	{
		Name:        ToolGetEntityTypes,
		Description: "List the entity type dimensions available for filtering stories in a stream.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"stream_id": {Type: "string", Description: "Identifier of the content stream."},
			},
			Required: []string{"stream_id"},
		},
	},
	{
		Name:        ToolGetEntityValues,
		Description: "List entity values for a stream, optionally restricted to one entity type.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"stream_id":   {Type: "string", Description: "Identifier of the content stream."},
				"entity_type": {Type: "string", Description: "Restrict values to this entity type."},
			},
			Required: []string{"stream_id"},
		},
	},
	{
		Name:        ToolFetchStories,
		Description: "Fetch one page of stories from a stream, with optional format, entity, date-range, and active-only filters.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"stream_id": {Type: "string", Description: "Identifier of the content stream."},
				"format": {
					Type:        "string",
					Description: "Story output format.",
					Enum:        []any{"json", "markdown", "newsml", "html"},
					Default:     json.RawMessage(`"json"`),
				},
				"body_sections": {
					Type:        "array",
					Description: "Body sections to render. Only honored for markdown format.",
					Items:       &jsonschema.Schema{Type: "string"},
				},
				"entity_filters": {
					Type:        "array",
					Description: "Entity tag filters applied to the fetch.",
					Items: &jsonschema.Schema{
						Type: "object",
						Properties: map[string]*jsonschema.Schema{
							"entity_type":  {Type: "string"},
							"entity_value": {Type: "string"},
						},
						Required: []string{"entity_type", "entity_value"},
					},
				},
				"published_after":  {Type: "string", Description: "Lower published-date bound, passed through verbatim."},
				"published_before": {Type: "string", Description: "Upper published-date bound, passed through verbatim."},
				"created_after":    {Type: "string", Description: "Lower created-date bound, passed through verbatim."},
				"created_before":   {Type: "string", Description: "Upper created-date bound, passed through verbatim."},
				"page_num": {
					Type:        "integer",
					Description: "Zero-based page number.",
					Default:     json.RawMessage(`0`),
				},
				"page_size": {
					Type:        "integer",
					Description: "Stories per page. Defaults to 10; capped at 100 when max_stories is supplied.",
				},
				"max_stories": {
					Type:        "integer",
					Description: "Hint for the total number of stories wanted.",
				},
				"active_only": {Type: "boolean", Description: "Restrict to currently active stories."},
			},
			Required: []string{"stream_id"},
		},
	},
}

// Catalog returns the static tool registry. Callers must not mutate the
// returned descriptors or their schemas.
func Catalog() []Descriptor {
	return catalog
}

// Lookup finds a descriptor by canonical name.
func Lookup(name string) (Descriptor, bool) {
	for _, d := range catalog {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// CanonicalName maps deprecated aliases onto canonical tool names. Both the
// namespaced form ("synorb.fetch_stories") and the legacy feed-content name
// route to the same handler as their canonical counterpart.
func CanonicalName(name string) string {
	name = strings.TrimPrefix(name, NamespacePrefix)
	if name == legacyFetchStories {
		return ToolFetchStories
	}
	return name
}
