package tools

import (
	"strings"
	"testing"
)

// schemaFor returns the registered input schema for a tool.
func schemaFor(t *testing.T, name string) *Descriptor {
	t.Helper()
	desc, ok := Lookup(name)
	if !ok {
		t.Fatalf("Lookup(%q) failed", name)
	}
	return &desc
}

func TestValidateArgs_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		tool    string
		args    map[string]any
		wantErr string
	}{
		{
			name:    "unknown argument",
			tool:    ToolGetMeta,
			args:    map[string]any{"bogus": 1},
			wantErr: `unknown argument "bogus"`,
		},
		{
			name:    "missing required",
			tool:    ToolGetEntityTypes,
			args:    map[string]any{},
			wantErr: `missing required argument "stream_id"`,
		},
		{
			name:    "wrong type for string",
			tool:    ToolGetEntityTypes,
			args:    map[string]any{"stream_id": 42},
			wantErr: `argument "stream_id" must be a string`,
		},
		{
			name:    "enum violation",
			tool:    ToolFetchStories,
			args:    map[string]any{"stream_id": "s1", "format": "xml"},
			wantErr: `argument "format" must be one of`,
		},
		{
			name:    "fractional integer",
			tool:    ToolFetchStories,
			args:    map[string]any{"stream_id": "s1", "page_size": 10.5},
			wantErr: `argument "page_size" must be an integer`,
		},
		{
			name:    "boolean type mismatch",
			tool:    ToolFetchStories,
			args:    map[string]any{"stream_id": "s1", "active_only": "yes"},
			wantErr: `argument "active_only" must be a boolean`,
		},
		{
			name:    "array type mismatch",
			tool:    ToolFetchStories,
			args:    map[string]any{"stream_id": "s1", "body_sections": "headline"},
			wantErr: `argument "body_sections" must be an array`,
		},
		{
			name: "array item type mismatch",
			tool: ToolFetchStories,
			args: map[string]any{
				"stream_id":     "s1",
				"body_sections": []any{"headline", 3},
			},
			wantErr: `argument "body_sections[1]" must be a string`,
		},
		{
			name: "entity filter missing field",
			tool: ToolFetchStories,
			args: map[string]any{
				"stream_id":      "s1",
				"entity_filters": []any{map[string]any{"entity_type": "topic"}},
			},
			wantErr: `missing required field "entity_value"`,
		},
		{
			name: "entity filter unknown field",
			tool: ToolFetchStories,
			args: map[string]any{
				"stream_id":      "s1",
				"entity_filters": []any{map[string]any{"entity_type": "topic", "entity_value": "x", "weight": 1}},
			},
			wantErr: `unknown field "weight"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := schemaFor(t, tt.tool)
			_, err := ValidateArgs(desc.InputSchema, tt.args)
			if err == nil {
				t.Fatal("ValidateArgs() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateArgs() error = %q, want to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateArgs_DefaultSubstitution(t *testing.T) {
	desc := schemaFor(t, ToolFetchStories)
	out, err := ValidateArgs(desc.InputSchema, map[string]any{"stream_id": "s1"})
	if err != nil {
		t.Fatalf("ValidateArgs() unexpected error: %v", err)
	}
	if got := out["format"]; got != "json" {
		t.Errorf("default format = %v, want json", got)
	}
	if got, ok := out["page_num"].(float64); !ok || got != 0 {
		t.Errorf("default page_num = %v, want 0", out["page_num"])
	}
	// page_size declares no default: the 10/100 resolution happens downstream,
	// where the max_stories hint is visible.
	if _, present := out["page_size"]; present {
		t.Errorf("page_size substituted = %v, want absent", out["page_size"])
	}
}

func TestValidateArgs_AcceptsWholeFloats(t *testing.T) {
	desc := schemaFor(t, ToolFetchStories)
	out, err := ValidateArgs(desc.InputSchema, map[string]any{
		"stream_id": "s1",
		"page_num":  float64(3),
		"page_size": float64(50),
	})
	if err != nil {
		t.Fatalf("ValidateArgs() unexpected error: %v", err)
	}
	if got := out["page_size"]; got != float64(50) {
		t.Errorf("page_size = %v, want 50", got)
	}
}

func TestValidateArgs_DoesNotMutateInput(t *testing.T) {
	desc := schemaFor(t, ToolFetchStories)
	args := map[string]any{"stream_id": "s1"}
	if _, err := ValidateArgs(desc.InputSchema, args); err != nil {
		t.Fatalf("ValidateArgs() unexpected error: %v", err)
	}
	if len(args) != 1 {
		t.Errorf("input map mutated: %v", args)
	}
}

func TestCanonicalName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "fetch_stories", want: ToolFetchStories},
		{in: "synorb.fetch_stories", want: ToolFetchStories},
		{in: "synorb.get_meta", want: ToolGetMeta},
		{in: "get-synorb-stream-feed-content", want: ToolFetchStories},
		{in: "synorb.get-synorb-stream-feed-content", want: ToolFetchStories},
		{in: "no_such_tool", want: "no_such_tool"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := CanonicalName(tt.in); got != tt.want {
				t.Errorf("CanonicalName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCatalog_Complete(t *testing.T) {
	want := []string{
		ToolTestConnection,
		ToolGetMeta,
		ToolGetEntityTypes,
		ToolGetEntityValues,
		ToolFetchStories,
	}
	got := Catalog()
	if len(got) != len(want) {
		t.Fatalf("Catalog() has %d tools, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("Catalog()[%d].Name = %q, want %q", i, got[i].Name, name)
		}
		if got[i].Description == "" {
			t.Errorf("tool %q has empty description", name)
		}
		if got[i].InputSchema == nil {
			t.Errorf("tool %q has nil input schema", name)
		}
	}
}
