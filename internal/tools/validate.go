package tools

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/jsonschema-go/jsonschema"
)

// ValidateArgs checks args against a tool's declared input schema and returns
// a copy with declared defaults substituted for absent optional fields.
//
// Checks, in order per field: unknown top-level fields are rejected, required
// fields must be present, values must match the declared type, enumerated
// fields must be a member of the declared set. Errors are descriptive and
// name the offending field.
func ValidateArgs(schema *jsonschema.Schema, args map[string]any) (map[string]any, error) {
	if schema == nil {
		return nil, fmt.Errorf("tool has no input schema")
	}

	out := make(map[string]any, len(args))
	for k, v := range args {
		if _, ok := schema.Properties[k]; !ok {
			return nil, fmt.Errorf("unknown argument %q", k)
		}
		out[k] = v
	}

	for _, req := range schema.Required {
		if _, ok := out[req]; !ok {
			return nil, fmt.Errorf("missing required argument %q", req)
		}
	}

	for name, prop := range schema.Properties {
		val, ok := out[name]
		if !ok {
			if prop.Default != nil {
				var dv any
				if err := json.Unmarshal(prop.Default, &dv); err != nil {
					return nil, fmt.Errorf("invalid default for %q: %w", name, err)
				}
				out[name] = dv
			}
			continue
		}
		if err := checkValue(name, prop, val); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// checkValue validates one value against a property schema, recursing into
// array items and nested object properties.
func checkValue(name string, schema *jsonschema.Schema, val any) error {
	switch schema.Type {
	case "string":
		s, ok := val.(string)
		if !ok {
			return fmt.Errorf("argument %q must be a string, got %T", name, val)
		}
		if len(schema.Enum) > 0 && !enumContains(schema.Enum, s) {
			return fmt.Errorf("argument %q must be one of %v, got %q", name, schema.Enum, s)
		}
	case "integer":
		if !isInteger(val) {
			return fmt.Errorf("argument %q must be an integer, got %v (%T)", name, val, val)
		}
	case "number":
		switch val.(type) {
		case float64, float32, int, int32, int64:
		default:
			return fmt.Errorf("argument %q must be a number, got %T", name, val)
		}
	case "boolean":
		if _, ok := val.(bool); !ok {
			return fmt.Errorf("argument %q must be a boolean, got %T", name, val)
		}
	case "array":
		items, ok := val.([]any)
		if !ok {
			return fmt.Errorf("argument %q must be an array, got %T", name, val)
		}
		if schema.Items != nil {
			for i, item := range items {
				if err := checkValue(fmt.Sprintf("%s[%d]", name, i), schema.Items, item); err != nil {
					return err
				}
			}
		}
	case "object":
		obj, ok := val.(map[string]any)
		if !ok {
			return fmt.Errorf("argument %q must be an object, got %T", name, val)
		}
		for k := range obj {
			if _, declared := schema.Properties[k]; !declared {
				return fmt.Errorf("unknown field %q in %q", k, name)
			}
		}
		for _, req := range schema.Required {
			if _, present := obj[req]; !present {
				return fmt.Errorf("missing required field %q in %q", req, name)
			}
		}
		for k, prop := range schema.Properties {
			if v, present := obj[k]; present {
				if err := checkValue(name+"."+k, prop, v); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// isInteger accepts Go integer types and whole-valued JSON numbers
// (encoding/json decodes all numbers as float64).
func isInteger(val any) bool {
	switch n := val.(type) {
	case int, int32, int64:
		return true
	case float64:
		return n == math.Trunc(n)
	}
	return false
}

func enumContains(enum []any, s string) bool {
	for _, e := range enum {
		if es, ok := e.(string); ok && es == s {
			return true
		}
	}
	return false
}
