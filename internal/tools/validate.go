package tools

import (
	"fmt"
	"slices"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/odoo"
)

// WithInteger adds an integer property to the tool's input schema. mcp-go only offers
// "number"; Odoo ids and counts are integers.
func WithInteger(name string, opts ...mcp.PropertyOption) mcp.ToolOption {
	return func(t *mcp.Tool) {
		schema := map[string]any{"type": "integer"}
		for _, opt := range opts {
			opt(schema)
		}
		if required, ok := schema["required"].(bool); ok {
			delete(schema, "required")
			if required {
				t.InputSchema.Required = append(t.InputSchema.Required, name)
			}
		}
		t.InputSchema.Properties[name] = schema
	}
}

// ValidateArguments checks args against the tool's input schema: required parameters,
// JSON types, integer minimums and string enums. Parameters the schema does not
// declare are ignored.
func ValidateArguments(tool mcp.Tool, args map[string]any) error {
	for _, name := range tool.InputSchema.Required {
		if v, ok := args[name]; !ok || v == nil {
			return &ValidationError{Field: name, Reason: "is required"}
		}
	}

	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prop, ok := tool.InputSchema.Properties[name].(map[string]any)
		if !ok || args[name] == nil {
			continue
		}
		if err := checkValue(name, prop, args[name]); err != nil {
			return err
		}
	}
	return nil
}

func checkValue(name string, prop map[string]any, v any) error {
	typ, _ := prop["type"].(string)

	switch typ {
	case "string":
		s, ok := v.(string)
		if !ok {
			return typeError(name, typ, v)
		}
		if enum := enumValues(prop["enum"]); len(enum) > 0 && !slices.Contains(enum, s) {
			return &ValidationError{Field: name, Reason: fmt.Sprintf("must be one of %v", enum)}
		}
	case "integer":
		n, ok := odoo.AsInt64(v)
		if !ok {
			return typeError(name, typ, v)
		}
		if minimum, ok := prop["minimum"].(float64); ok && float64(n) < minimum {
			return &ValidationError{Field: name, Reason: fmt.Sprintf("must be >= %v", minimum)}
		}
		if maximum, ok := prop["maximum"].(float64); ok && float64(n) > maximum {
			return &ValidationError{Field: name, Reason: fmt.Sprintf("must be <= %v", maximum)}
		}
	case "number":
		switch v.(type) {
		case float64, int, int64:
		default:
			if _, ok := odoo.AsInt64(v); !ok {
				return typeError(name, typ, v)
			}
		}
	case "boolean":
		if _, ok := v.(bool); !ok {
			return typeError(name, typ, v)
		}
	case "array":
		items, ok := toSlice(v)
		if !ok {
			return typeError(name, typ, v)
		}
		itemSchema, _ := prop["items"].(map[string]any)
		if itemSchema == nil {
			return nil
		}
		for i, item := range items {
			if err := checkValue(fmt.Sprintf("%s[%d]", name, i), itemSchema, item); err != nil {
				return err
			}
		}
	case "object":
		if _, ok := v.(map[string]any); !ok {
			return typeError(name, typ, v)
		}
	}
	return nil
}

func typeError(name, want string, got any) error {
	return &ValidationError{Field: name, Reason: fmt.Sprintf("must be %s, got %s", article(want), jsonTypeName(got))}
}

func article(typ string) string {
	switch typ {
	case "integer", "array", "object":
		return "an " + typ
	default:
		return "a " + typ
	}
}

func jsonTypeName(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, int, int64:
		return "number"
	case []any, []string:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func toSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, item := range s {
			out[i] = item
		}
		return out, true
	default:
		return nil, false
	}
}

func enumValues(raw any) []string {
	switch e := raw.(type) {
	case []string:
		return e
	case []any:
		out := make([]string, 0, len(e))
		for _, item := range e {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
