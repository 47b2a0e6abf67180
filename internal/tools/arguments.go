package tools

import (
	"strings"

	"github.com/mkd-neo4j/odoo-support-mcp/internal/odoo"
)

// Arguments are the decoded JSON arguments of a call, already checked against the
// tool's input schema.
type Arguments map[string]any

// String returns the trimmed string argument, or "" when absent.
func (a Arguments) String(name string) string {
	s, _ := a[name].(string)
	return strings.TrimSpace(s)
}

// Raw returns the string argument exactly as sent, or "" when absent.
func (a Arguments) Raw(name string) string {
	s, _ := a[name].(string)
	return s
}

// Int64 returns an integral argument. JSON numbers arrive as float64 or json.Number.
func (a Arguments) Int64(name string) (int64, bool) {
	return odoo.AsInt64(a[name])
}

// IntOr returns the integer argument or fallback when absent.
func (a Arguments) IntOr(name string, fallback int) int {
	if n, ok := a.Int64(name); ok {
		return int(n)
	}
	return fallback
}

// Strings returns a list-of-strings argument, or nil when absent.
func (a Arguments) Strings(name string) []string {
	switch v := a[name].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func (a Arguments) Has(name string) bool {
	v, ok := a[name]
	return ok && v != nil
}
