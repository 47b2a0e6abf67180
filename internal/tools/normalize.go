package tools

import (
	"github.com/mkd-neo4j/odoo-support-mcp/internal/odoo"
)

// NormalizeValue turns Odoo wire values into plain JSON: a many2one pair [id, "Name"]
// becomes its display name. Odoo's false-for-empty is handled by NormalizeRecord,
// which knows which fields are really booleans.
func NormalizeValue(v any) any {
	pair, ok := v.([]any)
	if !ok || len(pair) != 2 {
		return v
	}
	if _, isID := odoo.AsInt64(pair[0]); !isID {
		return v
	}
	if name, isName := pair[1].(string); isName {
		return name
	}
	return v
}

// NormalizeRecord projects rec onto fields (every key but "id" when fields is empty)
// and normalizes each value. A false value becomes nil unless the field is listed in
// boolFields. "id" is kept only when requested.
func NormalizeRecord(rec odoo.Record, fields []string, boolFields ...string) map[string]any {
	isBool := make(map[string]bool, len(boolFields))
	for _, f := range boolFields {
		isBool[f] = true
	}

	normalize := func(name string, v any) any {
		if b, ok := v.(bool); ok && !b && !isBool[name] {
			return nil
		}
		return NormalizeValue(v)
	}

	if len(fields) == 0 {
		out := make(map[string]any, len(rec))
		for k, v := range rec {
			if k == "id" {
				continue
			}
			out[k] = normalize(k, v)
		}
		return out
	}

	out := make(map[string]any, len(fields))
	for _, f := range fields {
		out[f] = normalize(f, rec[f])
	}
	return out
}

// NormalizeRecords applies NormalizeRecord to each record.
func NormalizeRecords(recs []odoo.Record, fields []string, boolFields ...string) []map[string]any {
	out := make([]map[string]any, 0, len(recs))
	for _, rec := range recs {
		out = append(out, NormalizeRecord(rec, fields, boolFields...))
	}
	return out
}
