package records

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mkd-neo4j/odoo-support-mcp/internal/odoo"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/tools"
)

// SearchRecordsHandler returns a handler function for the search_records tool.
// The allowlist is consulted before any call reaches the ERP.
func SearchRecordsHandler(deps *tools.ToolDependencies, allow *Allowlist) tools.Handler {
	return func(ctx context.Context, args tools.Arguments) (any, error) {
		model := args.String("model")
		policy, ok := allow.Policy(model)
		if !ok {
			slog.Warn("rejected search on model outside the allowlist", "model", model)
			return nil, &tools.ValidationError{Field: "model", Reason: fmt.Sprintf("model %q is not searchable", model)}
		}

		domain, err := parseDomain(args["domain"])
		if err != nil {
			return nil, err
		}

		fields := args.Strings("fields")
		for _, f := range fields {
			if !validFieldName(f) {
				return nil, &tools.ValidationError{Field: "fields", Reason: fmt.Sprintf("invalid field name %q", f)}
			}
		}
		if len(fields) == 0 {
			fields = policy.DefaultFields
		}

		limit := args.IntOr("limit", allow.DefaultLimit)
		if limit < 1 {
			return nil, &tools.ValidationError{Field: "limit", Reason: "must be positive"}
		}
		if limit > allow.MaxLimit {
			limit = allow.MaxLimit
		}

		records, err := deps.Odoo.SearchRead(ctx, model, domain, odoo.SearchOptions{
			Fields: fields,
			Limit:  limit,
			Order:  "id asc",
		})
		if err != nil {
			slog.Error("search_records failed", "model", model, "error", err)
			return nil, err
		}

		slog.Info("searched records", "model", model, "count", len(records), "limit", limit)
		return tools.NormalizeRecords(records, fields, policy.BooleanFields...), nil
	}
}
