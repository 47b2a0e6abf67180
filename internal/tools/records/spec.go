package records

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/tools"
)

func SearchRecordsSpec(allow *Allowlist) mcp.Tool {
	return mcp.NewTool("search_records",
		mcp.WithDescription(fmt.Sprintf(`
		Search records of an Odoo model with a domain filter.

		Only these models can be searched: %s.
		The domain is a list of [field, operator, value] triples, e.g. [["is_company", "=", true]];
		"&", "|" and "!" may prefix conditions. Pass [] to match every record.
		Without fields, the model's default fields are returned. At most %d records are returned (default %d).`,
			strings.Join(allow.Names(), ", "), allow.MaxLimit, allow.DefaultLimit)),
		mcp.WithString("model", mcp.Required(), mcp.Description("Model name (e.g., 'res.partner', 'sale.order')")),
		mcp.WithArray("domain", mcp.Required(), mcp.Description("Search domain (Odoo format)")),
		mcp.WithArray("fields", mcp.Description("Fields to retrieve"), mcp.Items(map[string]any{"type": "string"})),
		tools.WithInteger("limit", mcp.Description("Maximum number of records to return"), mcp.Min(1)),
		mcp.WithTitleAnnotation("Search Records"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}
