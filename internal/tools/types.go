package tools

import (
	"context"

	"github.com/mkd-neo4j/odoo-support-mcp/internal/analytics"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/odoo"
)

// ToolDependencies contains all dependencies needed by tools
type ToolDependencies struct {
	Odoo             odoo.Service
	AnalyticsService analytics.Service
	// ServerLogFile is the Odoo server log tailed by get_server_logs.
	ServerLogFile string
}

// Handler executes one tool. It returns a JSON-serialisable value or an error;
// the catalog turns errors into the uniform error payload.
type Handler func(ctx context.Context, args Arguments) (any, error)
