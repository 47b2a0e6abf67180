// Package odoo is the remote procedure client for the Odoo ERP.
//
// One Client owns one authenticated session. The session is created on first use and reused by
// every subsequent call; calls are independent HTTP requests, so concurrent callers share the
// session without being serialized.
package odoo

//go:generate mockgen -destination=mocks/mock_service.go -package=odoo_mocks github.com/mkd-neo4j/odoo-support-mcp/internal/odoo Service

import "context"

// Service is the set of ERP primitives the tool layer depends on. All methods block until the
// RPC completes or ctx is done.
type Service interface {
	// Connect returns the live session, logging in if there is none.
	Connect(ctx context.Context) (*Session, error)
	// Disconnect drops the session; the next call logs in again.
	Disconnect()

	Version(ctx context.Context) (*ServerVersion, error)
	Search(ctx context.Context, model string, domain Domain, limit int) ([]int64, error)
	Read(ctx context.Context, model string, ids []int64, fields []string) ([]Record, error)
	SearchRead(ctx context.Context, model string, domain Domain, opts SearchOptions) ([]Record, error)
	Count(ctx context.Context, model string, domain Domain) (int64, error)
	Execute(ctx context.Context, model, method string, args []any, kwargs map[string]any) (any, error)
	Create(ctx context.Context, model string, values map[string]any) (int64, error)
	Write(ctx context.Context, model string, ids []int64, values map[string]any) (bool, error)

	DatabaseName() string
	Endpoint() string
}

// Record is one row as returned by read/search_read: field name to value.
type Record map[string]any

// Domain is an Odoo search domain: a list of conditions ([field, operator, value]) optionally
// interleaved with the prefix operators "&", "|" and "!".
type Domain []any

// Cond builds a single domain condition.
func Cond(field, operator string, value any) []any {
	return []any{field, operator, value}
}

// SearchOptions tunes a search_read call. Zero values mean "server default".
type SearchOptions struct {
	Fields []string
	Limit  int
	Offset int
	Order  string

	// Context is passed as the Odoo call context, e.g. {"active_test": false}.
	Context map[string]any
}

// Session identifies an authenticated ERP login.
type Session struct {
	UID      int64
	Database string
	Username string
}

// ServerVersion is the answer of the common.version service.
type ServerVersion struct {
	ServerVersion     string `json:"server_version"`
	ServerSerie       string `json:"server_serie"`
	ProtocolVersion   int    `json:"protocol_version"`
	ServerVersionInfo []any  `json:"server_version_info"`
}
