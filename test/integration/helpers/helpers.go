// Package helpers builds tool catalogs against a live Odoo for integration tests.
package helpers

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mkd-neo4j/odoo-support-mcp/internal/config"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/odoo"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/tools"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/tools/catalog"
)

// TestContext holds a catalog wired to a real ERP session.
type TestContext struct {
	T       *testing.T
	Ctx     context.Context
	Client  *odoo.Client
	Catalog *catalog.Catalog
}

// NewTestContext skips the test when no Odoo is available.
func NewTestContext(t *testing.T, cfg *config.OdooConfig, readOnly bool) *TestContext {
	t.Helper()
	if cfg == nil {
		t.Skip("odoo container not available")
	}

	client, err := odoo.NewClient(*cfg)
	if err != nil {
		t.Fatalf("odoo client: %v", err)
	}
	t.Cleanup(client.Disconnect)

	cat, err := catalog.New(&tools.ToolDependencies{Odoo: client}, catalog.Options{ReadOnly: readOnly, MaxConcurrentCalls: 4})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)
	return &TestContext{T: t, Ctx: ctx, Client: client, Catalog: cat}
}

// CallTool runs a tool and fails the test on an error payload.
func (tc *TestContext) CallTool(name string, args map[string]any) tools.Result {
	tc.T.Helper()
	res := tc.Catalog.Call(tc.Ctx, name, args)
	if res.IsError() {
		tc.T.Fatalf("%s failed: %s", name, res.JSON())
	}
	return res
}

// CallToolExpectError runs a tool and returns the error payload.
func (tc *TestContext) CallToolExpectError(name string, args map[string]any) *tools.ErrorPayload {
	tc.T.Helper()
	res := tc.Catalog.Call(tc.Ctx, name, args)
	if !res.IsError() {
		tc.T.Fatalf("%s: expected an error, got %s", name, res.JSON())
	}
	return res.Err
}

// ParseJSONResponse decodes the result payload into out.
func (tc *TestContext) ParseJSONResponse(res tools.Result, out any) {
	tc.T.Helper()
	if err := json.Unmarshal([]byte(res.JSON()), out); err != nil {
		tc.T.Fatalf("decode %s result: %v", res.Tool, err)
	}
}

// UniqueLogin returns a login no other test uses.
func (tc *TestContext) UniqueLogin(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString()[:8], "-", "")
}
