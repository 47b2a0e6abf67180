package tools_test

import (
	"testing"

	"github.com/mkd-neo4j/odoo-support-mcp/internal/odoo"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/tools"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeValue(t *testing.T) {
	assert.Equal(t, "My Company", tools.NormalizeValue([]any{float64(1), "My Company"}))
	assert.Equal(t, []any{float64(3), float64(5)}, tools.NormalizeValue([]any{float64(3), float64(5)}))
	assert.Equal(t, "plain", tools.NormalizeValue("plain"))
}

func TestNormalizeRecord(t *testing.T) {
	rec := odoo.Record{
		"id":         float64(7),
		"name":       "Marc Demo",
		"email":      false,
		"active":     false,
		"company_id": []any{float64(1), "YourCompany"},
	}

	t.Run("projects exactly the requested fields", func(t *testing.T) {
		out := tools.NormalizeRecord(rec, []string{"name", "email", "missing"}, "active")
		assert.Equal(t, map[string]any{"name": "Marc Demo", "email": nil, "missing": nil}, out)
	})

	t.Run("id kept only when requested", func(t *testing.T) {
		out := tools.NormalizeRecord(rec, []string{"id", "name"})
		assert.Equal(t, float64(7), out["id"])
	})

	t.Run("all fields without id", func(t *testing.T) {
		out := tools.NormalizeRecord(rec, nil, "active")
		assert.NotContains(t, out, "id")
		assert.Equal(t, false, out["active"])
		assert.Nil(t, out["email"])
		assert.Equal(t, "YourCompany", out["company_id"])
	})
}
