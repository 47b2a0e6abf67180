package tools_test

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTool() mcp.Tool {
	return mcp.NewTool("test_tool",
		mcp.WithString("name", mcp.Required()),
		tools.WithInteger("count", mcp.Min(1)),
		mcp.WithString("state", mcp.Enum("installed", "uninstalled")),
		mcp.WithArray("fields", mcp.Items(map[string]any{"type": "string"})),
		mcp.WithBoolean("flag"),
	)
}

func TestWithInteger(t *testing.T) {
	tool := mcp.NewTool("ids", tools.WithInteger("user_id", mcp.Required(), mcp.Description("ID of the user"), mcp.Min(1)))

	prop, ok := tool.InputSchema.Properties["user_id"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "integer", prop["type"])
	assert.Equal(t, "ID of the user", prop["description"])
	assert.NotContains(t, prop, "required")
	assert.Equal(t, []string{"user_id"}, tool.InputSchema.Required)
}

func TestValidateArguments(t *testing.T) {
	tool := testTool()

	tests := []struct {
		name    string
		args    map[string]any
		field   string
		wantErr bool
	}{
		{name: "minimal", args: map[string]any{"name": "base"}},
		{name: "all params", args: map[string]any{"name": "base", "count": float64(3), "state": "installed", "fields": []any{"name"}, "flag": true}},
		{name: "typed slice from in-process caller", args: map[string]any{"name": "base", "fields": []string{"name", "state"}}},
		{name: "unknown params are ignored", args: map[string]any{"name": "base", "extra": 1}},
		{name: "null optional is ignored", args: map[string]any{"name": "base", "count": nil}},
		{name: "missing required", args: map[string]any{}, field: "name", wantErr: true},
		{name: "null required", args: map[string]any{"name": nil}, field: "name", wantErr: true},
		{name: "wrong type string", args: map[string]any{"name": 12.0}, field: "name", wantErr: true},
		{name: "fractional integer", args: map[string]any{"name": "x", "count": 1.5}, field: "count", wantErr: true},
		{name: "integer below minimum", args: map[string]any{"name": "x", "count": float64(0)}, field: "count", wantErr: true},
		{name: "integer as string", args: map[string]any{"name": "x", "count": "3"}, field: "count", wantErr: true},
		{name: "enum mismatch", args: map[string]any{"name": "x", "state": "broken"}, field: "state", wantErr: true},
		{name: "array item type", args: map[string]any{"name": "x", "fields": []any{"name", 3.0}}, field: "fields[1]", wantErr: true},
		{name: "array as string", args: map[string]any{"name": "x", "fields": "name"}, field: "fields", wantErr: true},
		{name: "boolean as string", args: map[string]any{"name": "x", "flag": "true"}, field: "flag", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tools.ValidateArguments(tool, tt.args)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var validationErr *tools.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.field, validationErr.Field)
			assert.Equal(t, tools.KindValidation, tools.Classify(err))
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := tools.ValidateArguments(testTool(), map[string]any{"name": true})
	assert.EqualError(t, err, `invalid argument "name": must be a string, got boolean`)
}
