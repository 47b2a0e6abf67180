package records_test

import (
	"context"
	"testing"

	"github.com/mkd-neo4j/odoo-support-mcp/internal/odoo"
	odoo_mocks "github.com/mkd-neo4j/odoo-support-mcp/internal/odoo/mocks"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/tools"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/tools/records"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testAllowlist = `
default_limit: 10
max_limit: 25
models:
  res.partner:
    default_fields: [name, email, is_company]
    boolean_fields: [is_company]
  sale.order:
    default_fields: []
`

func newHandler(t *testing.T) (tools.Handler, *odoo_mocks.MockService) {
	ctrl := gomock.NewController(t)
	mockOdoo := odoo_mocks.NewMockService(ctrl)

	allow, err := records.ParseAllowlist([]byte(testAllowlist))
	require.NoError(t, err)
	return records.SearchRecordsHandler(&tools.ToolDependencies{Odoo: mockOdoo}, allow), mockOdoo
}

func TestSearchRecordsRejectsModelsOutsideAllowlist(t *testing.T) {
	for _, model := range []string{"res.users.apikeys", "ir.config_parameter", "", "RES.PARTNER"} {
		t.Run(model, func(t *testing.T) {
			// No EXPECT: any ERP call fails the test.
			handler, _ := newHandler(t)
			_, err := handler(context.Background(), tools.Arguments{"model": model, "domain": []any{}})

			var validationErr *tools.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, "model", validationErr.Field)
		})
	}
}

func TestSearchRecordsReturnsExactlyRequestedFields(t *testing.T) {
	handler, mockOdoo := newHandler(t)
	mockOdoo.EXPECT().
		SearchRead(gomock.Any(), "res.partner",
			odoo.Domain{[]any{"is_company", "=", true}},
			odoo.SearchOptions{Fields: []string{"name", "country_id"}, Limit: 10, Order: "id asc"}).
		Return([]odoo.Record{
			{"id": float64(1), "name": "Azure Interior", "country_id": []any{float64(233), "United States"}},
			{"id": float64(3), "name": "Deco Addict", "country_id": false},
		}, nil)

	result, err := handler(context.Background(), tools.Arguments{
		"model":  "res.partner",
		"domain": []any{[]any{"is_company", "=", true}},
		"fields": []any{"name", "country_id"},
	})
	require.NoError(t, err)

	assert.Equal(t, []map[string]any{
		{"name": "Azure Interior", "country_id": "United States"},
		{"name": "Deco Addict", "country_id": nil},
	}, result)
}

func TestSearchRecordsDefaultFieldsAndLimit(t *testing.T) {
	handler, mockOdoo := newHandler(t)
	mockOdoo.EXPECT().
		SearchRead(gomock.Any(), "res.partner", odoo.Domain{"|", []any{"name", "ilike", "deco"}, []any{"email", "ilike", "deco"}},
			odoo.SearchOptions{Fields: []string{"name", "email", "is_company"}, Limit: 25, Order: "id asc"}).
		Return([]odoo.Record{{"id": float64(3), "name": "Deco Addict", "email": false, "is_company": false}}, nil)

	result, err := handler(context.Background(), tools.Arguments{
		"model":  "res.partner",
		"domain": []any{"|", []any{"name", "ilike", "deco"}, []any{"email", "ilike", "deco"}},
		"limit":  float64(500),
	})
	require.NoError(t, err)

	assert.Equal(t, []map[string]any{{"name": "Deco Addict", "email": nil, "is_company": false}}, result)
}

func TestSearchRecordsModelWithoutDefaultFields(t *testing.T) {
	handler, mockOdoo := newHandler(t)
	mockOdoo.EXPECT().
		SearchRead(gomock.Any(), "sale.order", odoo.Domain{}, gomock.Any()).
		Return([]odoo.Record{{"id": float64(8), "name": "S00008"}}, nil)

	result, err := handler(context.Background(), tools.Arguments{"model": "sale.order", "domain": []any{}})
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"name": "S00008"}}, result)
}

func TestSearchRecordsRejectsMalformedDomains(t *testing.T) {
	tests := []struct {
		name   string
		domain any
		field  string
	}{
		{"not a list", "name = x", "domain"},
		{"pair instead of triple", []any{[]any{"name", "="}}, "domain[0]"},
		{"unknown operator", []any{[]any{"name", "~", "x"}}, "domain[0]"},
		{"bad field name", []any{[]any{"name; drop", "=", "x"}}, "domain[0]"},
		{"unknown logical operator", []any{"^", []any{"name", "=", "x"}}, "domain[0]"},
		{"number term", []any{[]any{"name", "=", "x"}, 3.0}, "domain[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _ := newHandler(t)
			_, err := handler(context.Background(), tools.Arguments{"model": "res.partner", "domain": tt.domain})

			var validationErr *tools.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}
}

func TestSearchRecordsIsIdempotent(t *testing.T) {
	handler, mockOdoo := newHandler(t)
	mockOdoo.EXPECT().SearchRead(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]odoo.Record{{"id": float64(1), "name": "Azure Interior", "email": "azure@example.com", "is_company": true}}, nil).
		Times(2)

	args := tools.Arguments{"model": "res.partner", "domain": []any{}}
	first, err := handler(context.Background(), args)
	require.NoError(t, err)
	second, err := handler(context.Background(), args)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParseAllowlist(t *testing.T) {
	allow, err := records.ParseAllowlist([]byte("models:\n  res.partner:\n    default_fields: [name]\n"))
	require.NoError(t, err)
	assert.Equal(t, 50, allow.DefaultLimit)
	assert.Equal(t, 200, allow.MaxLimit)
	assert.Equal(t, []string{"res.partner"}, allow.Names())

	_, err = records.ParseAllowlist([]byte("models: {}\n"))
	assert.Error(t, err)

	_, err = records.ParseAllowlist([]byte("default_limit: 300\nmax_limit: 200\nmodels:\n  res.partner: {}\n"))
	assert.Error(t, err)
}

func TestEmbeddedAllowlist(t *testing.T) {
	allow, err := records.LoadAllowlist("")
	require.NoError(t, err)

	_, ok := allow.Policy("res.partner")
	assert.True(t, ok)
	_, ok = allow.Policy("ir.config_parameter")
	assert.False(t, ok, "system parameters must never be searchable")
	assert.Equal(t, 50, allow.DefaultLimit)
	assert.Equal(t, 200, allow.MaxLimit)
}
