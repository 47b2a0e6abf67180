package tools_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mkd-neo4j/odoo-support-mcp/internal/odoo"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/tools"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want tools.Kind
	}{
		{"unknown tool", &tools.UnknownToolError{Name: "nope"}, tools.KindUnknownTool},
		{"validation", &tools.ValidationError{Field: "model", Reason: "not allowed"}, tools.KindValidation},
		{"not found", &tools.NotFoundError{Entity: "user", Key: "42"}, tools.KindNotFound},
		{"wrapped not found", fmt.Errorf("lookup: %w", &tools.NotFoundError{Entity: "module", Key: "sale"}), tools.KindNotFound},
		{"cancelled", context.Canceled, tools.KindCancelled},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), tools.KindCancelled},
		{"authentication", &odoo.AuthenticationError{Username: "admin"}, tools.KindAuthentication},
		{"connection", &odoo.ConnectionError{Endpoint: "http://odoo:8069", Err: errors.New("refused")}, tools.KindConnection},
		{"missing record fault", &odoo.RPCError{Name: "odoo.exceptions.MissingError", Message: "gone"}, tools.KindNotFound},
		{"access fault", &odoo.RPCError{Name: "odoo.exceptions.AccessError", Message: "no"}, tools.KindOperation},
		{"operation", &tools.OperationError{Op: "upgrade_module", Err: errors.New("not installed")}, tools.KindOperation},
		{"plain error", errors.New("boom"), tools.KindOperation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tools.Classify(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, `user "42" not found`, (&tools.NotFoundError{Entity: "user", Key: "42"}).Error())
	assert.Equal(t, "no company found", (&tools.NotFoundError{Entity: "company"}).Error())
	assert.Equal(t, `unknown tool "drop_database"`, (&tools.UnknownToolError{Name: "drop_database"}).Error())
	assert.Equal(t, "invalid arguments: domain must be a list", (&tools.ValidationError{Reason: "domain must be a list"}).Error())
}

func TestResultJSON(t *testing.T) {
	ok := tools.Success("list_users", []map[string]any{{"name": "Admin"}})
	assert.False(t, ok.IsError())
	assert.JSONEq(t, `[{"name":"Admin"}]`, ok.JSON())

	failed := tools.Failure("get_user_details", &tools.NotFoundError{Entity: "user", Key: "7"})
	assert.True(t, failed.IsError())
	assert.JSONEq(t, `{"error":"user \"7\" not found","kind":"not_found"}`, failed.JSON())

	unencodable := tools.Success("broken", map[string]any{"ch": make(chan int)})
	assert.Contains(t, unencodable.JSON(), `"kind":"operation"`)
}
