package system_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mkd-neo4j/odoo-support-mcp/internal/odoo"
	odoo_mocks "github.com/mkd-neo4j/odoo-support-mcp/internal/odoo/mocks"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/tools"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/tools/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newDeps(t *testing.T) (*tools.ToolDependencies, *odoo_mocks.MockService) {
	ctrl := gomock.NewController(t)
	mockOdoo := odoo_mocks.NewMockService(ctrl)
	mockOdoo.EXPECT().DatabaseName().Return("odoo").AnyTimes()
	mockOdoo.EXPECT().Endpoint().Return("http://odoo:8069").AnyTimes()
	return &tools.ToolDependencies{Odoo: mockOdoo}, mockOdoo
}

func TestGetDatabaseInfoHandler(t *testing.T) {
	deps, mockOdoo := newDeps(t)
	mockOdoo.EXPECT().Version(gomock.Any()).
		Return(&odoo.ServerVersion{ServerVersion: "17.0", ServerSerie: "17.0", ProtocolVersion: 1}, nil)
	mockOdoo.EXPECT().Count(gomock.Any(), "ir.module.module", odoo.Domain{[]any{"state", "=", "installed"}}).
		Return(int64(42), nil)

	result, err := system.GetDatabaseInfoHandler(deps)(context.Background(), tools.Arguments{})
	require.NoError(t, err)
	assert.Equal(t, system.DatabaseInfo{
		Name:             "odoo",
		Version:          "17.0",
		ServerSerie:      "17.0",
		ProtocolVersion:  1,
		Endpoint:         "http://odoo:8069",
		InstalledModules: 42,
	}, result)
}

func TestGetCompanyInfoHandler(t *testing.T) {
	t.Run("first company", func(t *testing.T) {
		deps, mockOdoo := newDeps(t)
		mockOdoo.EXPECT().SearchRead(gomock.Any(), "res.company", odoo.Domain{}, gomock.Any()).
			Return([]odoo.Record{{
				"id": float64(1), "name": "YourCompany", "street": "250 Executive Park Blvd", "street2": false,
				"zip": "94134", "city": "San Francisco", "state_id": []any{float64(13), "California (US)"},
				"country_id": []any{float64(233), "United States"}, "currency_id": []any{float64(1), "USD"},
				"email": "info@yourcompany.com", "phone": false, "website": "http://www.example.com", "vat": false,
			}}, nil)

		result, err := system.GetCompanyInfoHandler(deps)(context.Background(), tools.Arguments{})
		require.NoError(t, err)
		assert.Equal(t, system.CompanyInfo{
			Name:     "YourCompany",
			Address:  "250 Executive Park Blvd, 94134 San Francisco, California (US), United States",
			Currency: "USD",
			Email:    "info@yourcompany.com",
			Phone:    nil,
			Website:  "http://www.example.com",
			VAT:      nil,
		}, result)
	})

	t.Run("no company", func(t *testing.T) {
		deps, mockOdoo := newDeps(t)
		mockOdoo.EXPECT().SearchRead(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)

		_, err := system.GetCompanyInfoHandler(deps)(context.Background(), tools.Arguments{})
		assert.Equal(t, tools.KindNotFound, tools.Classify(err))
	})
}

func TestCheckOdooStatusHandler(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		deps, mockOdoo := newDeps(t)
		mockOdoo.EXPECT().Version(gomock.Any()).Return(&odoo.ServerVersion{ServerVersion: "17.0"}, nil)
		mockOdoo.EXPECT().Connect(gomock.Any()).Return(&odoo.Session{UID: 2}, nil)

		result, err := system.CheckOdooStatusHandler(deps)(context.Background(), tools.Arguments{})
		require.NoError(t, err)
		status := result.(system.Status)
		assert.True(t, status.Reachable)
		assert.True(t, status.Authenticated)
		assert.Equal(t, "17.0", status.Version)
	})

	t.Run("unreachable is reported, not raised", func(t *testing.T) {
		deps, mockOdoo := newDeps(t)
		mockOdoo.EXPECT().Version(gomock.Any()).
			Return(nil, &odoo.ConnectionError{Endpoint: "http://odoo:8069", Err: errors.New("connection refused")})

		result, err := system.CheckOdooStatusHandler(deps)(context.Background(), tools.Arguments{})
		require.NoError(t, err)
		status := result.(system.Status)
		assert.False(t, status.Reachable)
		assert.Contains(t, status.Detail, "connection refused")
	})

	t.Run("bad credentials", func(t *testing.T) {
		deps, mockOdoo := newDeps(t)
		mockOdoo.EXPECT().Version(gomock.Any()).Return(&odoo.ServerVersion{ServerVersion: "17.0"}, nil)
		mockOdoo.EXPECT().Connect(gomock.Any()).Return(nil, &odoo.AuthenticationError{Database: "odoo", Username: "admin"})

		result, err := system.CheckOdooStatusHandler(deps)(context.Background(), tools.Arguments{})
		require.NoError(t, err)
		status := result.(system.Status)
		assert.True(t, status.Reachable)
		assert.False(t, status.Authenticated)
	})
}

func TestGetServerLogsHandler(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "odoo-server.log")
	var sb strings.Builder
	for i := 1; i <= 120; i++ {
		fmt.Fprintf(&sb, "2026-10-14 10:00:%02d INFO odoo line %d\n", i%60, i)
	}
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o600))

	deps := &tools.ToolDependencies{ServerLogFile: path}
	handler := system.GetServerLogsHandler(deps)

	t.Run("default tail", func(t *testing.T) {
		result, err := handler(context.Background(), tools.Arguments{})
		require.NoError(t, err)
		logs := result.(system.ServerLogs)
		require.Len(t, logs.Lines, 50)
		assert.True(t, strings.HasSuffix(logs.Lines[0], "line 71"))
		assert.True(t, strings.HasSuffix(logs.Lines[49], "line 120"))
	})

	t.Run("more than the file has", func(t *testing.T) {
		result, err := handler(context.Background(), tools.Arguments{"lines": float64(400)})
		require.NoError(t, err)
		logs := result.(system.ServerLogs)
		require.Len(t, logs.Lines, 120)
		assert.True(t, strings.HasSuffix(logs.Lines[0], "line 1"))
	})

	t.Run("missing file", func(t *testing.T) {
		missing := system.GetServerLogsHandler(&tools.ToolDependencies{ServerLogFile: filepath.Join(dir, "nope.log")})
		_, err := missing(context.Background(), tools.Arguments{})
		assert.Equal(t, tools.KindNotFound, tools.Classify(err))
	})
}
