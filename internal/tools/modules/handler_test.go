package modules_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mkd-neo4j/odoo-support-mcp/internal/odoo"
	odoo_mocks "github.com/mkd-neo4j/odoo-support-mcp/internal/odoo/mocks"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/tools"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/tools/modules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newDeps(t *testing.T) (*tools.ToolDependencies, *odoo_mocks.MockService) {
	ctrl := gomock.NewController(t)
	mockOdoo := odoo_mocks.NewMockService(ctrl)
	return &tools.ToolDependencies{Odoo: mockOdoo}, mockOdoo
}

func TestListModulesHandler(t *testing.T) {
	t.Run("returns name, state and version", func(t *testing.T) {
		deps, mockOdoo := newDeps(t)
		mockOdoo.EXPECT().
			SearchRead(gomock.Any(), "ir.module.module", odoo.Domain{}, gomock.Any()).
			Return([]odoo.Record{
				{"id": float64(1), "name": "base", "state": "installed", "installed_version": "17.0.1.3", "latest_version": "17.0.1.3"},
				{"id": float64(2), "name": "sale", "state": "uninstalled", "installed_version": false, "latest_version": "17.0.1.2"},
				{"id": float64(3), "name": "odd", "state": "uninstallable", "installed_version": false, "latest_version": false},
			}, nil)

		result, err := modules.ListModulesHandler(deps)(context.Background(), tools.Arguments{})
		require.NoError(t, err)

		assert.Equal(t, []modules.Module{
			{Name: "base", State: "installed", Version: "17.0.1.3"},
			{Name: "sale", State: "uninstalled", Version: "17.0.1.2"},
			{Name: "odd", State: "uninstallable", Version: nil},
		}, result)
	})

	t.Run("state filter becomes a domain", func(t *testing.T) {
		deps, mockOdoo := newDeps(t)
		mockOdoo.EXPECT().
			SearchRead(gomock.Any(), "ir.module.module", odoo.Domain{[]any{"state", "=", "installed"}}, gomock.Any()).
			Return([]odoo.Record{}, nil)

		result, err := modules.ListModulesHandler(deps)(context.Background(), tools.Arguments{"state": "installed"})
		require.NoError(t, err)
		assert.Empty(t, result)
	})

	t.Run("propagates ERP errors", func(t *testing.T) {
		deps, mockOdoo := newDeps(t)
		mockOdoo.EXPECT().SearchRead(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, &odoo.ConnectionError{Endpoint: "http://odoo:8069", Err: errors.New("refused")})

		_, err := modules.ListModulesHandler(deps)(context.Background(), tools.Arguments{})
		assert.Equal(t, tools.KindConnection, tools.Classify(err))
	})
}

func TestGetModuleInfoHandler(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		deps, mockOdoo := newDeps(t)
		mockOdoo.EXPECT().
			SearchRead(gomock.Any(), "ir.module.module", odoo.Domain{[]any{"name", "=", "sale"}}, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, _ odoo.Domain, opts odoo.SearchOptions) ([]odoo.Record, error) {
				assert.Equal(t, 1, opts.Limit)
				return []odoo.Record{{
					"id": float64(9), "name": "sale", "shortdesc": "Sales", "state": "installed",
					"installed_version": "17.0.1.2", "author": "Odoo S.A.", "website": false,
					"category_id": []any{float64(4), "Sales/Sales"}, "application": true,
				}}, nil
			})

		result, err := modules.GetModuleInfoHandler(deps)(context.Background(), tools.Arguments{"module_name": "sale"})
		require.NoError(t, err)

		info := result.(map[string]any)
		assert.Equal(t, "sale", info["name"])
		assert.Equal(t, "Sales/Sales", info["category_id"])
		assert.Nil(t, info["website"])
		assert.Equal(t, true, info["application"])
		assert.NotContains(t, info, "id")
	})

	t.Run("not found", func(t *testing.T) {
		deps, mockOdoo := newDeps(t)
		mockOdoo.EXPECT().SearchRead(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return([]odoo.Record{}, nil)

		_, err := modules.GetModuleInfoHandler(deps)(context.Background(), tools.Arguments{"module_name": "nope"})
		var notFound *tools.NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "nope", notFound.Key)
	})

	t.Run("blank name is rejected before any call", func(t *testing.T) {
		deps, _ := newDeps(t)
		_, err := modules.GetModuleInfoHandler(deps)(context.Background(), tools.Arguments{"module_name": "   "})
		assert.Equal(t, tools.KindValidation, tools.Classify(err))
	})
}

func TestCheckModuleDependenciesHandler(t *testing.T) {
	deps, mockOdoo := newDeps(t)
	gomock.InOrder(
		mockOdoo.EXPECT().
			SearchRead(gomock.Any(), "ir.module.module", gomock.Any(), gomock.Any()).
			Return([]odoo.Record{{"id": float64(12)}}, nil),
		mockOdoo.EXPECT().
			SearchRead(gomock.Any(), "ir.module.module.dependency", odoo.Domain{[]any{"module_id", "=", int64(12)}}, gomock.Any()).
			Return([]odoo.Record{{"id": float64(1), "name": "account"}, {"id": float64(2), "name": "sales_team"}}, nil),
	)

	result, err := modules.CheckModuleDependenciesHandler(deps)(context.Background(), tools.Arguments{"module_name": "sale"})
	require.NoError(t, err)
	assert.Equal(t, []string{"account", "sales_team"}, result)
}

func TestInstallModuleHandler(t *testing.T) {
	t.Run("installs an uninstalled module", func(t *testing.T) {
		deps, mockOdoo := newDeps(t)
		mockOdoo.EXPECT().SearchRead(gomock.Any(), "ir.module.module", gomock.Any(), gomock.Any()).
			Return([]odoo.Record{{"id": float64(5), "state": "uninstalled"}}, nil)
		mockOdoo.EXPECT().Execute(gomock.Any(), "ir.module.module", "button_immediate_install", []any{[]int64{5}}, nil).
			Return(true, nil)
		mockOdoo.EXPECT().Read(gomock.Any(), "ir.module.module", []int64{5}, []string{"state"}).
			Return([]odoo.Record{{"id": float64(5), "state": "installed"}}, nil)

		result, err := modules.InstallModuleHandler(deps)(context.Background(), tools.Arguments{"module_name": "crm"})
		require.NoError(t, err)
		assert.Equal(t, modules.ActionResult{Module: "crm", Action: "install", State: "installed", Changed: true}, result)
	})

	t.Run("already installed is a no-op", func(t *testing.T) {
		deps, mockOdoo := newDeps(t)
		mockOdoo.EXPECT().SearchRead(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]odoo.Record{{"id": float64(5), "state": "installed"}}, nil)

		result, err := modules.InstallModuleHandler(deps)(context.Background(), tools.Arguments{"module_name": "crm"})
		require.NoError(t, err)
		assert.False(t, result.(modules.ActionResult).Changed)
	})

	t.Run("failed re-read reports no state", func(t *testing.T) {
		deps, mockOdoo := newDeps(t)
		mockOdoo.EXPECT().SearchRead(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]odoo.Record{{"id": float64(5), "state": "uninstalled"}}, nil)
		mockOdoo.EXPECT().Execute(gomock.Any(), gomock.Any(), "button_immediate_install", gomock.Any(), gomock.Any()).
			Return(true, nil)
		mockOdoo.EXPECT().Read(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, &odoo.ConnectionError{Endpoint: "http://odoo:8069", Err: context.DeadlineExceeded})

		result, err := modules.InstallModuleHandler(deps)(context.Background(), tools.Arguments{"module_name": "crm"})
		require.NoError(t, err)
		assert.Equal(t, modules.ActionResult{Module: "crm", Action: "install", Changed: true}, result)

		data, err := json.Marshal(result)
		require.NoError(t, err)
		assert.JSONEq(t, `{"module":"crm","action":"install","state":null,"changed":true}`, string(data))
	})
}

func TestUpgradeModuleHandler(t *testing.T) {
	t.Run("refuses modules that are not installed", func(t *testing.T) {
		deps, mockOdoo := newDeps(t)
		mockOdoo.EXPECT().SearchRead(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]odoo.Record{{"id": float64(5), "state": "uninstalled"}}, nil)

		_, err := modules.UpgradeModuleHandler(deps)(context.Background(), tools.Arguments{"module_name": "crm"})
		var opErr *tools.OperationError
		require.ErrorAs(t, err, &opErr)
		assert.Equal(t, "upgrade_module", opErr.Op)
	})

	t.Run("upgrades an installed module", func(t *testing.T) {
		deps, mockOdoo := newDeps(t)
		mockOdoo.EXPECT().SearchRead(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]odoo.Record{{"id": float64(5), "state": "installed"}}, nil)
		mockOdoo.EXPECT().Execute(gomock.Any(), "ir.module.module", "button_immediate_upgrade", gomock.Any(), gomock.Any()).
			Return(nil, nil)
		mockOdoo.EXPECT().Read(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]odoo.Record{{"state": "installed"}}, nil)

		result, err := modules.UpgradeModuleHandler(deps)(context.Background(), tools.Arguments{"module_name": "crm"})
		require.NoError(t, err)
		assert.Equal(t, "upgrade", result.(modules.ActionResult).Action)
	})
}
