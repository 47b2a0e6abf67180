// Package modules implements the ir.module.module tools.
package modules

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mkd-neo4j/odoo-support-mcp/internal/odoo"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/tools"
)

const (
	moduleModel     = "ir.module.module"
	dependencyModel = "ir.module.module.dependency"
)

var moduleInfoFields = []string{
	"name", "shortdesc", "summary", "state", "installed_version", "latest_version",
	"author", "website", "license", "category_id", "application",
}

// Module is one entry of list_modules.
type Module struct {
	Name    string `json:"name"`
	State   string `json:"state"`
	Version any    `json:"version"`
}

// ListModulesHandler returns a handler function for the list_modules tool
func ListModulesHandler(deps *tools.ToolDependencies) tools.Handler {
	return func(ctx context.Context, args tools.Arguments) (any, error) {
		domain := odoo.Domain{}
		if state := args.String("state"); state != "" {
			domain = append(domain, odoo.Cond("state", "=", state))
		}

		records, err := deps.Odoo.SearchRead(ctx, moduleModel, domain, odoo.SearchOptions{
			Fields: []string{"name", "state", "installed_version", "latest_version"},
			Order:  "name asc",
		})
		if err != nil {
			slog.Error("failed to list modules", "error", err)
			return nil, err
		}

		out := make([]Module, 0, len(records))
		for _, rec := range records {
			out = append(out, Module{
				Name:    fmt.Sprint(rec["name"]),
				State:   fmt.Sprint(rec["state"]),
				Version: versionOf(rec),
			})
		}
		slog.Info("listed modules", "count", len(out), "state", args.String("state"))
		return out, nil
	}
}

// GetModuleInfoHandler returns a handler function for the get_module_info tool
func GetModuleInfoHandler(deps *tools.ToolDependencies) tools.Handler {
	return func(ctx context.Context, args tools.Arguments) (any, error) {
		name, err := moduleName(args)
		if err != nil {
			return nil, err
		}

		rec, err := findModule(ctx, deps.Odoo, name, moduleInfoFields)
		if err != nil {
			return nil, err
		}
		return tools.NormalizeRecord(rec, moduleInfoFields, "application"), nil
	}
}

// CheckModuleDependenciesHandler returns a handler function for the check_module_dependencies tool
func CheckModuleDependenciesHandler(deps *tools.ToolDependencies) tools.Handler {
	return func(ctx context.Context, args tools.Arguments) (any, error) {
		name, err := moduleName(args)
		if err != nil {
			return nil, err
		}

		rec, err := findModule(ctx, deps.Odoo, name, []string{"id"})
		if err != nil {
			return nil, err
		}
		moduleID, _ := odoo.AsInt64(rec["id"])

		records, err := deps.Odoo.SearchRead(ctx, dependencyModel,
			odoo.Domain{odoo.Cond("module_id", "=", moduleID)},
			odoo.SearchOptions{Fields: []string{"name"}, Order: "name asc"})
		if err != nil {
			slog.Error("failed to read module dependencies", "module", name, "error", err)
			return nil, err
		}

		names := make([]string, 0, len(records))
		for _, dep := range records {
			if n, ok := dep["name"].(string); ok {
				names = append(names, n)
			}
		}
		return names, nil
	}
}

// InstallModuleHandler returns a handler function for the install_module tool
func InstallModuleHandler(deps *tools.ToolDependencies) tools.Handler {
	return func(ctx context.Context, args tools.Arguments) (any, error) {
		name, err := moduleName(args)
		if err != nil {
			return nil, err
		}

		rec, err := findModule(ctx, deps.Odoo, name, []string{"id", "state"})
		if err != nil {
			return nil, err
		}
		if rec["state"] == "installed" {
			return ActionResult{Module: name, Action: "install", State: "installed", Changed: false}, nil
		}
		if rec["state"] == "uninstallable" {
			return nil, &tools.OperationError{Op: "install_module", Err: fmt.Errorf("module %q is not installable", name)}
		}

		return runButton(ctx, deps.Odoo, rec, name, "install", "button_immediate_install")
	}
}

// UpgradeModuleHandler returns a handler function for the upgrade_module tool
func UpgradeModuleHandler(deps *tools.ToolDependencies) tools.Handler {
	return func(ctx context.Context, args tools.Arguments) (any, error) {
		name, err := moduleName(args)
		if err != nil {
			return nil, err
		}

		rec, err := findModule(ctx, deps.Odoo, name, []string{"id", "state"})
		if err != nil {
			return nil, err
		}
		if rec["state"] != "installed" {
			return nil, &tools.OperationError{Op: "upgrade_module", Err: fmt.Errorf("module %q is not installed (state %v)", name, rec["state"])}
		}

		return runButton(ctx, deps.Odoo, rec, name, "upgrade", "button_immediate_upgrade")
	}
}

// ActionResult reports an install or upgrade. State is nil when the module could not be
// re-read after the action.
type ActionResult struct {
	Module  string `json:"module"`
	Action  string `json:"action"`
	State   any    `json:"state"`
	Changed bool   `json:"changed"`
}

func runButton(ctx context.Context, svc odoo.Service, rec odoo.Record, name, action, method string) (any, error) {
	id, _ := odoo.AsInt64(rec["id"])
	slog.Info("running module action", "module", name, "action", action)

	if _, err := svc.Execute(ctx, moduleModel, method, []any{[]int64{id}}, nil); err != nil {
		slog.Error("module action failed", "module", name, "action", action, "error", err)
		return nil, err
	}

	result := ActionResult{Module: name, Action: action, Changed: true}
	after, err := svc.Read(ctx, moduleModel, []int64{id}, []string{"state"})
	switch {
	case err != nil:
		slog.Warn("could not re-read module state", "module", name, "action", action, "error", err)
	case len(after) == 1:
		if s, ok := after[0]["state"].(string); ok {
			result.State = s
		}
	}
	return result, nil
}

func moduleName(args tools.Arguments) (string, error) {
	name := args.String("module_name")
	if name == "" {
		return "", &tools.ValidationError{Field: "module_name", Reason: "must not be empty"}
	}
	return name, nil
}

func findModule(ctx context.Context, svc odoo.Service, name string, fields []string) (odoo.Record, error) {
	records, err := svc.SearchRead(ctx, moduleModel,
		odoo.Domain{odoo.Cond("name", "=", name)},
		odoo.SearchOptions{Fields: fields, Limit: 1})
	if err != nil {
		slog.Error("failed to look up module", "module", name, "error", err)
		return nil, err
	}
	if len(records) == 0 {
		return nil, &tools.NotFoundError{Entity: "module", Key: name}
	}
	return records[0], nil
}

// versionOf prefers the installed version and falls back to the available one.
func versionOf(rec odoo.Record) any {
	for _, key := range []string{"installed_version", "latest_version"} {
		if v, ok := rec[key].(string); ok && v != "" {
			return v
		}
	}
	return nil
}
