// Package catalog is the single table of tool descriptors and handlers. The MCP server and the
// speech agent both dispatch through it, so the two surfaces advertise and validate identically.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/tools"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/tools/dynamic"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/tools/modules"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/tools/records"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/tools/system"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/tools/users"
	toolsconfig "github.com/mkd-neo4j/odoo-support-mcp/tools"
)

type toolFilter func(defs []Definition) []Definition

type Category int

const (
	SystemCategory  Category = 0
	ModulesCategory Category = 1
	UsersCategory   Category = 2
	RecordsCategory Category = 3
	DynamicCategory Category = 4 // YAML config-based tools
)

func (c Category) String() string {
	switch c {
	case SystemCategory:
		return "system"
	case ModulesCategory:
		return "modules"
	case UsersCategory:
		return "users"
	case RecordsCategory:
		return "records"
	case DynamicCategory:
		return "dynamic"
	default:
		return "unknown"
	}
}

// Definition is one catalog entry.
type Definition struct {
	category Category
	tool     mcp.Tool
	handler  tools.Handler
	readonly bool
}

func (d Definition) Category() Category { return d.category }
func (d Definition) Tool() mcp.Tool     { return d.tool }
func (d Definition) ReadOnly() bool     { return d.readonly }

// Options tune which tools are exposed and how they run.
type Options struct {
	// ReadOnly drops every tool that mutates ERP state.
	ReadOnly bool
	// MaxConcurrentCalls bounds handlers running at once.
	MaxConcurrentCalls int
	// Allowlist governs search_records. Nil loads the embedded default.
	Allowlist *records.Allowlist
	// ConfigDir is where YAML tools are read from when the embedded set is empty.
	ConfigDir string
}

// Catalog is immutable after New.
type Catalog struct {
	defs   []Definition
	byName map[string]int
	runner *tools.Runner
	deps   *tools.ToolDependencies
}

// New builds the catalog. Duplicate tool names are an error.
func New(deps *tools.ToolDependencies, opts Options) (*Catalog, error) {
	allow := opts.Allowlist
	if allow == nil {
		var err error
		if allow, err = records.LoadAllowlist(""); err != nil {
			return nil, err
		}
	}

	defs, err := allToolDefs(deps, allow, opts.ConfigDir)
	if err != nil {
		return nil, err
	}

	filters := make([]toolFilter, 0)
	// If read-only mode is enabled, expose only tools annotated as read-only.
	if opts.ReadOnly {
		filters = append(filters, filterWriteTools)
	}
	for _, filter := range filters {
		defs = filter(defs)
	}

	c := &Catalog{
		defs:   defs,
		byName: make(map[string]int, len(defs)),
		runner: tools.NewRunner(opts.MaxConcurrentCalls),
		deps:   deps,
	}
	for i, d := range defs {
		if _, dup := c.byName[d.tool.Name]; dup {
			return nil, fmt.Errorf("duplicate tool name %q", d.tool.Name)
		}
		c.byName[d.tool.Name] = i
	}

	slog.Info("tool catalog ready", "tools", len(defs), "readOnly", opts.ReadOnly)
	return c, nil
}

func filterWriteTools(defs []Definition) []Definition {
	readOnlyTools := make([]Definition, 0, len(defs))
	for _, d := range defs {
		if d.readonly {
			readOnlyTools = append(readOnlyTools, d)
		}
	}
	return readOnlyTools
}

// allToolDefs returns all available tools with their specs and handlers
func allToolDefs(deps *tools.ToolDependencies, allow *records.Allowlist, configDir string) ([]Definition, error) {
	defs := []Definition{
		// System
		{category: SystemCategory, tool: system.GetDatabaseInfoSpec(), handler: system.GetDatabaseInfoHandler(deps), readonly: true},
		{category: SystemCategory, tool: system.GetCompanyInfoSpec(), handler: system.GetCompanyInfoHandler(deps), readonly: true},
		{category: SystemCategory, tool: system.CheckOdooStatusSpec(), handler: system.CheckOdooStatusHandler(deps), readonly: true},
		{category: SystemCategory, tool: system.GetServerLogsSpec(), handler: system.GetServerLogsHandler(deps), readonly: true},
		// Modules
		{category: ModulesCategory, tool: modules.ListModulesSpec(), handler: modules.ListModulesHandler(deps), readonly: true},
		{category: ModulesCategory, tool: modules.GetModuleInfoSpec(), handler: modules.GetModuleInfoHandler(deps), readonly: true},
		{category: ModulesCategory, tool: modules.CheckModuleDependenciesSpec(), handler: modules.CheckModuleDependenciesHandler(deps), readonly: true},
		{category: ModulesCategory, tool: modules.InstallModuleSpec(), handler: modules.InstallModuleHandler(deps), readonly: false},
		{category: ModulesCategory, tool: modules.UpgradeModuleSpec(), handler: modules.UpgradeModuleHandler(deps), readonly: false},
		// Users
		{category: UsersCategory, tool: users.ListUsersSpec(), handler: users.ListUsersHandler(deps), readonly: true},
		{category: UsersCategory, tool: users.GetUserDetailsSpec(), handler: users.GetUserDetailsHandler(deps), readonly: true},
		{category: UsersCategory, tool: users.FindUserSpec(), handler: users.FindUserHandler(deps), readonly: true},
		{category: UsersCategory, tool: users.CreateUserSpec(), handler: users.CreateUserHandler(deps), readonly: false},
		{category: UsersCategory, tool: users.ResetUserPasswordSpec(), handler: users.ResetUserPasswordHandler(deps), readonly: false},
		// Records
		{category: RecordsCategory, tool: records.SearchRecordsSpec(allow), handler: records.SearchRecordsHandler(deps, allow), readonly: true},
	}

	dynamicDefs, err := loadDynamicTools(configDir)
	if err != nil {
		return nil, err
	}
	return append(defs, dynamicDefs...), nil
}

// loadDynamicTools loads tools from the embedded YAML configs
func loadDynamicTools(configDir string) ([]Definition, error) {
	if configDir == "" {
		configDir = "tools/config"
	}

	registry := dynamic.NewToolRegistry(toolsconfig.ConfigFiles, configDir)
	if err := registry.LoadTools(); err != nil {
		return nil, err
	}
	if registry.GetToolCount() == 0 {
		slog.Info("no dynamic tools found in config directory")
		return nil, nil
	}

	built := registry.BuildTools()
	defs := make([]Definition, 0, len(built))
	for _, t := range built {
		defs = append(defs, Definition{
			category: DynamicCategory,
			tool:     t.Spec,
			handler:  t.Handler,
			readonly: true,
		})
	}
	return defs, nil
}

// Definitions returns the exposed entries in catalog order.
func (c *Catalog) Definitions() []Definition {
	return append([]Definition(nil), c.defs...)
}

// Tools returns the exposed tool descriptors in catalog order.
func (c *Catalog) Tools() []mcp.Tool {
	out := make([]mcp.Tool, 0, len(c.defs))
	for _, d := range c.defs {
		out = append(out, d.tool)
	}
	return out
}

// Lookup returns the entry for name.
func (c *Catalog) Lookup(name string) (Definition, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Definition{}, false
	}
	return c.defs[i], true
}

// Call looks up name, validates args against its schema and runs the handler on the
// offload runner. It never returns a Go error: failures come back as error payloads.
func (c *Catalog) Call(ctx context.Context, name string, args map[string]any) tools.Result {
	def, ok := c.Lookup(name)
	if !ok {
		slog.Warn("unknown tool requested", "tool", name)
		return tools.Failure(name, &tools.UnknownToolError{Name: name})
	}
	if args == nil {
		args = map[string]any{}
	}

	if c.deps.AnalyticsService != nil {
		c.deps.AnalyticsService.EmitEvent(c.deps.AnalyticsService.NewToolsEvent(name))
	}
	start := time.Now()

	var result tools.Result
	if err := tools.ValidateArguments(def.tool, args); err != nil {
		result = tools.Failure(name, err)
	} else {
		value, err := c.runner.Run(ctx, func(ctx context.Context) (any, error) {
			return def.handler(ctx, tools.Arguments(args))
		})
		if err != nil {
			result = tools.Failure(name, err)
		} else {
			result = tools.Success(name, value)
		}
	}

	c.record(result, time.Since(start))
	return result
}

// record logs and counts the outcome. Argument values are never logged.
func (c *Catalog) record(result tools.Result, elapsed time.Duration) {
	outcome := "ok"
	if result.IsError() {
		outcome = string(result.Err.Kind)
		slog.Warn("tool call failed", "tool", result.Tool, "kind", outcome, "error", result.Err.Error, "elapsed", elapsed)
	} else {
		slog.Info("tool call succeeded", "tool", result.Tool, "elapsed", elapsed)
	}

	if c.deps.AnalyticsService != nil {
		c.deps.AnalyticsService.EmitEvent(c.deps.AnalyticsService.NewToolResultEvent(result.Tool, outcome, elapsed))
	}
}
