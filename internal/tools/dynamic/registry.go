package dynamic

import (
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/tools"
)

// Tool is a loaded dynamic tool ready for the catalog.
type Tool struct {
	Spec     mcp.Tool
	Handler  tools.Handler
	Category string
}

// ToolRegistry manages the loading and registration of dynamic tools
type ToolRegistry struct {
	embedded  fs.FS
	configDir string
	configs   []*ToolConfig
}

// NewToolRegistry creates a registry reading embedded first and configDir when embedded is empty.
func NewToolRegistry(embedded fs.FS, configDir string) *ToolRegistry {
	return &ToolRegistry{
		embedded:  embedded,
		configDir: configDir,
		configs:   make([]*ToolConfig, 0),
	}
}

// LoadTools loads all tool configurations from the config directory
func (r *ToolRegistry) LoadTools() error {
	configs, err := WalkConfigDirectory(r.embedded, r.configDir)
	if err != nil {
		return fmt.Errorf("failed to load tools from config directory: %w", err)
	}

	r.configs = configs
	slog.Info("loaded dynamic tools", "count", len(configs), "configDir", r.configDir)

	return nil
}

// GetToolCount returns the number of loaded tools
func (r *ToolRegistry) GetToolCount() int {
	return len(r.configs)
}

// GetTools returns all loaded tool configurations
func (r *ToolRegistry) GetTools() []*ToolConfig {
	return r.configs
}

// BuildTools converts all loaded configs into catalog tools
func (r *ToolRegistry) BuildTools() []Tool {
	built := make([]Tool, 0, len(r.configs))
	for _, config := range r.configs {
		built = append(built, Tool{
			Spec:     buildSpec(config),
			Handler:  NewDynamicHandler(config),
			Category: config.Category,
		})
		slog.Debug("built dynamic tool", "name", config.Name, "category", config.Category)
	}
	return built
}

// buildSpec creates the MCP tool descriptor from a tool config.
// All config-based tools are guidance tools (readonly, idempotent, non-destructive).
func buildSpec(config *ToolConfig) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(buildDescription(config)),
		mcp.WithTitleAnnotation(config.Name),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	}
	for _, p := range config.Parameters {
		opts = append(opts, parameterOption(p))
	}
	return mcp.NewTool(config.Name, opts...)
}

// buildDescription is the advertised description: the description plus intent.
// Known patterns stay out of the schema; the handler applies them.
func buildDescription(config *ToolConfig) string {
	description := strings.TrimSpace(config.Description)
	if config.Intent == "" {
		return description
	}
	return description + "\n\n" + strings.TrimSpace(config.Intent)
}

func parameterOption(p ParameterConfig) mcp.ToolOption {
	props := []mcp.PropertyOption{}
	if p.Description != "" {
		props = append(props, mcp.Description(p.Description))
	}
	if p.Required {
		props = append(props, mcp.Required())
	}
	if p.Default != nil {
		def := p.Default
		props = append(props, func(schema map[string]any) { schema["default"] = def })
	}

	switch p.Type {
	case "integer":
		return tools.WithInteger(p.Name, props...)
	case "number":
		return mcp.WithNumber(p.Name, props...)
	case "boolean":
		return mcp.WithBoolean(p.Name, props...)
	case "array":
		return mcp.WithArray(p.Name, props...)
	case "object":
		return mcp.WithObject(p.Name, props...)
	default:
		return mcp.WithString(p.Name, props...)
	}
}

// GetCategory returns the category for a given tool name
func (r *ToolRegistry) GetCategory(toolName string) string {
	for _, config := range r.configs {
		if config.Name == toolName {
			return config.Category
		}
	}
	return "unknown"
}
