// Package agent binds the tool catalog into a speech-to-speech session and feeds it
// screen-share frames.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/realtime"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/tools"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/tools/catalog"
)

// Bindings returns one session tool per catalog entry. Name, description and schema
// come from the same descriptor the MCP server advertises.
func Bindings(cat *catalog.Catalog) []realtime.Tool {
	descriptors := cat.Tools()
	bound := make([]realtime.Tool, 0, len(descriptors))
	for _, tool := range descriptors {
		name := tool.Name
		bound = append(bound, realtime.Tool{
			Name:        name,
			Description: tool.Description,
			Parameters:  Schema(tool),
			Handler: func(ctx context.Context, args map[string]any) string {
				return Render(cat.Call(ctx, name, args))
			},
		})
	}
	return bound
}

// Schema renders the descriptor's input schema as a plain JSON schema object.
func Schema(tool mcp.Tool) map[string]any {
	schema := map[string]any{}
	if data, err := json.Marshal(tool.InputSchema); err == nil {
		if err := json.Unmarshal(data, &schema); err != nil {
			slog.Warn("failed to decode tool schema", "tool", tool.Name, "error", err)
		}
	}

	schema["type"] = "object"
	if _, ok := schema["properties"]; !ok {
		schema["properties"] = map[string]any{}
	}
	if _, ok := schema["required"]; !ok {
		schema["required"] = []string{}
	}
	return schema
}

// Render turns a gateway result into text for the model: compact JSON on success, a
// sentence the model can relay on failure.
func Render(result tools.Result) string {
	if result.IsError() {
		return fmt.Sprintf("I couldn't complete %s: %s", result.Tool, result.Err.Error)
	}
	return result.JSON()
}
