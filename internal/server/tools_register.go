package server

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/tools"
)

// unknownToolName is the hidden tool unknown calls are rerouted to. It is never listed.
const unknownToolName = "__unknown_tool__"

// unknownToolArg carries the name the client asked for into the fallback handler.
const unknownToolArg = "requested_tool"

// registerTools registers every tool the catalog exposes on the MCP server.
// Read-only filtering has already happened in the catalog (ODOO_ALLOW_WRITES unset means
// only tools annotated read-only are present), so both surfaces see the same list.
func (s *OdooMCPServer) registerTools() {
	enabled := s.getEnabledTools()
	s.MCPServer.AddTools(enabled...)
	s.MCPServer.AddTool(mcp.NewTool(unknownToolName), s.handleUnknownTool)
	slog.Debug("registered MCP tools", "count", len(enabled))
}

func (s *OdooMCPServer) getEnabledTools() []server.ServerTool {
	defs := s.catalog.Definitions()
	enabledTools := make([]server.ServerTool, 0, len(defs))
	for _, def := range defs {
		enabledTools = append(enabledTools, server.ServerTool{
			Tool:    def.Tool(),
			Handler: s.dispatch(def.Tool().Name),
		})
	}
	return enabledTools
}

// dispatch returns the MCP handler for one tool. Tool failures are error results,
// never Go errors, so the client always gets the payload.
func (s *OdooMCPServer) dispatch(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return toCallToolResult(s.catalog.Call(ctx, name, request.GetArguments())), nil
	}
}

// rerouteUnknownTool runs before mcp-go's own lookup, which would answer a miss with a
// JSON-RPC error instead of the catalog's unknown_tool payload.
func (s *OdooMCPServer) rerouteUnknownTool(_ context.Context, _ any, request *mcp.CallToolRequest) {
	name := request.Params.Name
	if _, ok := s.catalog.Lookup(name); ok {
		return
	}
	request.Params.Name = unknownToolName
	request.Params.Arguments = map[string]any{unknownToolArg: name}
}

func (s *OdooMCPServer) handleUnknownTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString(unknownToolArg, "")
	return toCallToolResult(s.catalog.Call(ctx, name, nil)), nil
}

// hideUnknownTool keeps the fallback out of tools/list.
func hideUnknownTool(_ context.Context, listed []mcp.Tool) []mcp.Tool {
	visible := make([]mcp.Tool, 0, len(listed))
	for _, tool := range listed {
		if tool.Name != unknownToolName {
			visible = append(visible, tool)
		}
	}
	return visible
}

func toCallToolResult(result tools.Result) *mcp.CallToolResult {
	if result.IsError() {
		return mcp.NewToolResultError(result.JSON())
	}
	return mcp.NewToolResultText(result.JSON())
}
