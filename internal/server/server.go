// Package server exposes the tool catalog as an MCP server over stdio.
package server

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/analytics"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/config"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/odoo"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/tools/catalog"
)

const (
	serverName = "odoo-support-mcp"

	instructions = "Tools for supporting users of an Odoo ERP instance: server and company status, " +
		"installed modules, users, allowlisted record search and error analysis. " +
		"Failed calls return a JSON object with \"error\" and \"kind\" keys."

	startupProbeTimeout = 5 * time.Second
)

// OdooMCPServer dispatches MCP tool requests to the catalog. It holds no business logic.
type OdooMCPServer struct {
	MCPServer *server.MCPServer
	config    *config.Config
	catalog   *catalog.Catalog
	odoo      odoo.Service
	anService analytics.Service
	version   string
}

// NewOdooMCPServer creates the MCP server and registers every catalog tool on it.
func NewOdooMCPServer(version string, cfg *config.Config, cat *catalog.Catalog, odooService odoo.Service, anService analytics.Service) *OdooMCPServer {
	s := &OdooMCPServer{
		config:    cfg,
		catalog:   cat,
		odoo:      odooService,
		anService: anService,
		version:   version,
	}

	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(s.rerouteUnknownTool)

	s.MCPServer = server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions(instructions),
		server.WithHooks(hooks),
		server.WithToolFilter(hideUnknownTool),
	)
	s.registerTools()
	return s
}

// Start serves MCP over stdin/stdout until ctx is done or stdin closes.
// Logs must go to stderr: stdout carries the protocol.
func (s *OdooMCPServer) Start(ctx context.Context, stdin io.Reader, stdout io.Writer, stderr io.Writer) error {
	s.emitStartup(ctx)

	stdio := server.NewStdioServer(s.MCPServer)
	stdio.SetErrorLogger(log.New(stderr, "", log.LstdFlags))

	slog.Info("starting MCP server on stdio", "version", s.version, "tools", len(s.catalog.Tools()))
	if err := stdio.Listen(ctx, stdin, stdout); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp server stopped: %w", err)
	}
	return nil
}

// emitStartup records the startup event. An unreachable ERP does not block startup.
func (s *OdooMCPServer) emitStartup(ctx context.Context) {
	if s.anService == nil {
		return
	}

	info := analytics.StartupEventInfo{
		Surface:   "mcp",
		ToolCount: len(s.catalog.Tools()),
		ReadOnly:  s.config != nil && s.config.ReadOnly,
	}
	if s.odoo != nil {
		probeCtx, cancel := context.WithTimeout(ctx, startupProbeTimeout)
		defer cancel()
		if v, err := s.odoo.Version(probeCtx); err != nil {
			slog.Warn("odoo not reachable at startup", "endpoint", s.odoo.Endpoint(), "error", err)
		} else {
			info.OdooVersion = v.ServerVersion
		}
	}
	s.anService.EmitEvent(s.anService.NewStartupEvent(info))
}

// ListTools returns the advertised descriptors.
func (s *OdooMCPServer) ListTools() []mcp.Tool {
	return s.catalog.Tools()
}

// CallTool dispatches one call in-process, exactly as a tools/call request would.
func (s *OdooMCPServer) CallTool(ctx context.Context, name string, args map[string]any) *mcp.CallToolResult {
	return toCallToolResult(s.catalog.Call(ctx, name, args))
}
