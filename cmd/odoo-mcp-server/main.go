// Command odoo-mcp-server exposes the Odoo support tools over MCP on stdio.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkd-neo4j/odoo-support-mcp/internal/app"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var opts app.Options
	if _, ok, err := app.ParseFlags(&opts, os.Args[1:]); err != nil || !ok {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// stdout carries the protocol; everything else goes to stderr.
	rt, err := app.Bootstrap(ctx, opts, os.Stderr, "odoo-mcp-server")
	if err != nil {
		return err
	}
	defer func() {
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutCancel()
		rt.Close(shutCtx)
	}()

	srv := server.NewOdooMCPServer(app.Version, rt.Config, rt.Catalog, rt.Odoo, rt.Analytics)
	return srv.Start(ctx, os.Stdin, os.Stdout, os.Stderr)
}
