// Command odoo-support-api serves the HTTP API the web client uses to open support sessions.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mkd-neo4j/odoo-support-mcp/internal/analytics"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/api"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/app"
)

type options struct {
	app.Options
	Listen string `long:"listen" description:"listen address (default :$PORT)"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var opts options
	if _, ok, err := app.ParseFlags(&opts, os.Args[1:]); err != nil || !ok {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rt, err := app.Bootstrap(ctx, opts.Options, os.Stdout, "odoo-support-api")
	if err != nil {
		return err
	}
	defer func() {
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutCancel()
		rt.Close(shutCtx)
	}()

	if !rt.Config.LiveKit.Configured() {
		slog.Warn("LiveKit credentials not configured; /token and /create-room will fail")
	}

	apiServer := api.NewServer(rt.Config, rt.Odoo, api.WithMetricsHandler(rt.Telemetry.MetricsHandler()))

	addr := opts.Listen
	if addr == "" {
		addr = fmt.Sprintf(":%d", rt.Config.Port)
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           otelhttp.NewHandler(apiServer.Router(), "odoo-support-api"),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	rt.Analytics.EmitEvent(rt.Analytics.NewStartupEvent(analytics.StartupEventInfo{
		Surface:   "api",
		ToolCount: len(rt.Catalog.Tools()),
		ReadOnly:  rt.Config.ReadOnly,
	}))

	errCh := make(chan error, 1)
	go func() {
		slog.Info("api server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("api server: %w", err)
		}
	}

	slog.Info("shutting down api server")
	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	return srv.Shutdown(shutCtx)
}
