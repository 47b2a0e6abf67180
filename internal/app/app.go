// Package app holds the startup sequence every binary shares: flags, environment, logging,
// telemetry, the ERP client and the tool catalog.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jessevdk/go-flags"
	"go.opentelemetry.io/otel"

	"github.com/mkd-neo4j/odoo-support-mcp/internal/analytics"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/config"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/logger"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/odoo"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/telemetry"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/tools"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/tools/catalog"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/tools/records"
)

// Version is overridden at build time with -ldflags "-X .../internal/app.Version=...".
var Version = "dev"

// Options are the flags common to every binary. Embed it in a binary's own option struct.
type Options struct {
	EnvFile     string `long:"env-file" default:".env" description:"dotenv file to seed the environment from"`
	LogLevel    string `long:"log-level" description:"debug, info, warn or error (overrides LOG_LEVEL)"`
	LogFormat   string `long:"log-format" choice:"text" choice:"json" description:"log format (overrides LOG_FORMAT)"`
	AllowWrites bool   `long:"allow-writes" description:"expose tools that change ERP state (overrides ODOO_ALLOW_WRITES)"`
	ConfigDir   string `long:"tools-dir" description:"directory of YAML tool definitions, used when none are embedded"`
	NoAnalytics bool   `long:"no-analytics" description:"stop recording usage metrics (overrides ODOO_SUPPORT_ANALYTICS)"`
}

// ParseFlags fills opts from args. It returns ok=false after printing help.
func ParseFlags(opts any, args []string) (rest []string, ok bool, err error) {
	parser := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	rest, err = parser.ParseArgs(args)
	if err != nil {
		var flagErr *flags.Error
		if errors.As(err, &flagErr) && flagErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, flagErr.Message)
			return nil, false, nil
		}
		return nil, false, err
	}
	return rest, true, nil
}

// Runtime is everything Bootstrap built. Close releases it.
type Runtime struct {
	Config    *config.Config
	Logger    *slog.Logger
	Telemetry *telemetry.Telemetry
	Analytics *analytics.Analytics
	Odoo      *odoo.Client
	Catalog   *catalog.Catalog
}

// Bootstrap loads the configuration and builds the shared services. Logs go to logOut; the
// MCP binary passes stderr because stdout carries the protocol.
func Bootstrap(ctx context.Context, opts Options, logOut io.Writer, service string) (*Runtime, error) {
	if err := config.LoadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	applyOverrides(cfg, opts)

	log := logger.Init(logOut, cfg.LogLevel, cfg.LogFormat)

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = service
	}
	tel, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:  serviceName,
		Version:      Version,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Insecure:     true,
	})
	if err != nil {
		return nil, err
	}

	an, err := analytics.New(otel.Meter("github.com/mkd-neo4j/odoo-support-mcp"))
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, err
	}
	if cfg.Analytics {
		an.Enable()
	} else {
		an.Disable()
	}

	client, err := odoo.NewClient(cfg.Odoo)
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("odoo client: %w", err)
	}

	allow, err := records.LoadAllowlist(cfg.AllowlistFile)
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, err
	}

	cat, err := catalog.New(&tools.ToolDependencies{
		Odoo:             client,
		AnalyticsService: an,
		ServerLogFile:    cfg.ServerLogFile,
	}, catalog.Options{
		ReadOnly:           cfg.ReadOnly,
		MaxConcurrentCalls: cfg.MaxConcurrentCalls,
		Allowlist:          allow,
		ConfigDir:          opts.ConfigDir,
	})
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("tool catalog: %w", err)
	}

	log.Info("runtime ready",
		"service", serviceName,
		"version", Version,
		"odoo", client.Endpoint(),
		"database", client.DatabaseName(),
		"read_only", cfg.ReadOnly,
		"tools", len(cat.Tools()),
	)

	return &Runtime{
		Config:    cfg,
		Logger:    log,
		Telemetry: tel,
		Analytics: an,
		Odoo:      client,
		Catalog:   cat,
	}, nil
}

func applyOverrides(cfg *config.Config, opts Options) {
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if opts.LogFormat != "" {
		cfg.LogFormat = opts.LogFormat
	}
	if opts.AllowWrites {
		cfg.ReadOnly = false
	}
	if opts.NoAnalytics {
		cfg.Analytics = false
	}
}

// Close drops the ERP session and flushes telemetry.
func (r *Runtime) Close(ctx context.Context) {
	r.Odoo.Disconnect()
	if err := r.Telemetry.Shutdown(ctx); err != nil {
		r.Logger.Error("telemetry shutdown", "error", err)
	}
}
