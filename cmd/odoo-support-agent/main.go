// Command odoo-support-agent runs one speech-to-speech support session against the realtime
// model. Typed lines on stdin become user turns; "/frame <path>" attaches a screenshot.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mkd-neo4j/odoo-support-mcp/docs"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/agent"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/analytics"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/app"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/realtime"
)

type options struct {
	app.Options
	RealtimeURL   string        `long:"realtime-url" description:"realtime API websocket URL"`
	Frames        []string      `long:"frame" description:"screenshot to attach once the session starts (repeatable)"`
	FrameInterval time.Duration `long:"frame-interval" default:"1s" description:"minimum time between forwarded frames"`
	NoGreeting    bool          `long:"no-greeting" description:"do not speak the opening greeting"`
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

	rt, err := app.Bootstrap(ctx, opts.Options, os.Stderr, "odoo-support-agent")
	if err != nil {
		return err
	}
	defer func() {
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutCancel()
		rt.Close(shutCtx)
	}()

	if rt.Config.Realtime.APIKey == "" {
		return errors.New("OPENAI_API_KEY must be set")
	}

	client := realtime.NewClient(realtime.Config{
		URL:          opts.RealtimeURL,
		APIKey:       rt.Config.Realtime.APIKey,
		Model:        rt.Config.Realtime.Model,
		Voice:        rt.Config.Realtime.Voice,
		Instructions: docs.SystemPrompt,
		Temperature:  rt.Config.Realtime.Temperature,
	})
	client.OnTranscript = func(role, text string, isFinal bool) {
		if isFinal {
			fmt.Printf("%s: %s\n", role, text)
		}
	}
	client.OnToolCall = func(name, output string) {
		slog.Info("tool call completed", "tool", name, "bytes", len(output))
	}
	client.OnError = func(err error) {
		slog.Error("realtime error", "error", err)
	}

	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Close()

	a := agent.New(client, rt.Catalog, agent.NewFramePipeline(agent.DefaultMaxDimension, opts.FrameInterval))
	greeting := strings.TrimSpace(docs.GreetingPrompt)
	if opts.NoGreeting {
		greeting = ""
	}
	if err := a.Start(greeting); err != nil {
		return err
	}

	rt.Analytics.EmitEvent(rt.Analytics.NewStartupEvent(analytics.StartupEventInfo{
		Surface:   "agent",
		ToolCount: len(rt.Catalog.Tools()),
		ReadOnly:  rt.Config.ReadOnly,
	}))

	for _, path := range opts.Frames {
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Error("read frame failed", "path", path, "error", err)
			continue
		}
		if err := a.FrameWait(ctx, data); err != nil {
			slog.Error("attach frame failed", "path", path, "error", err)
		}
	}

	go readTurns(a)

	select {
	case <-ctx.Done():
	case <-client.Done():
		slog.Info("realtime session ended")
	}
	return nil
}

// readTurns forwards stdin lines until EOF.
func readTurns(a *agent.Agent) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case strings.HasPrefix(line, "/frame "):
			attachFrame(a, strings.TrimSpace(strings.TrimPrefix(line, "/frame ")))
		default:
			if err := a.Ask(line); err != nil {
				slog.Error("send turn failed", "error", err)
			}
		}
	}
}

func attachFrame(a *agent.Agent, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Error("read frame failed", "path", path, "error", err)
		return
	}
	forwarded, err := a.Frame(data)
	switch {
	case err != nil:
		slog.Error("attach frame failed", "path", path, "error", err)
	case !forwarded:
		slog.Info("frame dropped by rate limit", "path", path)
	}
}
