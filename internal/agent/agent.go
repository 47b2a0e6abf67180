package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mkd-neo4j/odoo-support-mcp/internal/realtime"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/tools/catalog"
)

//go:generate mockgen -destination=mocks/mock_session.go -package=agent_mocks github.com/mkd-neo4j/odoo-support-mcp/internal/agent Session

// Session is the part of the realtime client the agent drives.
type Session interface {
	RegisterTool(tool realtime.Tool)
	ConfigureSession() error
	SendText(text string) error
	Say(text string) error
	SendImage(jpeg []byte) error
}

// Agent wires the catalog and the frame pipeline into one session.
type Agent struct {
	session Session
	catalog *catalog.Catalog
	frames  *FramePipeline
}

func New(session Session, cat *catalog.Catalog, frames *FramePipeline) *Agent {
	if frames == nil {
		frames = NewFramePipeline(0, 0)
	}
	return &Agent{session: session, catalog: cat, frames: frames}
}

// Start registers every catalog tool and configures the session. If greeting is set the
// model speaks it as the opening turn.
func (a *Agent) Start(greeting string) error {
	bound := Bindings(a.catalog)
	for _, tool := range bound {
		a.session.RegisterTool(tool)
	}
	if err := a.session.ConfigureSession(); err != nil {
		return fmt.Errorf("configure session: %w", err)
	}
	slog.Info("agent session configured", "tools", len(bound))

	if greeting != "" {
		return a.session.Say(greeting)
	}
	return nil
}

// Ask sends a typed user turn.
func (a *Agent) Ask(text string) error {
	return a.session.SendText(text)
}

// Frame runs one screen-share frame through the pipeline and attaches it when it is not
// rate-limited. It reports whether the frame was forwarded.
func (a *Agent) Frame(data []byte) (bool, error) {
	jpeg, ok, err := a.frames.Process(data)
	if err != nil || !ok {
		return false, err
	}
	if err := a.attach(jpeg); err != nil {
		return false, err
	}
	return true, nil
}

// FrameWait attaches a frame the user asked for explicitly, waiting out the rate limit
// instead of dropping it.
func (a *Agent) FrameWait(ctx context.Context, data []byte) error {
	jpeg, err := a.frames.ProcessWait(ctx, data)
	if err != nil {
		return err
	}
	return a.attach(jpeg)
}

func (a *Agent) attach(jpeg []byte) error {
	if err := a.session.SendImage(jpeg); err != nil {
		return fmt.Errorf("attach frame: %w", err)
	}
	slog.Debug("attached screen-share frame", "bytes", len(jpeg))
	return nil
}
