// Package analytics records tool usage as OpenTelemetry metrics.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	eventStartup    = "startup"
	eventToolCall   = "tool_call"
	eventToolResult = "tool_result"
)

// TrackEvent is one usage event. Properties become metric attributes.
type TrackEvent struct {
	Event      string
	Properties map[string]any
}

// StartupEventInfo describes a process start.
type StartupEventInfo struct {
	Surface     string // "mcp", "agent" or "api"
	ToolCount   int
	ReadOnly    bool
	OdooVersion string
}

// Analytics is the metrics-backed Service.
type Analytics struct {
	disabled atomic.Bool

	startups  metric.Int64Counter
	toolCalls metric.Int64Counter
	results   metric.Int64Counter
	duration  metric.Float64Histogram
}

var _ Service = (*Analytics)(nil)

// New creates the instruments on meter.
func New(meter metric.Meter) (*Analytics, error) {
	startups, err := meter.Int64Counter("odoo_support.startups",
		metric.WithDescription("Process starts by surface"))
	if err != nil {
		return nil, fmt.Errorf("create startups counter: %w", err)
	}
	toolCalls, err := meter.Int64Counter("odoo_support.tool_calls",
		metric.WithDescription("Tool invocations by tool name"))
	if err != nil {
		return nil, fmt.Errorf("create tool calls counter: %w", err)
	}
	results, err := meter.Int64Counter("odoo_support.tool_results",
		metric.WithDescription("Tool outcomes by tool name and outcome kind"))
	if err != nil {
		return nil, fmt.Errorf("create tool results counter: %w", err)
	}
	duration, err := meter.Float64Histogram("odoo_support.tool_duration",
		metric.WithDescription("Tool call latency"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}

	return &Analytics{
		startups:  startups,
		toolCalls: toolCalls,
		results:   results,
		duration:  duration,
	}, nil
}

func (a *Analytics) Disable() {
	slog.Info("analytics disabled")
	a.disabled.Store(true)
}

func (a *Analytics) Enable() {
	a.disabled.Store(false)
}

// EmitEvent records event. It never blocks on I/O.
func (a *Analytics) EmitEvent(event TrackEvent) {
	if a.disabled.Load() {
		return
	}

	ctx := context.Background()
	attrs := metric.WithAttributes(toAttributes(event.Properties)...)

	switch event.Event {
	case eventStartup:
		a.startups.Add(ctx, 1, attrs)
	case eventToolCall:
		a.toolCalls.Add(ctx, 1, attrs)
	case eventToolResult:
		a.results.Add(ctx, 1, metric.WithAttributes(toAttributes(withoutKey(event.Properties, "seconds"))...))
		if secs, ok := event.Properties["seconds"].(float64); ok {
			a.duration.Record(ctx, secs, metric.WithAttributes(attribute.String("tool", fmt.Sprint(event.Properties["tool"]))))
		}
	default:
		slog.Debug("ignoring unknown analytics event", "event", event.Event)
		return
	}
	slog.Debug("analytics event", "event", event.Event, "properties", event.Properties)
}

func (a *Analytics) NewStartupEvent(info StartupEventInfo) TrackEvent {
	props := map[string]any{
		"surface":    info.Surface,
		"tool_count": info.ToolCount,
		"read_only":  info.ReadOnly,
	}
	if info.OdooVersion != "" {
		props["odoo_version"] = info.OdooVersion
	}
	return TrackEvent{Event: eventStartup, Properties: props}
}

func (a *Analytics) NewToolsEvent(toolsUsed string) TrackEvent {
	return TrackEvent{Event: eventToolCall, Properties: map[string]any{"tool": toolsUsed}}
}

func (a *Analytics) NewToolResultEvent(tool, outcome string, elapsed time.Duration) TrackEvent {
	return TrackEvent{
		Event: eventToolResult,
		Properties: map[string]any{
			"tool":    tool,
			"outcome": outcome,
			"seconds": elapsed.Seconds(),
		},
	}
}

func toAttributes(props map[string]any) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(props))
	for k, v := range props {
		switch val := v.(type) {
		case string:
			attrs = append(attrs, attribute.String(k, val))
		case bool:
			attrs = append(attrs, attribute.Bool(k, val))
		case int:
			attrs = append(attrs, attribute.Int(k, val))
		case float64:
			attrs = append(attrs, attribute.Float64(k, val))
		default:
			attrs = append(attrs, attribute.String(k, fmt.Sprint(val)))
		}
	}
	return attrs
}

func withoutKey(props map[string]any, key string) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		if k != key {
			out[k] = v
		}
	}
	return out
}
