// Package realtime is a client for the OpenAI Realtime API: a websocket session for
// speech-to-speech conversation in which the model can call registered tools.
package realtime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	DefaultURL   = "wss://api.openai.com/v1/realtime"
	DefaultModel = "gpt-4o-realtime-preview"
	DefaultVoice = "alloy"

	handshakeTimeout = 10 * time.Second
	readTimeout      = 120 * time.Second
	pingInterval     = 30 * time.Second
	writeTimeout     = 10 * time.Second
)

var ErrNotConnected = errors.New("realtime: not connected")

// Tool is a function the model may call. Parameters is a JSON schema object.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
	// Handler returns the text handed back to the model as the call output.
	Handler func(ctx context.Context, args map[string]any) string `json:"-"`
}

// Config parameterizes the session.
type Config struct {
	URL          string
	APIKey       string
	Model        string
	Voice        string
	Instructions string
	Temperature  float64
}

// Client manages one websocket session.
type Client struct {
	cfg    Config
	logger *slog.Logger

	wsMu sync.Mutex
	ws   *websocket.Conn

	toolsMu  sync.RWMutex
	tools    []Tool
	toolsMap map[string]Tool

	sessionReady atomic.Bool
	closed       atomic.Bool
	cancel       context.CancelFunc
	done         chan struct{}
	calls        sync.WaitGroup

	// Callbacks. Set before Connect.
	OnSessionCreated func()
	OnTranscript     func(role, text string, isFinal bool)
	OnToolCall       func(name, output string)
	OnError          func(err error)
}

// NewClient creates a client; Connect opens the session.
func NewClient(cfg Config) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Voice == "" {
		cfg.Voice = DefaultVoice
	}
	return &Client{
		cfg:      cfg,
		logger:   slog.Default().With("component", "realtime"),
		toolsMap: make(map[string]Tool),
		done:     make(chan struct{}),
	}
}

// RegisterTool adds a tool the model can use. Call ConfigureSession afterwards to advertise it.
func (c *Client) RegisterTool(tool Tool) {
	c.toolsMu.Lock()
	defer c.toolsMu.Unlock()
	if _, exists := c.toolsMap[tool.Name]; !exists {
		c.tools = append(c.tools, tool)
	}
	c.toolsMap[tool.Name] = tool
}

// Connect dials the API and starts reading events. Tool calls run on a context derived
// from ctx; cancelling it stops them.
func (c *Client) Connect(ctx context.Context) error {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return fmt.Errorf("invalid realtime url: %w", err)
	}
	q := u.Query()
	q.Set("model", c.cfg.Model)
	u.RawQuery = q.Encode()

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+c.cfg.APIKey)
	headers.Set("OpenAI-Beta", "realtime=v1")

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	c.logger.Info("connecting to realtime API", "model", c.cfg.Model)

	conn, resp, err := dialer.DialContext(ctx, u.String(), headers)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("failed to connect to realtime API (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("failed to connect to realtime API: %w", err)
	}

	conn.SetPingHandler(func(appData string) error {
		c.wsMu.Lock()
		defer c.wsMu.Unlock()
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(5*time.Second))
	})

	msgCtx, cancel := context.WithCancel(ctx)
	c.wsMu.Lock()
	c.ws = conn
	c.cancel = cancel
	c.wsMu.Unlock()

	go c.handleMessages(msgCtx, conn)
	go c.keepAlive(msgCtx, conn)

	c.logger.Info("connected to realtime API")
	return nil
}

// keepAlive sends periodic pings to keep the connection alive
func (c *Client) keepAlive(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-ticker.C:
			c.wsMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
			c.wsMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// ConfigureSession sends session.update with instructions, voice and every registered tool.
func (c *Client) ConfigureSession() error {
	c.toolsMu.RLock()
	apiTools := make([]map[string]any, 0, len(c.tools))
	for _, tool := range c.tools {
		apiTools = append(apiTools, map[string]any{
			"type":        "function",
			"name":        tool.Name,
			"description": tool.Description,
			"parameters":  tool.Parameters,
		})
	}
	c.toolsMu.RUnlock()

	session := map[string]any{
		"modalities":          []string{"text", "audio"},
		"instructions":        c.cfg.Instructions,
		"voice":               c.cfg.Voice,
		"input_audio_format":  "pcm16",
		"output_audio_format": "pcm16",
		"input_audio_transcription": map[string]any{
			"model": "whisper-1",
		},
		"turn_detection": map[string]any{
			"type":                "server_vad",
			"threshold":           0.5,
			"prefix_padding_ms":   300,
			"silence_duration_ms": 500,
		},
		"tools":       apiTools,
		"tool_choice": "auto",
	}
	if c.cfg.Temperature > 0 {
		session["temperature"] = c.cfg.Temperature
	}

	return c.send(map[string]any{"type": "session.update", "session": session})
}

// SendText adds a user text turn and asks for a response.
func (c *Client) SendText(text string) error {
	if err := c.send(map[string]any{
		"type": "conversation.item.create",
		"item": map[string]any{
			"type": "message",
			"role": "user",
			"content": []map[string]any{
				{"type": "input_text", "text": text},
			},
		},
	}); err != nil {
		return err
	}
	return c.send(map[string]any{"type": "response.create"})
}

// Say asks the model to speak text verbatim as its own turn.
func (c *Client) Say(text string) error {
	return c.send(map[string]any{
		"type": "response.create",
		"response": map[string]any{
			"instructions": "Say exactly the following to the user, then wait for them to reply: " + text,
		},
	})
}

// SendImage attaches a JPEG frame to the conversation. It is read with the next turn;
// no response is requested.
func (c *Client) SendImage(jpeg []byte) error {
	return c.send(map[string]any{
		"type": "conversation.item.create",
		"item": map[string]any{
			"type": "message",
			"role": "user",
			"content": []map[string]any{
				{
					"type":      "input_image",
					"image_url": "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpeg),
				},
			},
		},
	})
}

// SendAudio appends PCM16 audio to the input buffer.
func (c *Client) SendAudio(pcm16 []byte) error {
	return c.send(map[string]any{
		"type":  "input_audio_buffer.append",
		"audio": base64.StdEncoding.EncodeToString(pcm16),
	})
}

// CancelResponse interrupts the current response
func (c *Client) CancelResponse() error {
	return c.send(map[string]any{"type": "response.cancel"})
}

// Done is closed when the session ends.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// IsReady reports whether session.created has been received.
func (c *Client) IsReady() bool {
	return c.sessionReady.Load()
}

// Close ends the session and waits for running tool calls.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.wsMu.Lock()
	conn := c.ws
	cancel := c.cancel
	c.ws = nil
	c.wsMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		conn.Close()
		// The read loop is the only caller of calls.Add.
		<-c.done
	}
	c.calls.Wait()
	c.logger.Info("disconnected from realtime API")
	return nil
}

// handleMessages processes incoming events until the connection drops
func (c *Client) handleMessages(ctx context.Context, conn *websocket.Conn) {
	defer close(c.done)

	for {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if !c.closed.Load() {
				c.reportError(fmt.Errorf("realtime connection lost: %w", err))
			}
			return
		}

		var msg map[string]any
		if err := json.Unmarshal(message, &msg); err != nil {
			c.logger.Warn("ignoring malformed event", "error", err)
			continue
		}

		msgType, _ := msg["type"].(string)
		switch msgType {
		case "session.created":
			c.sessionReady.Store(true)
			if c.OnSessionCreated != nil {
				c.OnSessionCreated()
			}

		case "conversation.item.input_audio_transcription.completed":
			if transcript, ok := msg["transcript"].(string); ok {
				c.transcript("user", transcript, true)
			}

		case "response.audio_transcript.delta", "response.text.delta":
			if delta, ok := msg["delta"].(string); ok {
				c.transcript("assistant", delta, false)
			}

		case "response.audio_transcript.done":
			if text, ok := msg["transcript"].(string); ok {
				c.transcript("assistant", text, true)
			}

		case "response.text.done":
			if text, ok := msg["text"].(string); ok {
				c.transcript("assistant", text, true)
			}

		case "response.function_call_arguments.done":
			c.calls.Add(1)
			go func() {
				defer c.calls.Done()
				c.handleFunctionCall(ctx, msg)
			}()

		case "error":
			errMsg := "unknown error"
			if errData, ok := msg["error"].(map[string]any); ok {
				if m, ok := errData["message"].(string); ok {
					errMsg = m
				}
			}
			c.reportError(fmt.Errorf("realtime API error: %s", errMsg))
		}
	}
}

// handleFunctionCall executes a tool and sends the result back
func (c *Client) handleFunctionCall(ctx context.Context, msg map[string]any) {
	name, _ := msg["name"].(string)
	callID, _ := msg["call_id"].(string)
	argsStr, _ := msg["arguments"].(string)

	c.logger.Info("tool called by model", "tool", name, "call_id", callID)

	args := map[string]any{}
	var output string
	if argsStr != "" {
		if err := json.Unmarshal([]byte(argsStr), &args); err != nil {
			output = fmt.Sprintf("I couldn't complete %s: the arguments were not valid JSON", name)
		}
	}

	if output == "" {
		c.toolsMu.RLock()
		tool, ok := c.toolsMap[name]
		c.toolsMu.RUnlock()

		if ok && tool.Handler != nil {
			output = tool.Handler(ctx, args)
		} else {
			c.logger.Warn("model called unknown tool", "tool", name)
			output = fmt.Sprintf("I couldn't complete %s: no such tool", name)
		}
	}

	if c.OnToolCall != nil {
		c.OnToolCall(name, output)
	}

	if err := c.send(map[string]any{
		"type": "conversation.item.create",
		"item": map[string]any{
			"type":    "function_call_output",
			"call_id": callID,
			"output":  output,
		},
	}); err != nil {
		c.reportError(err)
		return
	}
	if err := c.send(map[string]any{"type": "response.create"}); err != nil {
		c.reportError(err)
	}
}

func (c *Client) transcript(role, text string, final bool) {
	if c.OnTranscript != nil {
		c.OnTranscript(role, text, final)
	}
}

func (c *Client) reportError(err error) {
	c.logger.Error("realtime session error", "error", err)
	if c.OnError != nil {
		c.OnError(err)
	}
}

// send writes one client event, stamping it with an event id.
func (c *Client) send(event map[string]any) error {
	event["event_id"] = "evt_" + uuid.NewString()

	c.wsMu.Lock()
	defer c.wsMu.Unlock()
	if c.ws == nil {
		return ErrNotConnected
	}
	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.ws.WriteJSON(event); err != nil {
		return fmt.Errorf("realtime send %v: %w", event["type"], err)
	}
	return nil
}
