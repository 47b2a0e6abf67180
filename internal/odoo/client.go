package odoo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/config"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	jsonRPCPath    = "/jsonrpc"
	maxFaultDetail = 512
)

// Client talks JSON-RPC 2.0 to an Odoo server (the same protocol odoorpc and the web client use).
type Client struct {
	cfg        config.OdooConfig
	endpoint   string
	httpClient *http.Client
	tracer     trace.Tracer

	mu      sync.Mutex
	session *Session
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the instrumented default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

var _ Service = (*Client)(nil)

// NewClient builds a client for the configured server. It does not contact the server;
// the session is established lazily by the first call.
func NewClient(cfg config.OdooConfig, opts ...Option) (*Client, error) {
	endpoint, err := buildEndpoint(cfg)
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:      cfg,
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		tracer: otel.Tracer("github.com/mkd-neo4j/odoo-support-mcp/internal/odoo"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// buildEndpoint derives the base URL. ODOO_HOST may be a bare host or carry its own scheme.
func buildEndpoint(cfg config.OdooConfig) (string, error) {
	scheme := "http"
	if cfg.Protocol == "jsonrpc+ssl" {
		scheme = "https"
	}

	host := strings.TrimSuffix(cfg.Host, "/")
	if strings.Contains(host, "://") {
		u, err := url.Parse(host)
		if err != nil {
			return "", fmt.Errorf("invalid ODOO_HOST %q: %w", cfg.Host, err)
		}
		if u.Port() == "" && cfg.Port > 0 {
			u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(cfg.Port))
		}
		return strings.TrimSuffix(u.String(), "/"), nil
	}
	if host == "" {
		return "", fmt.Errorf("ODOO_HOST must not be empty")
	}
	return fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(host, strconv.Itoa(cfg.Port))), nil
}

// Endpoint returns the base URL the client talks to.
func (c *Client) Endpoint() string { return c.endpoint }

// DatabaseName returns the configured database.
func (c *Client) DatabaseName() string { return c.cfg.Database }

// Connect logs in once and returns the shared session.
func (c *Client) Connect(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return c.session, nil
	}

	var raw any
	err := c.call(ctx, "common", "login", []any{c.cfg.Database, c.cfg.Username, c.cfg.Password}, &raw)
	if err != nil {
		slog.Error("failed to connect to Odoo", "endpoint", c.endpoint, "database", c.cfg.Database, "error", err)
		return nil, err
	}

	uid, ok := AsInt64(raw)
	if !ok || uid <= 0 {
		return nil, &AuthenticationError{Database: c.cfg.Database, Username: c.cfg.Username, Reason: "credentials rejected"}
	}

	c.session = &Session{UID: uid, Database: c.cfg.Database, Username: c.cfg.Username}
	slog.Info("connected to Odoo", "endpoint", c.endpoint, "database", c.cfg.Database, "uid", uid)
	return c.session, nil
}

// Disconnect forgets the session. JSON-RPC sessions are stateless on the server side.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		slog.Info("disconnected from Odoo", "endpoint", c.endpoint)
	}
	c.session = nil
}

// Version queries common.version. It does not need a session.
func (c *Client) Version(ctx context.Context) (*ServerVersion, error) {
	var v ServerVersion
	if err := c.call(ctx, "common", "version", []any{}, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Search returns the ids matching domain. limit <= 0 means no limit.
func (c *Client) Search(ctx context.Context, model string, domain Domain, limit int) ([]int64, error) {
	kwargs := map[string]any{}
	if limit > 0 {
		kwargs["limit"] = limit
	}
	var ids []int64
	if err := c.executeKw(ctx, model, "search", []any{nonNilDomain(domain)}, kwargs, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// Read returns the given fields of the given records. Empty fields means every field.
func (c *Client) Read(ctx context.Context, model string, ids []int64, fields []string) ([]Record, error) {
	kwargs := map[string]any{}
	if len(fields) > 0 {
		kwargs["fields"] = fields
	}
	var records []Record
	if err := c.executeKw(ctx, model, "read", []any{ids}, kwargs, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// SearchRead combines search and read in one round trip.
func (c *Client) SearchRead(ctx context.Context, model string, domain Domain, opts SearchOptions) ([]Record, error) {
	kwargs := map[string]any{}
	if len(opts.Fields) > 0 {
		kwargs["fields"] = opts.Fields
	}
	if opts.Limit > 0 {
		kwargs["limit"] = opts.Limit
	}
	if opts.Offset > 0 {
		kwargs["offset"] = opts.Offset
	}
	if opts.Order != "" {
		kwargs["order"] = opts.Order
	}
	if len(opts.Context) > 0 {
		kwargs["context"] = opts.Context
	}
	var records []Record
	if err := c.executeKw(ctx, model, "search_read", []any{nonNilDomain(domain)}, kwargs, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Count returns the number of records matching domain.
func (c *Client) Count(ctx context.Context, model string, domain Domain) (int64, error) {
	var n int64
	if err := c.executeKw(ctx, model, "search_count", []any{nonNilDomain(domain)}, nil, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// Execute calls an arbitrary model method and returns the decoded result.
func (c *Client) Execute(ctx context.Context, model, method string, args []any, kwargs map[string]any) (any, error) {
	if args == nil {
		args = []any{}
	}
	var out any
	if err := c.executeKw(ctx, model, method, args, kwargs, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts one record and returns its id.
func (c *Client) Create(ctx context.Context, model string, values map[string]any) (int64, error) {
	var id int64
	if err := c.executeKw(ctx, model, "create", []any{values}, nil, &id); err != nil {
		return 0, err
	}
	return id, nil
}

// Write updates the given records.
func (c *Client) Write(ctx context.Context, model string, ids []int64, values map[string]any) (bool, error) {
	var ok bool
	if err := c.executeKw(ctx, model, "write", []any{ids, values}, nil, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (c *Client) executeKw(ctx context.Context, model, method string, args []any, kwargs map[string]any, out any) error {
	sess, err := c.Connect(ctx)
	if err != nil {
		return err
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}

	ctx, span := c.tracer.Start(ctx, "odoo.execute_kw",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("odoo.model", model),
			attribute.String("odoo.method", method),
			attribute.String("odoo.database", sess.Database),
		))
	defer span.End()

	err = c.call(ctx, "object", "execute_kw", []any{sess.Database, sess.UID, c.cfg.Password, model, method, args, kwargs}, out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Debug("odoo call failed", "model", model, "method", method, "error", err)
		return err
	}
	return nil
}

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
	ID      string    `json:"id"`
}

type rpcParams struct {
	Service string `json:"service"`
	Method  string `json:"method"`
	Args    []any  `json:"args"`
}

type rpcResponse struct {
	ID     any             `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcFault       `json:"error"`
}

type rpcFault struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"data"`
}

// call performs one JSON-RPC round trip and decodes result into out.
func (c *Client) call(ctx context.Context, service, method string, args []any, out any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "call",
		Params:  rpcParams{Service: service, Method: method, Args: args},
		ID:      uuid.NewString(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode %s.%s request: %w", service, method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+jsonRPCPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &ConnectionError{Endpoint: c.endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxFaultDetail))
		return &ConnectionError{
			Endpoint: c.endpoint,
			Err:      fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
		}
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return &ConnectionError{Endpoint: c.endpoint, Err: fmt.Errorf("invalid JSON-RPC response: %w", err)}
	}

	if rpcResp.Error != nil {
		return c.faultToError(rpcResp.Error)
	}

	if out == nil || len(rpcResp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("failed to decode %s.%s result: %w", service, method, err)
	}
	return nil
}

func (c *Client) faultToError(f *rpcFault) error {
	msg := f.Data.Message
	if msg == "" {
		msg = f.Message
	}
	if len(msg) > maxFaultDetail {
		msg = msg[:maxFaultDetail]
	}

	if strings.HasSuffix(f.Data.Name, "AccessDenied") {
		return &AuthenticationError{Database: c.cfg.Database, Username: c.cfg.Username, Reason: msg}
	}
	return &RPCError{Code: f.Code, Name: f.Data.Name, Message: msg}
}

func nonNilDomain(d Domain) Domain {
	if d == nil {
		return Domain{}
	}
	return d
}

// AsInt64 converts a JSON-decoded number (float64, json.Number or any Go integer) to int64.
// Fractional values are rejected.
func AsInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}
