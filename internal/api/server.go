// Package api is the HTTP surface the web client talks to: session tokens, rooms, health and
// frontend configuration.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/mkd-neo4j/odoo-support-mcp/internal/config"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/odoo"
)

const (
	serviceName = "Odoo Technical Support Agent"

	maxBodyBytes    = 64 << 10
	maxRateLimiters = 10_000
	probeTimeout    = 3 * time.Second
)

// Prober checks that the ERP answers. odoo.Service satisfies it.
type Prober interface {
	Version(ctx context.Context) (*odoo.ServerVersion, error)
}

// Server holds the API dependencies. Build it with NewServer and mount Router().
type Server struct {
	cfg     *config.Config
	odoo    Prober
	rooms   RoomCreator
	metrics http.Handler

	tokenLimit rate.Limit
	tokenBurst int
	limiters   map[string]*rate.Limiter
	rlOrder    []string
	rlMu       sync.Mutex

	upgrader websocket.Upgrader
}

type Option func(*Server)

// WithRoomCreator replaces the LiveKit room service.
func WithRoomCreator(rooms RoomCreator) Option {
	return func(s *Server) { s.rooms = rooms }
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithTokenRate sets the per-client limit on /token and /create-room.
func WithTokenRate(limit rate.Limit, burst int) Option {
	return func(s *Server) {
		s.tokenLimit = limit
		s.tokenBurst = burst
	}
}

func NewServer(cfg *config.Config, prober Prober, opts ...Option) *Server {
	s := &Server{
		cfg:        cfg,
		odoo:       prober,
		tokenLimit: rate.Every(6 * time.Second),
		tokenBurst: 10,
		limiters:   make(map[string]*rate.Limiter),
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.originAllowed}
	for _, opt := range opts {
		opt(s)
	}
	if s.rooms == nil && cfg.LiveKit.Configured() {
		if rooms, err := NewRoomCreator(cfg.LiveKit); err == nil {
			s.rooms = rooms
		}
	}
	return s
}

// Router returns the routed handler with CORS, recovery and request logging applied.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.cors)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/config", s.handleConfig)
	r.Get("/ws", s.handleWebSocket)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Logger)
		r.Use(s.rateLimit)
		r.Post("/token", s.handleToken)
		r.Post("/create-room", s.handleCreateRoom)
	})
	return r
}

type connectionRequest struct {
	RoomName        string `json:"room_name"`
	ParticipantName string `json:"participant_name"`
}

type tokenResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

type roomResponse struct {
	RoomName string `json:"room_name"`
	Sid      string `json:"sid"`
}

type healthResponse struct {
	Status            string `json:"status"`
	LiveKitConfigured bool   `json:"livekit_configured"`
	OdooConfigured    bool   `json:"odoo_configured"`
	OdooReachable     bool   `json:"odoo_reachable"`
}

type configResponse struct {
	LiveKitURL string          `json:"livekit_url"`
	Features   map[string]bool `json:"features"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": serviceName})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:            "healthy",
		LiveKitConfigured: s.cfg.LiveKit.URL != "",
		OdooConfigured:    s.cfg.Odoo.Host != "",
	}
	if s.odoo != nil {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		defer cancel()
		if _, err := s.odoo.Version(ctx); err != nil {
			slog.Warn("health probe failed", "error", err)
		} else {
			resp.OdooReachable = true
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, configResponse{
		LiveKitURL: s.cfg.LiveKit.URL,
		Features:   map[string]bool{"voice": true, "screen_sharing": true, "mcp": true},
	})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeConnectionRequest(w, r)
	if !ok {
		return
	}

	token, err := IssueToken(s.cfg.LiveKit, req.RoomName, req.ParticipantName)
	if err != nil {
		slog.Error("error creating token", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, URL: s.cfg.LiveKit.URL})
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeConnectionRequest(w, r)
	if !ok {
		return
	}
	if s.rooms == nil {
		writeError(w, http.StatusInternalServerError, ErrLiveKitNotConfigured.Error())
		return
	}

	room, err := createRoom(r.Context(), s.rooms, req.RoomName)
	if err != nil {
		slog.Error("error creating room", "room", req.RoomName, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	slog.Info("created room", "room", room.GetName(), "sid", room.GetSid())
	writeJSON(w, http.StatusOK, roomResponse{RoomName: room.GetName(), Sid: room.GetSid()})
}

// handleWebSocket echoes every text message back, prefixed with "Echo: ".
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	slog.Info("websocket connection established", "conn", connID)
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("websocket error", "conn", connID, "error", err)
			} else {
				slog.Info("websocket disconnected", "conn", connID)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		slog.Debug("websocket message", "conn", connID, "bytes", len(data))
		if err := conn.WriteMessage(websocket.TextMessage, append([]byte("Echo: "), data...)); err != nil {
			slog.Warn("websocket write failed", "conn", connID, "error", err)
			return
		}
	}
}

func decodeConnectionRequest(w http.ResponseWriter, r *http.Request) (connectionRequest, bool) {
	var req connectionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return req, false
	}
	req.RoomName = strings.TrimSpace(req.RoomName)
	req.ParticipantName = strings.TrimSpace(req.ParticipantName)
	if req.RoomName == "" || req.ParticipantName == "" {
		writeError(w, http.StatusBadRequest, "room_name and participant_name are required")
		return req, false
	}
	return req, true
}

// ──────────────────────────────────────────────────────────────────────────────
// Middleware
// ──────────────────────────────────────────────────────────────────────────────

func (s *Server) originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || slices.Contains(s.cfg.CORSOrigins, origin) || slices.Contains(s.cfg.CORSOrigins, "*")
}

// cors allows credentialed requests from the configured origins with any method and header.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" || !s.originAllowed(r) {
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Add("Vary", "Origin")
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", r.Header.Get("Access-Control-Request-Method"))
			if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
				h.Set("Access-Control-Allow-Headers", reqHeaders)
			}
			h.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.allowRate(clientIP(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// allowRate keeps one limiter per client, evicting the least recently seen past maxRateLimiters.
func (s *Server) allowRate(client string) bool {
	s.rlMu.Lock()
	defer s.rlMu.Unlock()

	lim, ok := s.limiters[client]
	if ok {
		if i := slices.Index(s.rlOrder, client); i >= 0 {
			s.rlOrder = slices.Delete(s.rlOrder, i, i+1)
		}
		s.rlOrder = append(s.rlOrder, client)
		return lim.Allow()
	}

	if len(s.limiters) >= maxRateLimiters {
		oldest := s.rlOrder[0]
		s.rlOrder = s.rlOrder[1:]
		delete(s.limiters, oldest)
	}

	lim = rate.NewLimiter(s.tokenLimit, s.tokenBurst)
	s.limiters[client] = lim
	s.rlOrder = append(s.rlOrder, client)
	return lim.Allow()
}

// clientIP strips the port; middleware.RealIP has already applied forwarding headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
