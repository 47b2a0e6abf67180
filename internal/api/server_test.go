package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/livekit/protocol/livekit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/time/rate"

	"github.com/mkd-neo4j/odoo-support-mcp/internal/config"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/odoo"
	odoo_mocks "github.com/mkd-neo4j/odoo-support-mcp/internal/odoo/mocks"
)

type fakeRooms struct {
	got *livekit.CreateRoomRequest
	err error
}

func (f *fakeRooms) CreateRoom(_ context.Context, req *livekit.CreateRoomRequest) (*livekit.Room, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &livekit.Room{Name: req.Name, Sid: "RM_abc123"}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Odoo: config.OdooConfig{Host: "odoo"},
		LiveKit: config.LiveKitConfig{
			URL:       "wss://support.livekit.cloud",
			APIKey:    "APIkey",
			APISecret: "a-secret-that-is-long-enough-for-hs256",
		},
		CORSOrigins: []string{"http://localhost:3000"},
	}
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func jwtPayload(t *testing.T, token string) map[string]any {
	t.Helper()
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	var claims map[string]any
	require.NoError(t, json.Unmarshal(raw, &claims))
	return claims
}

func TestRootAndConfig(t *testing.T) {
	h := NewServer(testConfig(), nil, WithRoomCreator(&fakeRooms{})).Router()

	rec := do(t, h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","service":"Odoo Technical Support Agent"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/config", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"livekit_url":"wss://support.livekit.cloud","features":{"voice":true,"screen_sharing":true,"mcp":true}}`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockOdoo := odoo_mocks.NewMockService(ctrl)

	mockOdoo.EXPECT().Version(gomock.Any()).Return(&odoo.ServerVersion{ServerVersion: "17.0"}, nil)
	h := NewServer(testConfig(), mockOdoo, WithRoomCreator(&fakeRooms{})).Router()
	rec := do(t, h, http.MethodGet, "/health", "")
	assert.JSONEq(t, `{"status":"healthy","livekit_configured":true,"odoo_configured":true,"odoo_reachable":true}`, rec.Body.String())

	mockOdoo.EXPECT().Version(gomock.Any()).Return(nil, errors.New("connection refused"))
	rec = do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, false, decode(t, rec)["odoo_reachable"])

	rec = do(t, NewServer(&config.Config{}, nil).Router(), http.MethodGet, "/health", "")
	assert.JSONEq(t, `{"status":"healthy","livekit_configured":false,"odoo_configured":false,"odoo_reachable":false}`, rec.Body.String())
}

func TestTokenGrants(t *testing.T) {
	h := NewServer(testConfig(), nil, WithRoomCreator(&fakeRooms{})).Router()

	rec := do(t, h, http.MethodPost, "/token", `{"room_name":"support-42","participant_name":"Mona"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, "wss://support.livekit.cloud", body["url"])

	claims := jwtPayload(t, body["token"].(string))
	assert.Equal(t, "Mona", claims["sub"])
	assert.Equal(t, "Mona", claims["name"])
	assert.Equal(t, "APIkey", claims["iss"])

	video := claims["video"].(map[string]any)
	assert.Equal(t, true, video["roomJoin"])
	assert.Equal(t, "support-42", video["room"])
	assert.Equal(t, true, video["canPublish"])
	assert.Equal(t, true, video["canSubscribe"])
	assert.ElementsMatch(t, []any{"microphone", "camera", "screen_share", "screen_share_audio"}, video["canPublishSources"])
}

func TestTokenErrors(t *testing.T) {
	h := NewServer(testConfig(), nil, WithRoomCreator(&fakeRooms{})).Router()

	rec := do(t, h, http.MethodPost, "/token", `{"room_name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/token", `{"room_name":"support-42"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	unconfigured := NewServer(&config.Config{}, nil).Router()
	rec = do(t, unconfigured, http.MethodPost, "/token", `{"room_name":"r","participant_name":"p"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "LiveKit credentials not configured", decode(t, rec)["detail"])

	rec = do(t, unconfigured, http.MethodPost, "/create-room", `{"room_name":"r","participant_name":"p"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "LiveKit credentials not configured", decode(t, rec)["detail"])
}

func TestCreateRoom(t *testing.T) {
	rooms := &fakeRooms{}
	h := NewServer(testConfig(), nil, WithRoomCreator(rooms)).Router()

	rec := do(t, h, http.MethodPost, "/create-room", `{"room_name":"support-42","participant_name":"Mona"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"room_name":"support-42","sid":"RM_abc123"}`, rec.Body.String())

	require.NotNil(t, rooms.got)
	assert.Equal(t, uint32(300), rooms.got.EmptyTimeout)
	assert.Equal(t, uint32(2), rooms.got.MaxParticipants)

	rooms.err = errors.New("twirp error unauthenticated")
	rec = do(t, h, http.MethodPost, "/create-room", `{"room_name":"support-42","participant_name":"Mona"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "twirp error unauthenticated", decode(t, rec)["detail"])
}

func TestTokenRateLimit(t *testing.T) {
	h := NewServer(testConfig(), nil, WithRoomCreator(&fakeRooms{}), WithTokenRate(rate.Every(time.Hour), 2)).Router()
	body := `{"room_name":"r","participant_name":"p"}`

	for range 2 {
		assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/token", body).Code)
	}
	rec := do(t, h, http.MethodPost, "/token", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate limit exceeded", decode(t, rec)["detail"])

	// Another client has its own budget.
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(body))
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Health is not limited.
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/", "").Code)
}

func TestCORS(t *testing.T) {
	h := NewServer(testConfig(), nil, WithRoomCreator(&fakeRooms{})).Router()

	req := httptest.NewRequest(http.MethodOptions, "/token", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "POST", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "content-type", rec.Header().Get("Access-Control-Allow-Headers"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestWebSocketEcho(t *testing.T) {
	srv := httptest.NewServer(NewServer(testConfig(), nil, WithRoomCreator(&fakeRooms{})).Router())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello")))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "Echo: hello", string(msg))
}

func TestMetricsMounted(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# HELP odoo_tool_calls_total\n"))
	})
	h := NewServer(testConfig(), nil, WithRoomCreator(&fakeRooms{}), WithMetricsHandler(metrics)).Router()

	rec := do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "odoo_tool_calls_total")
}
