package sessions

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmentor/relay/internal/domain"
	"github.com/openmentor/relay/internal/infrastructure/configs"
	"github.com/openmentor/relay/internal/infrastructure/logging"
	"github.com/openmentor/relay/internal/infrastructure/ws"
)

type stubAuthorizer struct {
	grants map[int64]domain.Grant
}

func (a *stubAuthorizer) Authorize(_ context.Context, _ string, userID int64) (domain.Grant, error) {
	grant, ok := a.grants[userID]
	if !ok {
		return domain.Grant{}, domain.ErrNotAuthorized
	}
	return grant, nil
}

type nopSink struct{}

func (nopSink) Record(context.Context, *domain.RelayAuditEvent) {}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := configs.RelayConfig{
		HeartbeatInterval: time.Second,
		PongWait:          3 * time.Second,
		AuthorizeTimeout:  time.Second,
		EndGracePeriod:    50 * time.Millisecond,
		MaxMessageSize:    64 * 1024,
		SendBuffer:        16,
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Logger:   "zerolog",
		Level:    "error",
		Encoding: "json",
	})

	auth := &stubAuthorizer{grants: map[int64]domain.Grant{
		1: {Allowed: true, Role: domain.RoleHost, DisplayName: "Mentor"},
		2: {Allowed: true, Role: domain.RoleParticipant, DisplayName: "Learner"},
	}}

	relay := ws.NewRelay(ws.NewRegistry(), auth, nopSink{}, logger, cfg)
	handler := NewHandler(relay, ws.NewUpgrader(nil), logger)

	r := chi.NewRouter()
	r.Get("/ws/session/{roomCode}", handler.JoinSessionHandler)
	r.Get("/api/sessions/{roomCode}/presence", handler.GetPresenceHandler)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return srv
}

func dial(t *testing.T, srv *httptest.Server, roomCode string, userID string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/session/" + roomCode + "?user_id=" + userID

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestSignalingEndToEnd(t *testing.T) {
	srv := newTestServer(t)

	host := dial(t, srv, "abc123", "1")
	hostJoin := readEvent(t, host)
	assert.Equal(t, "user_join", hostJoin["type"])
	assert.Equal(t, float64(1), hostJoin["user_id"])

	learner := dial(t, srv, "abc123", "2")
	learnerJoin := readEvent(t, learner)
	assert.Equal(t, "user_join", learnerJoin["type"])
	assert.Equal(t, float64(2), learnerJoin["user_id"])

	// Host also hears the learner arrive.
	assert.Equal(t, float64(2), readEvent(t, host)["user_id"])

	sdp := "v=0 o=- 4611731400430051336 2 IN IP4 127.0.0.1"
	require.NoError(t, host.WriteMessage(websocket.TextMessage, []byte(`{"type":"offer","sdp":"`+sdp+`"}`)))

	offer := readEvent(t, learner)
	assert.Equal(t, "offer", offer["type"])
	assert.Equal(t, sdp, offer["sdp"], "payload must pass through untouched")
	assert.Equal(t, float64(1), offer["user_id"])
	assert.Equal(t, "Mentor", offer["username"])

	require.NoError(t, learner.WriteMessage(websocket.TextMessage, []byte(`{"type":"answer","sdp":"v=0 answer"}`)))

	answer := readEvent(t, host)
	assert.Equal(t, "answer", answer["type"])
	assert.Equal(t, float64(2), answer["user_id"])
}

func TestUnauthorizedJoinClosedWithCode(t *testing.T) {
	srv := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/session/abc123?user_id=99"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, 4003), "expected close 4003, got %v", err)
}

func TestAnonymousJoinClosedWithCode(t *testing.T) {
	srv := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/session/abc123"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, 4001), "expected close 4001, got %v", err)
}

func TestSessionEndedClosesRoom(t *testing.T) {
	srv := newTestServer(t)

	host := dial(t, srv, "abc123", "1")
	readEvent(t, host) // own join

	learner := dial(t, srv, "abc123", "2")
	readEvent(t, learner) // own join
	readEvent(t, host)    // learner join

	require.NoError(t, host.WriteMessage(websocket.TextMessage, []byte(`{"type":"session_ended"}`)))

	ended := readEvent(t, learner)
	assert.Equal(t, "session_ended", ended["type"])
	assert.Equal(t, float64(1), ended["user_id"])

	// After the grace period the server closes what is left with 4006.
	_ = learner.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, _, err := learner.ReadMessage()
		if err != nil {
			assert.True(t, websocket.IsCloseError(err, 4006), "expected close 4006, got %v", err)
			break
		}
	}
}

func TestPresenceEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/api/sessions/empty-room/presence")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		RoomCode     string `json:"room_code"`
		Participants []struct {
			UserID   int64  `json:"user_id"`
			Username string `json:"username"`
			Role     string `json:"role"`
		} `json:"participants"`
		Count int `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 0, body.Count)
	assert.Empty(t, body.Participants)

	host := dial(t, srv, "busy-room", "1")
	readEvent(t, host)

	resp, err = srv.Client().Get(srv.URL + "/api/sessions/busy-room/presence")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, int64(1), body.Participants[0].UserID)
	assert.Equal(t, "Mentor", body.Participants[0].Username)
	assert.Equal(t, "host", body.Participants[0].Role)
}
