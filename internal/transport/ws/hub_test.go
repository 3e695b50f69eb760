package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"pilotscope/internal/cache"
	"pilotscope/internal/config"
	"pilotscope/internal/logger"
	"pilotscope/internal/service"
)

func receive(t *testing.T, ch <-chan []byte) ([]byte, bool) {
	t.Helper()
	select {
	case data, ok := <-ch:
		return data, ok
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for hub")
		return nil, false
	}
}

func TestHubRoutesBySession(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub := NewHub(logger.Nop())
	defer hub.Close()

	a := NewConnection("s-1")
	b := NewConnection("s-2")
	hub.Register(a)
	hub.Register(b)

	hub.Publish("s-1", service.EventProviderAttempt, map[string]any{"provider": "openai", "attempt": 1})

	data, ok := receive(t, a.Send)
	require.True(t, ok)
	assert.JSONEq(t, `{"type":"provider_attempt","payload":{"provider":"openai","attempt":1}}`, string(data))
	assert.Empty(t, b.Send)
	assert.Equal(t, 1, hub.Subscribers("s-1"))
}

func TestHubUnregisterClosesOutbox(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub := NewHub(logger.Nop())
	defer hub.Close()

	conn := NewConnection("s-1")
	hub.Register(conn)
	hub.Unregister(conn)

	_, ok := receive(t, conn.Send)
	assert.False(t, ok)
	assert.Equal(t, 0, hub.Subscribers("s-1"))

	// second unregister must not double close
	hub.Unregister(conn)
}

func TestHubCloseStopsLoop(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub := NewHub(logger.Nop())

	conn := NewConnection("s-1")
	hub.Register(conn)
	hub.Close()

	_, ok := receive(t, conn.Send)
	assert.False(t, ok)

	// calls after close return instead of blocking
	hub.Publish("s-1", service.EventGenerationStarted, nil)
	hub.Register(NewConnection("s-2"))
	hub.Unregister(conn)
	hub.Close()
}

func newSocketServer(t *testing.T, hub *Hub, auth *service.AuthService) *httptest.Server {
	t.Helper()
	h := NewHandler(hub, auth, "https://partner.example", logger.Nop())
	r := mux.NewRouter()
	r.HandleFunc("/v1/ws/sessions/{id}", h.SessionWS).Methods("GET")
	return httptest.NewServer(r)
}

func socketURL(srv *httptest.Server, sessionID, token string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws/sessions/" + sessionID + "?token=" + token
}

func testAuth() *service.AuthService {
	cfg := config.Default().Security
	cfg.JWTSecret = "ws-test-secret"
	return service.NewAuthService(cfg, cache.NewMemoryNonceCache(), logger.Nop())
}

func TestSessionSocketReceivesProgress(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub := NewHub(logger.Nop())
	defer hub.Close()
	auth := testAuth()
	srv := newSocketServer(t, hub, auth)
	defer srv.Close()

	token, err := auth.IssueSessionToken("s-1", time.Now())
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(socketURL(srv, "s-1", token), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Subscribers("s-1") == 1 }, time.Second, 10*time.Millisecond)
	hub.Publish("s-1", service.EventGenerationCompleted, map[string]string{"requestId": "r-1", "provider": "gemini"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, service.EventGenerationCompleted, msg.Type)
	assert.JSONEq(t, `{"requestId":"r-1","provider":"gemini"}`, string(msg.Payload))
}

func TestSessionSocketRejections(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub := NewHub(logger.Nop())
	defer hub.Close()
	auth := testAuth()
	srv := newSocketServer(t, hub, auth)
	defer srv.Close()

	otherToken, err := auth.IssueSessionToken("s-2", time.Now())
	require.NoError(t, err)
	token, err := auth.IssueSessionToken("s-1", time.Now())
	require.NoError(t, err)

	tests := []struct {
		name   string
		url    string
		header http.Header
		status int
	}{
		{"missing token", socketURL(srv, "s-1", ""), nil, http.StatusUnauthorized},
		{"bad token", socketURL(srv, "s-1", "garbage"), nil, http.StatusUnauthorized},
		{"token for another session", socketURL(srv, "s-1", otherToken), nil, http.StatusForbidden},
		{"origin not allowed", socketURL(srv, "s-1", token), http.Header{"Origin": {"https://evil.example"}}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, resp, err := websocket.DefaultDialer.Dial(tt.url, tt.header)
			if conn != nil {
				conn.Close()
			}
			require.ErrorIs(t, err, websocket.ErrBadHandshake)
			require.NotNil(t, resp)
			resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
	assert.Equal(t, 0, hub.Subscribers("s-1"))
}
