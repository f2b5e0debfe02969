package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"royaltriangle/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_BroadcastToUser(t *testing.T) {
	h := NewHub()
	a1, a2, b := NewClient(1, false), NewClient(1, false), NewClient(2, true)
	h.Register(a1)
	h.Register(a2)
	h.Register(b)
	assert.Equal(t, 3, h.ClientCount())

	h.BroadcastToUser(1, map[string]string{"type": "ping"})
	for _, c := range []*Client{a1, a2} {
		select {
		case msg := <-c.Send:
			assert.JSONEq(t, `{"type":"ping"}`, string(msg))
		default:
			t.Fatal("expected a message")
		}
	}
	assert.Len(t, b.Send, 0)

	h.BroadcastAdmins("hello")
	assert.Len(t, b.Send, 1)
	assert.Len(t, a1.Send, 0)

	a1.Close()
	a1.Close()
	assert.Equal(t, 2, h.ClientCount())
	h.BroadcastToUser(1, "after close")
	assert.Len(t, a2.Send, 1)
}

func TestHub_FullBufferDoesNotBlock(t *testing.T) {
	h := NewHub()
	c := NewClient(1, false)
	h.Register(c)
	for i := 0; i < cap(c.Send)+10; i++ {
		h.BroadcastToUser(1, i)
	}
	assert.Len(t, c.Send, cap(c.Send))
}

func TestOriginChecker(t *testing.T) {
	check := OriginChecker([]string{"http://localhost:3000/"})
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}
	assert.True(t, check(req("")))
	assert.True(t, check(req("http://localhost:3000")))
	assert.False(t, check(req("http://evil.example")))
	assert.True(t, OriginChecker([]string{"*"})(req("http://evil.example")))
}

type stubAuth struct {
	p   *auth.Principal
	err error
}

func (s stubAuth) Authenticate(r *http.Request) (*auth.Principal, error) { return s.p, s.err }

func TestServeNotifications(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()

	r := gin.New()
	r.GET("/ws/ok", ServeNotifications(stubAuth{p: &auth.Principal{ID: 9}}, hub, nil))
	r.GET("/ws/denied", ServeNotifications(stubAuth{err: auth.ErrNoSession}, hub, nil))
	srv := httptest.NewServer(r)
	defer srv.Close()
	base := "ws" + strings.TrimPrefix(srv.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(base+"/ws/denied", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(base+"/ws/ok", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	hub.BroadcastToUser(9, map[string]interface{}{"type": "notification"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, "notification", got["type"])
}
