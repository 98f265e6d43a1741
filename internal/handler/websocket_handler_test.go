package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dafibh/fortuna/wealth-backend/internal/middleware"
	"github.com/dafibh/fortuna/wealth-backend/internal/websocket"
	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wsOrigins = []string{"http://localhost:3000", "https://wealth.fortuna.app"}

func TestHandleWS_RejectsUnknownUser(t *testing.T) {
	for _, target := range []string{"/ws", "/ws?userId=not-a-uuid", "/ws?userId=" + uuid.Nil.String()} {
		t.Run(target, func(t *testing.T) {
			c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())

			err := NewWebSocketHandler(websocket.NewHub(), wsOrigins).HandleWS(c)

			var httpErr *echo.HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
		})
	}
}

func TestConnectingUser(t *testing.T) {
	header, query := uuid.New(), uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/ws?userId="+query.String(), nil)
	req.Header.Set(middleware.UserIDHeader, header.String())
	id, ok := connectingUser(echo.New().NewContext(req, httptest.NewRecorder()))
	require.True(t, ok)
	assert.Equal(t, header, id, "header wins over query")

	req = httptest.NewRequest(http.MethodGet, "/ws?userId="+query.String(), nil)
	id, ok = connectingUser(echo.New().NewContext(req, httptest.NewRecorder()))
	require.True(t, ok)
	assert.Equal(t, query, id)
}

func TestHandleWS_StreamsUserEvents(t *testing.T) {
	hub := websocket.NewHub()
	e := echo.New()
	e.GET("/ws", NewWebSocketHandler(hub, wsOrigins).HandleWS)
	srv := httptest.NewServer(e)
	defer srv.Close()

	user := uuid.New()
	conn, _, err := ws.DefaultDialer.Dial("ws"+srv.URL[len("http"):]+"/ws?userId="+user.String(), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount(user) == 1 }, time.Second, 5*time.Millisecond)

	hub.Publish(uuid.New(), websocket.PriceRefreshed(map[string]any{"symbol": "ETH"}))
	hub.Publish(user, websocket.PriceRefreshed(map[string]any{"symbol": "BTC"}))

	var event websocket.Event
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "price.refreshed", event.Type)
	assert.Equal(t, map[string]any{"symbol": "BTC"}, event.Payload)
}

func TestWebSocketHandler_CheckOrigin(t *testing.T) {
	h := NewWebSocketHandler(websocket.NewHub(), wsOrigins)

	tests := []struct {
		origin string
		want   bool
	}{
		{"http://localhost:3000", true},
		{"https://wealth.fortuna.app", true},
		{"https://evil.com", false},
		{"", true},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.want, h.checkOrigin(req), "origin %q", tt.origin)
	}
}
