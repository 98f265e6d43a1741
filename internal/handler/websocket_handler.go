package handler

import (
	"net/http"
	"slices"

	"github.com/dafibh/fortuna/wealth-backend/internal/middleware"
	"github.com/dafibh/fortuna/wealth-backend/internal/websocket"
	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler upgrades /ws requests and attaches them to the event hub
type WebSocketHandler struct {
	hub      *websocket.Hub
	origins  []string
	upgrader ws.Upgrader
}

func NewWebSocketHandler(hub *websocket.Hub, allowedOrigins []string) *WebSocketHandler {
	h := &WebSocketHandler{hub: hub, origins: slices.Clone(allowedOrigins)}
	h.upgrader = ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin accepts configured CORS origins. Requests without an Origin
// header come from non-browser tools and are let through.
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || slices.Contains(h.origins, origin) {
		return true
	}
	log.Warn().Str("origin", origin).Msg("WebSocket origin rejected")
	return false
}

// connectingUser reads the identity header, then the userId query
// parameter. Browsers cannot set custom headers on an upgrade request.
func connectingUser(c echo.Context) (uuid.UUID, bool) {
	for _, raw := range []string{
		c.Request().Header.Get(middleware.UserIDHeader),
		c.QueryParam("userId"),
	} {
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		return id, err == nil && id != uuid.Nil
	}
	return uuid.Nil, false
}

// HandleWS serves GET /ws, streaming the user's transaction, position and price events
func (h *WebSocketHandler) HandleWS(c echo.Context) error {
	userID, ok := connectingUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing or invalid user ID")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Debug().Err(err).Stringer("user_id", userID).Msg("WebSocket upgrade failed")
		return err
	}

	client := websocket.NewClient(conn, userID, h.hub)
	h.hub.Register(client)
	go client.WritePump()
	go client.ReadPump()

	log.Info().
		Stringer("user_id", userID).
		Str("client_id", client.ID()).
		Int("user_connections", h.hub.ClientCount(userID)).
		Msg("WebSocket client connected")
	return nil
}
