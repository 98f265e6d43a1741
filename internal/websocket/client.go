package websocket

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10 // must fire before the peer's pong deadline
	maxMessageSize = 512
	sendBuffer     = 256
)

// Client is one browser connection. Ledger events flow server to client only.
type Client struct {
	id     string
	userID uuid.UUID
	conn   *websocket.Conn
	hub    *Hub

	outbox   chan []byte
	done     chan struct{}
	isClosed atomic.Bool
	once     sync.Once
}

// NewClient wraps an upgraded connection for userID
func NewClient(conn *websocket.Conn, userID uuid.UUID, hub *Hub) *Client {
	return &Client{
		id:     uuid.NewString(),
		userID: userID,
		conn:   conn,
		hub:    hub,
		outbox: make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) UserID() uuid.UUID {
	return c.userID
}

// Send queues data for WritePump without blocking.
// outbox is never closed, so a Send racing with Close cannot panic.
func (c *Client) Send(data []byte) error {
	if c.isClosed.Load() {
		return ErrClientClosed
	}
	select {
	case <-c.done:
		return ErrClientClosed
	case c.outbox <- data:
		return nil
	default:
		return ErrClientSlow
	}
}

// Close stops both pumps and closes the socket. Idempotent.
func (c *Client) Close() error {
	var err error
	c.once.Do(func() {
		c.isClosed.Store(true)
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

// IsClosed reports whether Close has run
func (c *Client) IsClosed() bool {
	return c.isClosed.Load()
}

// ReadPump keeps the read side alive so pongs and close frames are processed.
// Inbound payloads are discarded. Run it in its own goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	extend := func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	}
	_ = extend("")
	c.conn.SetPongHandler(extend)

	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().
					Err(err).
					Str("client_id", c.id).
					Stringer("user_id", c.userID).
					Msg("WebSocket unexpected close")
			}
			return
		}
	}
}

// WritePump drains the outbox to the socket and keeps the connection alive with pings.
// Run it in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	write := func(kind int, payload []byte) error {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		return c.conn.WriteMessage(kind, payload)
	}

	for {
		select {
		case <-c.done:
			_ = write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-c.outbox:
			if err := write(websocket.TextMessage, msg); err != nil {
				log.Warn().
					Err(err).
					Str("client_id", c.id).
					Stringer("user_id", c.userID).
					Msg("WebSocket write error")
				return
			}
		case <-ticker.C:
			if err := write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
