package websocket

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	// ErrClientClosed is returned by Send once a client has been closed
	ErrClientClosed = errors.New("client is closed")
	// ErrClientSlow is returned by Send when the outbound buffer is full
	ErrClientSlow = errors.New("client send buffer full")
)

// ClientInterface is what the hub needs from a connection
type ClientInterface interface {
	ID() string
	UserID() uuid.UUID
	// Send must not block: Broadcast calls it while other clients wait
	Send(data []byte) error
	Close() error
}

// room holds every open connection of one user, keyed by client ID
type room map[string]ClientInterface

func (r room) snapshot() []ClientInterface {
	out := make([]ClientInterface, 0, len(r))
	for _, c := range r {
		out = append(out, c)
	}
	return out
}

// Hub fans ledger events out to the connections of the user they belong to.
// Events never cross users. Safe for concurrent use.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]room
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{rooms: make(map[uuid.UUID]room)}
}

// Register adds a client to its user's room
func (h *Hub) Register(client ClientInterface) {
	userID := client.UserID()

	h.mu.Lock()
	r, ok := h.rooms[userID]
	if !ok {
		r = make(room)
		h.rooms[userID] = r
	}
	r[client.ID()] = client
	size := len(r)
	h.mu.Unlock()

	log.Debug().
		Stringer("user_id", userID).
		Str("client_id", client.ID()).
		Int("connections", size).
		Msg("WebSocket client registered")
}

// Unregister removes a client. Unknown clients are ignored.
func (h *Hub) Unregister(client ClientInterface) {
	if !h.remove(client) {
		return
	}
	log.Debug().
		Stringer("user_id", client.UserID()).
		Str("client_id", client.ID()).
		Msg("WebSocket client unregistered")
}

func (h *Hub) remove(client ClientInterface) bool {
	userID := client.UserID()

	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[userID]
	if !ok {
		return false
	}
	if _, ok := r[client.ID()]; !ok {
		return false
	}
	delete(r, client.ID())
	if len(r) == 0 {
		delete(h.rooms, userID)
	}
	return true
}

// Broadcast hands an event to every connection of userID on the calling
// goroutine, so events published in sequence reach each client in that order.
// A client that is closed or cannot keep up is dropped from the hub.
func (h *Hub) Broadcast(userID uuid.UUID, event Event) {
	data, err := event.ToJSON()
	if err != nil {
		log.Error().
			Err(err).
			Stringer("user_id", userID).
			Str("event_type", event.Type).
			Msg("Failed to serialize event")
		return
	}

	h.mu.RLock()
	targets := h.rooms[userID].snapshot()
	h.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	for _, client := range targets {
		h.deliver(client, data)
	}

	log.Debug().
		Stringer("user_id", userID).
		Str("event_type", event.Type).
		Int("client_count", len(targets)).
		Msg("Broadcast event")
}

func (h *Hub) deliver(client ClientInterface, data []byte) {
	err := client.Send(data)
	switch {
	case err == nil:
		return
	case errors.Is(err, ErrClientSlow):
		log.Warn().
			Stringer("user_id", client.UserID()).
			Str("client_id", client.ID()).
			Msg("Dropping slow WebSocket client")
		h.Unregister(client)
		_ = client.Close()
	case errors.Is(err, ErrClientClosed):
		h.remove(client)
	default:
		log.Warn().
			Err(err).
			Stringer("user_id", client.UserID()).
			Str("client_id", client.ID()).
			Msg("Failed to send to client")
	}
}

// ClientCount returns the number of open connections for a user
func (h *Hub) ClientCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}

// TotalClientCount returns the number of open connections across all users
func (h *Hub) TotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, r := range h.rooms {
		n += len(r)
	}
	return n
}
