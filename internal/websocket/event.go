package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents what happened to an entity
type EventType string

const (
	EventTypeCreated   EventType = "created"
	EventTypeUpdated   EventType = "updated"
	EventTypeClosed    EventType = "closed"
	EventTypeRefreshed EventType = "refreshed"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeTransaction EntityType = "transaction"
	EntityTypePosition    EntityType = "position"
	EntityTypePrice       EntityType = "price"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string     `json:"type"`      // Combined type e.g. "transaction.created"
	Entity    EntityType `json:"entity"`    // Entity type e.g. "transaction"
	Payload   any        `json:"payload"`   // Full entity data
	Timestamp time.Time  `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload any) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionCreated creates a transaction.created event
func TransactionCreated(payload any) Event {
	return NewEvent(EventTypeCreated, EntityTypeTransaction, payload)
}

// PositionUpdated creates a position.updated event
func PositionUpdated(payload any) Event {
	return NewEvent(EventTypeUpdated, EntityTypePosition, payload)
}

// PositionClosed creates a position.closed event
func PositionClosed(payload any) Event {
	return NewEvent(EventTypeClosed, EntityTypePosition, payload)
}

// PriceRefreshed creates a price.refreshed event
func PriceRefreshed(payload any) Event {
	return NewEvent(EventTypeRefreshed, EntityTypePrice, payload)
}
