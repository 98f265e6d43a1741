package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/dafibh/fortuna/wealth-backend/internal/domain"
	"github.com/dafibh/fortuna/wealth-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNoPrice is returned by MockPriceLookup for symbols without a price
var ErrNoPrice = errors.New("no price for symbol")

// MockPriceLookup is a mock implementation of domain.BatchPriceLookup and
// domain.MarketLister
type MockPriceLookup struct {
	Prices  map[string]decimal.Decimal
	Markets []domain.MarketListing
	Err     error

	mu    sync.Mutex
	calls int
}

// NewMockPriceLookup creates a new MockPriceLookup
func NewMockPriceLookup() *MockPriceLookup {
	return &MockPriceLookup{
		Prices: make(map[string]decimal.Decimal),
	}
}

var (
	_ domain.BatchPriceLookup = (*MockPriceLookup)(nil)
	_ domain.MarketLister     = (*MockPriceLookup)(nil)
)

// SetPrice sets the price returned for symbol
func (m *MockPriceLookup) SetPrice(symbol string, price decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prices[symbol] = price
}

// Calls returns how many lookups were made
func (m *MockPriceLookup) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// CurrentPrice returns the configured price for symbol
func (m *MockPriceLookup) CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return decimal.Zero, m.Err
	}
	price, ok := m.Prices[symbol]
	if !ok {
		return decimal.Zero, ErrNoPrice
	}
	return price, nil
}

// TopMarkets returns the first limit configured listings
func (m *MockPriceLookup) TopMarkets(ctx context.Context, limit int) ([]domain.MarketListing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if limit > len(m.Markets) {
		limit = len(m.Markets)
	}
	return append([]domain.MarketListing(nil), m.Markets[:limit]...), nil
}

// CurrentPrices returns the configured prices for the known symbols
func (m *MockPriceLookup) CurrentPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return nil, m.Err
	}
	out := make(map[string]decimal.Decimal)
	for _, s := range symbols {
		if p, ok := m.Prices[s]; ok {
			out[s] = p
		}
	}
	return out, nil
}

// PublishedEvent is one event captured by MockEventPublisher
type PublishedEvent struct {
	UserID uuid.UUID
	Event  websocket.Event
}

// MockEventPublisher captures published events
type MockEventPublisher struct {
	mu     sync.Mutex
	events []PublishedEvent
}

// NewMockEventPublisher creates a new MockEventPublisher
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

var _ websocket.EventPublisher = (*MockEventPublisher)(nil)

// Publish records the event
func (m *MockEventPublisher) Publish(userID uuid.UUID, event websocket.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, PublishedEvent{UserID: userID, Event: event})
}

// Events returns the captured events in publish order
func (m *MockEventPublisher) Events() []PublishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PublishedEvent(nil), m.events...)
}

// EventTypes returns the type of each captured event in publish order
func (m *MockEventPublisher) EventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, len(m.events))
	for i, e := range m.events {
		types[i] = e.Event.Type
	}
	return types
}
