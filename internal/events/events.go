// Package events provides the in-process publish/subscribe bus used to signal
// price-store updates and completed analyses between components.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType identifies a category of event
type EventType string

const (
	PricesSynced      EventType = "prices_synced"
	QuoteReceived     EventType = "quote_received"
	AnalysisCompleted EventType = "analysis_completed"
	FeedConnected     EventType = "feed_connected"
	FeedDisconnected  EventType = "feed_disconnected"
)

// Event is a published occurrence with optional typed payload
type Event struct {
	Type      EventType
	Timestamp time.Time
	Data      EventData
}

// Handler receives published events. Handlers must not block; long work
// belongs in the handler's own goroutine.
type Handler func(Event)

// Bus is a minimal synchronous pub/sub bus. Subscriptions are expected to be
// wired at startup; publishing is safe from any goroutine.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	log      zerolog.Logger
}

// NewBus creates a new event bus
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
		log:      log.With().Str("component", "event_bus").Logger(),
	}
}

// Subscribe registers a handler for an event type
func (b *Bus) Subscribe(t EventType, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], h)
}

// Publish delivers an event to all handlers registered for its type
func (b *Bus) Publish(t EventType, data EventData) {
	b.mu.RLock()
	handlers := b.handlers[t]
	b.mu.RUnlock()

	evt := Event{Type: t, Timestamp: time.Now(), Data: data}
	for _, h := range handlers {
		h(evt)
	}

	b.log.Debug().Str("event", string(t)).Int("handlers", len(handlers)).Msg("Event published")
}
