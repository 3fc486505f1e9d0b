package events

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// MemoryEventBus provides an in-memory implementation of EventBus.
// It is thread-safe and executes event handlers asynchronously.
type MemoryEventBus struct {
	subscribers map[string][]func(event interface{})
	mutex       sync.RWMutex
}

// NewMemoryEventBus creates a new memory-based event bus
func NewMemoryEventBus() *MemoryEventBus {
	return &MemoryEventBus{
		subscribers: make(map[string][]func(event interface{})),
	}
}

// Publish publishes an event to all subscribers of the event type
func (bus *MemoryEventBus) Publish(eventType string, event interface{}) error {
	bus.mutex.RLock()
	handlers, exists := bus.subscribers[eventType]
	bus.mutex.RUnlock()

	if !exists {
		log.Debug().Str("event", eventType).Msg("no subscribers for event type")
		return nil
	}

	// Execute handlers asynchronously to avoid blocking the publisher
	for _, handler := range handlers {
		go func(h func(event interface{})) {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Str("event", eventType).Interface("panic", r).Msg("event handler panicked")
				}
			}()
			h(event)
		}(handler)
	}

	return nil
}

// Subscribe subscribes a handler to an event type
func (bus *MemoryEventBus) Subscribe(eventType string, handler func(event interface{})) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	bus.mutex.Lock()
	defer bus.mutex.Unlock()

	bus.subscribers[eventType] = append(bus.subscribers[eventType], handler)
	return nil
}

// GetSubscriberCount returns the number of subscribers for an event type
func (bus *MemoryEventBus) GetSubscriberCount(eventType string) int {
	bus.mutex.RLock()
	defer bus.mutex.RUnlock()

	return len(bus.subscribers[eventType])
}
