package events

import (
	"context"
	"log/slog"
	"sync"
)

// InMemoryEmitter is a simple implementation of the Emitter interface that
// stores registered handlers in memory and dispatches events to them. It is
// an explicit observer list, not hidden global state: components that want
// the signal register themselves, and everything keeps working if nothing
// registers.
type InMemoryEmitter struct {
	handlers []Handler
	mu       sync.RWMutex
	logger   *slog.Logger
}

// NewInMemoryEmitter creates a new instance of InMemoryEmitter.
func NewInMemoryEmitter(logger *slog.Logger) *InMemoryEmitter {
	return &InMemoryEmitter{
		handlers: make([]Handler, 0),
		logger:   logger.With("component", "in_memory_emitter"),
	}
}

// RegisterHandler adds a new handler to receive queue events.
func (e *InMemoryEmitter) RegisterHandler(handler Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, handler)
	e.logger.Debug("registered new queue event handler", "handler_count", len(e.handlers))
}

// Emit publishes the given event to all registered handlers. Handler errors
// are logged and do not stop delivery to the remaining handlers; a missed
// signal is recovered by the next scheduled poll.
func (e *InMemoryEmitter) Emit(ctx context.Context, event *QueueEvent) {
	e.mu.RLock()
	handlers := make([]Handler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	e.logger.Debug("emitting queue event",
		"event_id", event.ID,
		"action", event.Action,
		"handler_count", len(handlers))

	for i, handler := range handlers {
		if err := handler.HandleQueueEvent(ctx, event); err != nil {
			e.logger.Error("handler failed to process queue event",
				"error", err,
				"handler_index", i,
				"event_id", event.ID,
				"action", event.Action)
		}
	}
}

// NopEmitter discards all events. Used where no notification fan-out is
// configured; polling remains the fallback.
type NopEmitter struct{}

// Emit does nothing.
func (NopEmitter) Emit(ctx context.Context, event *QueueEvent) {}
