package events

import (
	"context"
	"log/slog"
	"sync"
)

// InMemoryEventEmitter is a simple implementation of the EventEmitter interface
// that stores registered handlers in memory and dispatches events to them.
type InMemoryEventEmitter struct {
	handlers []subscription
	mu       sync.RWMutex
	logger   *slog.Logger
}

// subscription is a handler plus the event types it accepts. A nil set
// accepts every type.
type subscription struct {
	handler EventHandler
	types   map[string]struct{}
}

func (s subscription) accepts(eventType string) bool {
	if s.types == nil {
		return true
	}
	_, ok := s.types[eventType]
	return ok
}

// NewInMemoryEventEmitter creates a new instance of InMemoryEventEmitter.
func NewInMemoryEventEmitter(logger *slog.Logger) *InMemoryEventEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryEventEmitter{
		handlers: make([]subscription, 0),
		logger:   logger.With("component", "in_memory_event_emitter"),
	}
}

// RegisterHandler adds a new event handler to receive events of every type.
func (e *InMemoryEventEmitter) RegisterHandler(handler EventHandler) {
	e.register(subscription{handler: handler})
}

// RegisterHandlerFor adds a handler that only receives the listed event
// types. Without types it behaves like RegisterHandler.
func (e *InMemoryEventEmitter) RegisterHandlerFor(handler EventHandler, types ...string) {
	sub := subscription{handler: handler}
	if len(types) > 0 {
		sub.types = make(map[string]struct{}, len(types))
		for _, t := range types {
			sub.types[t] = struct{}{}
		}
	}
	e.register(sub)
}

func (e *InMemoryEventEmitter) register(sub subscription) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, sub)
	e.logger.Debug("registered new event handler",
		"handler_count", len(e.handlers),
		"type_filter", len(sub.types))
}

// EmitEvent publishes the given event to every handler subscribed to its type.
// If any handler returns an error, the event will still be sent to all other handlers,
// and the first error encountered will be returned.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *Event) error {
	e.mu.RLock()
	handlers := make([]EventHandler, 0, len(e.handlers))
	for _, sub := range e.handlers {
		if sub.accepts(event.Type) {
			handlers = append(handlers, sub.handler)
		}
	}
	e.mu.RUnlock()

	e.logger.Debug("emitting event",
		"event_id", event.ID,
		"event_type", event.Type,
		"handler_count", len(handlers))

	if len(handlers) == 0 {
		e.logger.Debug("no handlers registered for event",
			"event_id", event.ID,
			"event_type", event.Type)
		return nil
	}

	var firstErr error
	for i, handler := range handlers {
		if err := handler.HandleEvent(ctx, event); err != nil {
			e.logger.Error("handler failed to process event",
				"error", err,
				"handler_index", i,
				"event_id", event.ID,
				"event_type", event.Type)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}
