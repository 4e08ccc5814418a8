package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Errors returned by AsyncHandler.HandleEvent.
var (
	ErrQueueClosed = errors.New("event queue is closed")
	ErrQueueFull   = errors.New("event queue is full")
)

// AsyncConfig sizes an AsyncHandler.
type AsyncConfig struct {
	// WorkerCount is the number of goroutines delivering events. Defaults to 1.
	WorkerCount int

	// QueueSize is the number of events buffered before HandleEvent
	// starts rejecting them. Defaults to 64.
	QueueSize int
}

type queuedEvent struct {
	ctx   context.Context
	event *Event
}

// AsyncHandler delivers events to an inner handler from a pool of worker
// goroutines, so emitters never wait on a slow sink. Delivery errors are
// logged and dropped.
type AsyncHandler struct {
	inner  EventHandler
	queue  chan queuedEvent
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewAsyncHandler starts the workers. Call Close to drain and stop them.
func NewAsyncHandler(inner EventHandler, cfg AsyncConfig, logger *slog.Logger) *AsyncHandler {
	if inner == nil {
		panic("inner event handler cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "async_event_handler"))

	workers := cfg.WorkerCount
	if workers <= 0 {
		workers = 1
	}
	size := cfg.QueueSize
	if size <= 0 {
		size = 64
	}

	h := &AsyncHandler{
		inner:  inner,
		queue:  make(chan queuedEvent, size),
		logger: logger,
	}

	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go h.worker(i)
	}
	logger.Debug("event workers started", slog.Int("worker_count", workers), slog.Int("queue_size", size))
	return h
}

// HandleEvent implements EventHandler by queueing the event.
// The context keeps its values but not its cancellation, since delivery
// usually outlives the request that produced the event.
func (h *AsyncHandler) HandleEvent(ctx context.Context, event *Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return ErrQueueClosed
	}

	select {
	case h.queue <- queuedEvent{ctx: context.WithoutCancel(ctx), event: event}:
		return nil
	default:
		return fmt.Errorf("%w: capacity %d reached", ErrQueueFull, cap(h.queue))
	}
}

// Close stops accepting events and waits until queued events are delivered.
func (h *AsyncHandler) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	close(h.queue)
	h.mu.Unlock()

	h.wg.Wait()
	h.logger.Debug("event workers stopped")
}

func (h *AsyncHandler) worker(id int) {
	defer h.wg.Done()
	for q := range h.queue {
		if err := h.inner.HandleEvent(q.ctx, q.event); err != nil {
			h.logger.Error("failed to deliver event",
				slog.Int("worker_id", id),
				slog.String("event_id", q.event.ID.String()),
				slog.String("event_type", q.event.Type),
				slog.String("error", err.Error()))
		}
	}
}
