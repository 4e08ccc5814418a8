package review_session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/curator-srs/internal/platform/clock"
)

// Registry holds live sessions for request-scoped callers such as the HTTP
// layer. Sessions are only reachable by their owner.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[uuid.UUID]*Session)}
}

// Add stores a session under its ID.
func (r *Registry) Add(session *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID()] = session
}

// Get returns the session with the given ID if it belongs to userID.
// Unknown IDs and sessions of other users both return ErrSessionNotFound.
func (r *Registry) Get(id, userID uuid.UUID) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok || session.UserID() != userID {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Remove drops a session. Removing an unknown ID is a no-op.
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Reap removes sessions idle for longer than ttl as of now. Sessions still
// in progress are abandoned, which emits session.abandoned. It returns the
// number of sessions removed.
func (r *Registry) Reap(ctx context.Context, now time.Time, ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}

	r.mu.Lock()
	var idle []*Session
	for id, session := range r.sessions {
		if now.Sub(session.LastActivity()) > ttl {
			idle = append(idle, session)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	// Abandon outside the registry lock; it emits events and logs.
	for _, session := range idle {
		if _, err := session.Abandon(ctx); err != nil && !errors.Is(err, ErrSessionNotInProgress) {
			session.log(ctx).Warn("failed to abandon idle session", slog.String("error", err.Error()))
		}
	}
	return len(idle)
}

// RunReaper calls Reap every interval until ctx is done.
func (r *Registry) RunReaper(
	ctx context.Context,
	clk clock.Clock,
	ttl, interval time.Duration,
	logger *slog.Logger,
) {
	if ttl <= 0 || interval <= 0 {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "session_reaper"))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Reap(ctx, clk.Now(), ttl); n > 0 {
				logger.Info("reaped idle review sessions",
					slog.Int("count", n),
					slog.Int("live", r.Len()))
			}
		}
	}
}
