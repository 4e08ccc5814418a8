package review_session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/curator-srs/internal/domain"
	"github.com/phrazzld/curator-srs/internal/domain/ranking"
	"github.com/phrazzld/curator-srs/internal/events"
	"github.com/phrazzld/curator-srs/internal/platform/logger"
)

// State is the lifecycle state of a review session.
type State string

// Session states. A session moves not_started -> in_progress and then ends
// as completed or abandoned; ended sessions accept no further reviews.
const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateAbandoned  State = "abandoned"
)

// Summary reports the progress of a session.
type Summary struct {
	SessionID uuid.UUID `json:"session_id"`
	State     State     `json:"state"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at,omitzero"`

	TotalReviewed  int           `json:"total_reviewed"`
	Correct        int           `json:"correct"`
	Accuracy       float64       `json:"accuracy"`
	AverageQuality float64       `json:"average_quality"`
	TimeSpent      time.Duration `json:"time_spent"`

	// Velocity is reviews per minute.
	Velocity float64 `json:"velocity"`

	CurrentStreak int `json:"current_streak"`
	BestStreak    int `json:"best_streak"`

	// Remaining counts queued items that have not been reviewed yet.
	Remaining int `json:"remaining"`
	QueueSize int `json:"queue_size"`
}

// Session is one user's pass through a ranked review queue. It is safe for
// concurrent use; reviews within a session are applied one at a time.
type Session struct {
	id     uuid.UUID
	userID uuid.UUID
	svc    *serviceImpl

	mu        sync.Mutex
	state     State
	queue     []ranking.Entry
	queued    map[string]struct{}
	reviewed  map[string]struct{}
	startedAt time.Time
	endedAt   time.Time

	// lastActivity is when the session was created or last started or
	// received a review. The registry reaps sessions idle past a TTL.
	lastActivity time.Time

	total         int
	correct       int
	qualitySum    int
	timeSpent     time.Duration
	currentStreak int
	bestStreak    int
}

func newSession(svc *serviceImpl, userID uuid.UUID) *Session {
	return &Session{
		id:       uuid.New(),
		userID:   userID,
		svc:      svc,
		state:    StateNotStarted,
		queued:   map[string]struct{}{},
		reviewed: map[string]struct{}{},

		lastActivity: svc.clock.Now(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// UserID returns the owner of the session.
func (s *Session) UserID() uuid.UUID { return s.userID }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Queue returns a copy of the ranked queue fixed at Start.
func (s *Session) Queue() []ranking.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ranking.Entry(nil), s.queue...)
}

// Start ranks the user's items and moves the session to in_progress. If
// ranking fails the session stays not_started and Start may be retried.
func (s *Session) Start(ctx context.Context, cfg ranking.Config) ([]ranking.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateNotStarted {
		return nil, ErrSessionAlreadyStarted
	}

	queue, err := s.svc.GetReviewQueue(ctx, s.userID, cfg)
	if err != nil {
		return nil, err
	}

	s.queue = queue
	for _, entry := range queue {
		s.queued[entry.Identifier] = struct{}{}
	}
	s.startedAt = s.svc.clock.Now()
	s.lastActivity = s.startedAt
	s.state = StateInProgress

	s.log(ctx).Info("review session started", slog.Int("queue_size", len(queue)))
	return append([]ranking.Entry(nil), queue...), nil
}

// SubmitReview records a review for an item in the session queue. Counters
// only change when the new state has been saved; on ErrConflict the session
// is untouched and the review may be resubmitted.
func (s *Session) SubmitReview(
	ctx context.Context,
	itemID string,
	quality domain.Quality,
	timeSpent time.Duration,
) (*domain.ReviewableItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return nil, ErrSessionNotInProgress
	}
	if _, ok := s.queued[itemID]; !ok {
		return nil, ErrItemNotInSession
	}
	s.lastActivity = s.svc.clock.Now()

	updated, err := s.svc.submit(ctx, s.id, s.userID, itemID, quality, timeSpent)
	if err != nil {
		return nil, err
	}

	s.total++
	s.qualitySum += int(quality)
	s.timeSpent += timeSpent
	s.reviewed[itemID] = struct{}{}
	if quality.Passed() {
		s.correct++
		s.currentStreak++
		s.bestStreak = max(s.bestStreak, s.currentStreak)
	} else {
		s.currentStreak = 0
	}

	return updated, nil
}

// LastActivity returns when the session last started or received a review.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Summary returns a snapshot of the session progress. Ended sessions report
// velocity as of the moment they ended.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.svc.clock.Now()
	if s.state == StateCompleted || s.state == StateAbandoned {
		now = s.endedAt
	}
	return s.summaryLocked(now)
}

// End completes an in-progress session and emits session.completed.
func (s *Session) End(ctx context.Context) (Summary, error) {
	return s.finish(ctx, StateCompleted, events.TypeSessionCompleted)
}

// Abandon ends an in-progress session early and emits session.abandoned.
func (s *Session) Abandon(ctx context.Context) (Summary, error) {
	return s.finish(ctx, StateAbandoned, events.TypeSessionAbandoned)
}

func (s *Session) finish(ctx context.Context, final State, eventType string) (Summary, error) {
	s.mu.Lock()
	if s.state != StateInProgress {
		s.mu.Unlock()
		return Summary{}, ErrSessionNotInProgress
	}
	s.endedAt = s.svc.clock.Now()
	s.state = final
	summary := s.summaryLocked(s.endedAt)
	s.mu.Unlock()

	s.log(ctx).Info("review session ended",
		slog.String("state", string(final)),
		slog.Int("total_reviewed", summary.TotalReviewed),
		slog.Int("remaining", summary.Remaining))

	s.svc.emit(ctx, eventType, s.userID, events.SessionEndedPayload{
		SessionID:     s.id,
		TotalReviewed: summary.TotalReviewed,
		Correct:       summary.Correct,
		Remaining:     summary.Remaining,
	})

	return summary, nil
}

func (s *Session) summaryLocked(now time.Time) Summary {
	summary := Summary{
		SessionID:     s.id,
		State:         s.state,
		StartedAt:     s.startedAt,
		EndedAt:       s.endedAt,
		TotalReviewed: s.total,
		Correct:       s.correct,
		TimeSpent:     s.timeSpent,
		CurrentStreak: s.currentStreak,
		BestStreak:    s.bestStreak,
		Remaining:     len(s.queue) - len(s.reviewed),
		QueueSize:     len(s.queue),
	}

	if s.total > 0 {
		summary.Accuracy = float64(s.correct) / float64(s.total)
		summary.AverageQuality = float64(s.qualitySum) / float64(s.total)
		summary.Velocity = velocity(s.total, s.startedAt, now, s.timeSpent)
	}
	return summary
}

// velocity is reviews per minute of wall-clock session time, falling back
// to the reported time spent when no wall-clock time has passed.
func velocity(reviews int, startedAt, now time.Time, timeSpent time.Duration) float64 {
	if startedAt.IsZero() {
		return 0
	}
	if elapsed := now.Sub(startedAt); elapsed > 0 {
		return float64(reviews) / elapsed.Minutes()
	}
	if timeSpent > 0 {
		return float64(reviews) / timeSpent.Minutes()
	}
	return 0
}

func (s *Session) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.svc.logger).With(
		slog.String("session_id", s.id.String()),
		slog.String("user_id", s.userID.String()))
}
