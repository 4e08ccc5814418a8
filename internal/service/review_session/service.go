package review_session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/curator-srs/internal/domain"
	"github.com/phrazzld/curator-srs/internal/domain/ranking"
)

// Ranker orders candidate items into a review queue.
type Ranker interface {
	Rank(candidates []*domain.ReviewableItem, now time.Time, cfg ranking.Config) ([]ranking.Entry, error)
}

// ItemStatus is an item's scheduling state with retention analytics.
type ItemStatus struct {
	Item *domain.ReviewableItem `json:"item"`

	// Retention is the estimated recall probability right now.
	Retention float64 `json:"retention"`

	// Stability is the forgetting-curve time constant in days.
	Stability float64 `json:"stability"`

	// DaysUntilTarget is how many days after the last review retention
	// falls to the target; 0 for never-reviewed items.
	DaysUntilTarget float64 `json:"days_until_target"`
	TargetRetention float64 `json:"target_retention"`
}

// Service coordinates review queues, reviews and review sessions.
type Service interface {
	// NewSession creates a session in the not_started state for the user.
	NewSession(userID uuid.UUID) *Session

	// GetReviewQueue ranks the user's enabled items without starting a session.
	GetReviewQueue(ctx context.Context, userID uuid.UUID, cfg ranking.Config) ([]ranking.Entry, error)

	// SubmitReview schedules and persists a single review outside of any session.
	//
	// Returns:
	//   - domain.ValidationError for quality outside 0..5 or negative time spent
	//   - store.ErrItemNotFound / ErrItemNotEnabled when there is no active schedule
	//   - ErrItemNotOwned when the item belongs to another user
	//   - a ServiceError wrapping store.ErrConflict when a concurrent write won;
	//     the caller may reload and retry
	SubmitReview(
		ctx context.Context,
		userID uuid.UUID,
		itemID string,
		quality domain.Quality,
		timeSpent time.Duration,
	) (*domain.ReviewableItem, error)

	// EnableItem turns on spaced repetition for an item, creating default state.
	EnableItem(ctx context.Context, userID uuid.UUID, itemID, contentType string) (*domain.ReviewableItem, error)

	// DisableItem removes an item from review queues, keeping its state.
	DisableItem(ctx context.Context, userID uuid.UUID, itemID string) error

	// PostponeItem pushes an item's next review forward by days (at least 1).
	PostponeItem(ctx context.Context, userID uuid.UUID, itemID string, days int) (*domain.ReviewableItem, error)

	// ItemStatus returns the item state with current retention estimates.
	ItemStatus(ctx context.Context, userID uuid.UUID, itemID string, targetRetention float64) (*ItemStatus, error)
}
