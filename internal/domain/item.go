package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Scheduling defaults for freshly enabled items.
const (
	DefaultEaseFactor = 2.5
	MinEaseFactor     = 1.3
)

// Common validation errors for ReviewableItem
var (
	ErrEmptyIdentifier    = errors.New("item identifier cannot be empty")
	ErrEmptyItemUserID    = errors.New("item user ID cannot be empty")
	ErrInvalidInterval    = errors.New("interval must be greater than or equal to 0")
	ErrInvalidEaseFactor  = errors.New("ease factor must be at least 1.3")
	ErrInvalidRepetitions = errors.New("repetitions must be greater than or equal to 0")
)

// ReviewEvent is one entry of an item's review history.
type ReviewEvent struct {
	Quality    Quality       `json:"quality"`
	ReviewedAt time.Time     `json:"reviewed_at"`
	TimeSpent  time.Duration `json:"time_spent"`
}

// ContentMetadata is what the content layer tells the engine about an item.
// The engine does not interpret content beyond these fields.
type ContentMetadata struct {
	ContentType string `json:"content_type"`
	Enabled     bool   `json:"enabled"`
}

// ReviewableItem is the scheduling state of one piece of content under spaced
// repetition. The engine reads and writes only these fields; everything else
// about the content belongs to the external content layer.
type ReviewableItem struct {
	Identifier     string        `json:"identifier"`
	UserID         uuid.UUID     `json:"user_id"`
	ContentType    string        `json:"content_type"`
	IntervalDays   float64       `json:"interval_days"`
	EaseFactor     float64       `json:"ease_factor"`
	Repetitions    int           `json:"repetitions"`
	LastReviewedAt time.Time     `json:"last_reviewed_at"` // zero if never reviewed
	NextReviewAt   time.Time     `json:"next_review_at"`
	ReviewHistory  []ReviewEvent `json:"review_history"`
	Enabled        bool          `json:"enabled"`

	// ContentTypePriority is supplied by the metadata provider and weight table.
	// It is used by the ranker and never persisted by the scheduler.
	ContentTypePriority float64 `json:"content_type_priority"`

	// Version is the optimistic-concurrency token maintained by the item store.
	Version int64 `json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewReviewableItem creates scheduling state with default values for an item
// on which spaced repetition has just been enabled. The item is due at now.
func NewReviewableItem(
	identifier string,
	userID uuid.UUID,
	contentType string,
	now time.Time,
) (*ReviewableItem, error) {
	now = now.UTC()
	item := &ReviewableItem{
		Identifier:   identifier,
		UserID:       userID,
		ContentType:  contentType,
		IntervalDays: 0,
		EaseFactor:   DefaultEaseFactor,
		Repetitions:  0,
		NextReviewAt: now,
		Enabled:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}

	return item, nil
}

// Validate checks if the ReviewableItem holds well-formed scheduling state.
// Returns a ValidationError naming the first offending field.
func (i *ReviewableItem) Validate() error {
	if i.Identifier == "" {
		return NewValidationError("identifier", i.Identifier, ErrEmptyIdentifier)
	}

	if i.UserID == uuid.Nil {
		return NewValidationError("user_id", i.UserID, ErrEmptyItemUserID)
	}

	if i.IntervalDays < 0 {
		return NewValidationError("interval_days", i.IntervalDays, ErrInvalidInterval)
	}

	if i.EaseFactor < MinEaseFactor {
		return NewValidationError("ease_factor", i.EaseFactor, ErrInvalidEaseFactor)
	}

	if i.Repetitions < 0 {
		return NewValidationError("repetitions", i.Repetitions, ErrInvalidRepetitions)
	}

	return nil
}

// NeverReviewed reports whether the item has no recorded review.
func (i *ReviewableItem) NeverReviewed() bool {
	return i.LastReviewedAt.IsZero()
}

// IsNew reports whether the item has no successful repetitions yet.
// New items are subject to the ranker's new-items-per-day cap.
func (i *ReviewableItem) IsNew() bool {
	return i.Repetitions == 0
}

// IsDue reports whether the item should be reviewed at now.
func (i *ReviewableItem) IsDue(now time.Time) bool {
	return !i.NextReviewAt.After(now)
}

// DaysOverdue returns how many days past NextReviewAt now is, or 0 if not yet due.
func (i *ReviewableItem) DaysOverdue(now time.Time) float64 {
	if !now.After(i.NextReviewAt) {
		return 0
	}
	return now.Sub(i.NextReviewAt).Hours() / 24
}

// DaysSinceReview returns the days elapsed since the last review, or 0 if
// the item has never been reviewed.
func (i *ReviewableItem) DaysSinceReview(now time.Time) float64 {
	if i.NeverReviewed() || !now.After(i.LastReviewedAt) {
		return 0
	}
	return now.Sub(i.LastReviewedAt).Hours() / 24
}

// Clone returns a deep copy of the item, including its review history.
func (i *ReviewableItem) Clone() *ReviewableItem {
	c := *i
	if i.ReviewHistory != nil {
		c.ReviewHistory = make([]ReviewEvent, len(i.ReviewHistory))
		copy(c.ReviewHistory, i.ReviewHistory)
	}
	return &c
}
