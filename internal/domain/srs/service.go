package srs

import (
	"errors"
	"time"

	"github.com/phrazzld/curator-srs/internal/domain"
)

// Common errors
var (
	ErrNilItem     = errors.New("reviewable item cannot be nil")
	ErrInvalidDays = errors.New("postpone days must be at least 1")
)

// Service defines the interface for SM-2 scheduling operations
type Service interface {
	// CalculateNextReview computes the item's new scheduling state for a review.
	// The input item is not modified. Invalid quality or negative time spent
	// return a domain.ValidationError and no state.
	CalculateNextReview(item *domain.ReviewableItem, review Review) (*domain.ReviewableItem, error)

	// PostponeReview pushes the next review time forward by a specified number of days
	PostponeReview(item *domain.ReviewableItem, days int, now time.Time) (*domain.ReviewableItem, error)

	// Curve returns the forgetting curve configured with the same parameters.
	Curve() *ForgettingCurve
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
	curve  *ForgettingCurve
}

// NewDefaultService creates a new SRS service with default parameters
func NewDefaultService() Service {
	return NewServiceWithParams(NewDefaultParams())
}

// NewServiceWithParams creates a new SRS service with custom parameters
func NewServiceWithParams(params *Params) Service {
	return &defaultService{
		params: params,
		curve:  NewForgettingCurve(params),
	}
}

// CalculateNextReview implements the Service interface for calculating updated state
func (s *defaultService) CalculateNextReview(
	item *domain.ReviewableItem,
	review Review,
) (*domain.ReviewableItem, error) {
	if item == nil {
		return nil, ErrNilItem
	}

	if err := domain.ValidateQuality(review.Quality); err != nil {
		return nil, err
	}

	if review.TimeSpent < 0 {
		return nil, domain.NewValidationError("time_spent", review.TimeSpent, domain.ErrInvalidTimeSpent)
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}

	return calculateNextState(item, review, s.params), nil
}

// PostponeReview implements the Service interface for postponing reviews
func (s *defaultService) PostponeReview(
	item *domain.ReviewableItem,
	days int,
	now time.Time,
) (*domain.ReviewableItem, error) {
	if item == nil {
		return nil, ErrNilItem
	}

	if days < 1 {
		return nil, domain.NewValidationError("days", days, ErrInvalidDays)
	}

	next := item.Clone()
	if item.NeverReviewed() {
		next.NextReviewAt = item.NextReviewAt.AddDate(0, 0, days)
	} else {
		// Grow the interval so the next review stays last review + interval.
		next.IntervalDays = item.IntervalDays + float64(days)
		next.NextReviewAt = calculateNextReviewDate(next.IntervalDays, item.LastReviewedAt)
	}
	next.UpdatedAt = now.UTC()

	return next, nil
}

// Curve implements the Service interface
func (s *defaultService) Curve() *ForgettingCurve {
	return s.curve
}
