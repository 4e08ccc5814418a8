package srs

import (
	"math"
	"time"

	"github.com/phrazzld/curator-srs/internal/domain"
)

// Review is a single rating submitted for an item.
type Review struct {
	Quality    domain.Quality
	ReviewedAt time.Time
	TimeSpent  time.Duration
}

// calculateNewEaseFactor applies the SM-2 ease update for the given quality.
//
// With the default constants the adjustment is +0.10 for quality 5, 0 for
// quality 4, -0.14 for 3, -0.32 for 2, -0.54 for 1 and -0.80 for 0. The result
// never drops below params.MinEaseFactor, and is capped by MaxEaseFactor when
// one is configured.
func calculateNewEaseFactor(currentEF float64, quality domain.Quality, params *Params) float64 {
	d := float64(domain.MaxQuality - quality)
	newEF := currentEF + (params.EaseBase - d*(params.EaseLinear+d*params.EaseQuadratic))

	if newEF < params.MinEaseFactor {
		newEF = params.MinEaseFactor
	}
	if params.MaxEaseFactor > 0 && newEF > params.MaxEaseFactor {
		newEF = params.MaxEaseFactor
	}

	return newEF
}

// calculateNewInterval determines the interval in days for the new repetition count.
//
//   - failed review (quality < 3): restart learning at LapseInterval
//   - first successful repetition: FirstInterval (1 day)
//   - second successful repetition: SecondInterval (6 days)
//   - later repetitions: round(prior interval * new ease), never shorter than the prior interval
func calculateNewInterval(
	priorInterval float64,
	newRepetitions int,
	newEaseFactor float64,
	quality domain.Quality,
	params *Params,
) float64 {
	if !quality.Passed() {
		return params.LapseInterval
	}

	switch newRepetitions {
	case 1:
		return params.FirstInterval
	case 2:
		return params.SecondInterval
	}

	next := math.Round(priorInterval * newEaseFactor)
	if next < priorInterval {
		next = priorInterval
	}
	if next < params.FirstInterval {
		next = params.FirstInterval
	}
	return next
}

// calculateNextReviewDate converts an interval in days into the next review time.
func calculateNextReviewDate(interval float64, reviewedAt time.Time) time.Time {
	return reviewedAt.Add(daysToDuration(interval))
}

// appendHistory returns a fresh history slice with event appended, trimmed to
// the newest limit entries.
func appendHistory(history []domain.ReviewEvent, event domain.ReviewEvent, limit int) []domain.ReviewEvent {
	start := 0
	if limit > 0 && len(history)+1 > limit {
		start = len(history) + 1 - limit
	}

	out := make([]domain.ReviewEvent, 0, len(history)-start+1)
	out = append(out, history[start:]...)
	return append(out, event)
}

// calculateNextState creates a new item with scheduling state updated for the review.
//
// The input item is never modified: the result is a deep copy carrying the new
// ease factor, repetitions, interval, review timestamps and history. The caller
// is responsible for persisting it.
func calculateNextState(
	item *domain.ReviewableItem,
	review Review,
	params *Params,
) *domain.ReviewableItem {
	next := item.Clone()
	reviewedAt := review.ReviewedAt.UTC()

	next.EaseFactor = calculateNewEaseFactor(item.EaseFactor, review.Quality, params)

	if review.Quality.Passed() {
		next.Repetitions = item.Repetitions + 1
	} else {
		next.Repetitions = 0
	}

	next.IntervalDays = calculateNewInterval(
		item.IntervalDays,
		next.Repetitions,
		next.EaseFactor,
		review.Quality,
		params,
	)

	next.LastReviewedAt = reviewedAt
	next.NextReviewAt = calculateNextReviewDate(next.IntervalDays, reviewedAt)
	next.ReviewHistory = appendHistory(item.ReviewHistory, domain.ReviewEvent{
		Quality:    review.Quality,
		ReviewedAt: reviewedAt,
		TimeSpent:  review.TimeSpent,
	}, params.HistoryLimit)
	next.UpdatedAt = reviewedAt

	return next
}

func daysToDuration(days float64) time.Duration {
	return time.Duration(days * float64(24*time.Hour))
}
