package srs

import (
	"math"
	"time"

	"github.com/phrazzld/curator-srs/internal/domain"
)

// ForgettingCurve models recall probability as exponential decay over time.
//
//	retention = exp(-elapsed / stability)
//	stability = max(interval, 1) * ease * (1 + RepetitionStabilityBonus * repetitions)
//
// Stability grows with interval, ease factor and repetitions, so well-known
// items decay more slowly. All methods are pure.
type ForgettingCurve struct {
	params *Params
}

// NewForgettingCurve creates a curve using the given parameters, or the
// defaults when params is nil.
func NewForgettingCurve(params *Params) *ForgettingCurve {
	if params == nil {
		params = NewDefaultParams()
	}
	return &ForgettingCurve{params: params}
}

// Retention returns the probability in [0,1] that an item with the given
// stability is still recalled after elapsedDays. Negative elapsed time is
// treated as 0.
func (c *ForgettingCurve) Retention(elapsedDays, stability float64) float64 {
	if elapsedDays <= 0 {
		return 1
	}
	if stability <= 0 || math.IsInf(elapsedDays, 1) {
		return 0
	}
	return math.Exp(-elapsedDays / stability)
}

// Stability derives the decay constant, in days, from an item's scheduling state.
func (c *ForgettingCurve) Stability(intervalDays, easeFactor float64, repetitions int) float64 {
	if repetitions < 0 {
		repetitions = 0
	}
	return math.Max(intervalDays, 1) * easeFactor * (1 + c.params.RepetitionStabilityBonus*float64(repetitions))
}

// ItemStability is Stability applied to an item's current state.
func (c *ForgettingCurve) ItemStability(item *domain.ReviewableItem) float64 {
	return c.Stability(item.IntervalDays, item.EaseFactor, item.Repetitions)
}

// ItemRetention estimates the item's recall probability at now. Items that
// were never reviewed have nothing to forget and report 1.
func (c *ForgettingCurve) ItemRetention(item *domain.ReviewableItem, now time.Time) float64 {
	if item.NeverReviewed() {
		return 1
	}
	return c.Retention(item.DaysSinceReview(now), c.ItemStability(item))
}

// DaysUntil returns how many days it takes for retention to fall to target.
// Targets outside (0,1) return 0.
func (c *ForgettingCurve) DaysUntil(stability, target float64) float64 {
	if target <= 0 || target >= 1 || stability <= 0 {
		return 0
	}
	return -stability * math.Log(target)
}
