package ranking

import (
	"math"
	"time"

	"github.com/phrazzld/curator-srs/internal/domain"
	"github.com/phrazzld/curator-srs/internal/domain/srs"
)

// Entry is one ranked queue position with the score breakdown that produced it.
type Entry struct {
	Identifier    string    `json:"identifier"`
	ContentType   string    `json:"content_type"`
	Score         float64   `json:"score"`
	Urgency       float64   `json:"urgency"`
	RetentionRisk float64   `json:"retention_risk"`
	Difficulty    float64   `json:"difficulty"`
	Weight        float64   `json:"weight"`
	NextReviewAt  time.Time `json:"next_review_at"`
	IsNew         bool      `json:"is_new"`

	easeFactor float64
}

func scoreItem(
	item *domain.ReviewableItem,
	now time.Time,
	weights Weights,
	curve *srs.ForgettingCurve,
) Entry {
	overdue := item.DaysOverdue(now)
	if weights.OverdueCapDays > 0 && overdue > weights.OverdueCapDays {
		overdue = weights.OverdueCapDays
	}
	urgency := math.Log1p(overdue)

	risk := 0.0
	if !item.NeverReviewed() {
		risk = 1 - curve.ItemRetention(item, now)
	}

	difficulty := clamp(
		(domain.DefaultEaseFactor-item.EaseFactor)/(domain.DefaultEaseFactor-domain.MinEaseFactor),
		0, 1,
	)

	weight := item.ContentTypePriority
	if weight <= 0 {
		weight = DefaultContentWeight
	}

	return Entry{
		Identifier:    item.Identifier,
		ContentType:   item.ContentType,
		Score:         weight * (weights.Urgency*urgency + weights.Retention*risk + weights.Difficulty*difficulty),
		Urgency:       urgency,
		RetentionRisk: risk,
		Difficulty:    difficulty,
		Weight:        weight,
		NextReviewAt:  item.NextReviewAt,
		IsNew:         item.IsNew(),
		easeFactor:    item.EaseFactor,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
