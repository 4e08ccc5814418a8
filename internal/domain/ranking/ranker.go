// Package ranking orders due review items into a prioritized queue.
//
// Each eligible item gets a score combining how overdue it is, how much of it
// has likely been forgotten and how hard it has proven, scaled by the weight of
// its content type. Limits, the new-item cap and the priority quota are then
// applied on top of the chosen order.
package ranking

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/phrazzld/curator-srs/internal/domain"
	"github.com/phrazzld/curator-srs/internal/domain/srs"
)

// Ranker produces review queues. It holds no per-call state and is safe for
// concurrent use.
type Ranker struct {
	curve *srs.ForgettingCurve
}

// NewRanker creates a Ranker that estimates retention with the given curve.
// A nil curve uses the default SM-2 parameters.
func NewRanker(curve *srs.ForgettingCurve) *Ranker {
	if curve == nil {
		curve = srs.NewForgettingCurve(nil)
	}
	return &Ranker{curve: curve}
}

// Rank returns the review queue for candidates at now.
//
// Disabled items and reviewed items that are not yet due are skipped. Identical
// inputs with the same now always produce the same queue. An empty candidate
// list yields an empty queue.
func (r *Ranker) Rank(candidates []*domain.ReviewableItem, now time.Time, cfg Config) ([]Entry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	entries := make([]Entry, 0, len(candidates))
	for _, item := range candidates {
		if !eligible(item, now, cfg.AheadOfSchedule) {
			continue
		}
		entries = append(entries, scoreItem(item, now, cfg.Weights, r.curve))
	}

	if len(entries) == 0 {
		return []Entry{}, nil
	}

	reviewLimit := remaining(cfg.DailyReviewLimit, cfg.Usage.ReviewedToday)
	if reviewLimit == 0 {
		return []Entry{}, nil
	}

	entries = arrange(entries, now, cfg)
	entries = capNewItems(entries, remaining(cfg.NewItemsPerDay, cfg.Usage.IntroducedToday))
	return selectWithQuota(entries, max(reviewLimit, 0), cfg.Quota), nil
}

// remaining returns what is left of a daily cap after used, or -1 when the
// cap is unlimited.
func remaining(limit, used int) int {
	if limit <= 0 {
		return -1
	}
	return max(limit-used, 0)
}

// DailyUsage counts how much of the daily caps the items already consumed on
// the calendar day of now, in now's location.
func DailyUsage(items []*domain.ReviewableItem, now time.Time) Usage {
	y, m, d := now.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	var u Usage
	for _, item := range items {
		if item == nil || item.LastReviewedAt.Before(dayStart) || item.LastReviewedAt.After(now) {
			continue
		}
		u.ReviewedToday++
		if len(item.ReviewHistory) > 0 && !item.ReviewHistory[0].ReviewedAt.Before(dayStart) {
			u.IntroducedToday++
		}
	}
	return u
}

func eligible(item *domain.ReviewableItem, now time.Time, aheadOfSchedule bool) bool {
	if item == nil || !item.Enabled {
		return false
	}
	if item.IsDue(now) {
		return true
	}
	return aheadOfSchedule && item.NeverReviewed()
}

func arrange(entries []Entry, now time.Time, cfg Config) []Entry {
	switch cfg.Order {
	case OrderRandom:
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Identifier < entries[j].Identifier
		})
		seed := cfg.Seed
		if seed == 0 {
			seed = now.Unix()
		}
		rng := rand.New(rand.NewSource(seed))
		rng.Shuffle(len(entries), func(i, j int) {
			entries[i], entries[j] = entries[j], entries[i]
		})
	case OrderOldest:
		sort.SliceStable(entries, func(i, j int) bool {
			a, b := entries[i], entries[j]
			if !a.NextReviewAt.Equal(b.NextReviewAt) {
				return a.NextReviewAt.Before(b.NextReviewAt)
			}
			return a.Identifier < b.Identifier
		})
	case OrderDifficulty:
		sort.SliceStable(entries, func(i, j int) bool {
			a, b := entries[i], entries[j]
			if a.easeFactor != b.easeFactor {
				return a.easeFactor < b.easeFactor
			}
			return byUrgency(a, b)
		})
	case OrderInterleaved:
		sortByUrgency(entries)
		entries = interleave(entries)
	default:
		sortByUrgency(entries)
	}
	return entries
}

func sortByUrgency(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return byUrgency(entries[i], entries[j])
	})
}

// byUrgency orders by score descending, then earliest due, then identifier.
func byUrgency(a, b Entry) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if !a.NextReviewAt.Equal(b.NextReviewAt) {
		return a.NextReviewAt.Before(b.NextReviewAt)
	}
	return a.Identifier < b.Identifier
}

// interleave round-robins across content types, visiting types in the order
// they first appear and keeping each type's internal order.
func interleave(entries []Entry) []Entry {
	var types []string
	buckets := make(map[string][]Entry)
	for _, e := range entries {
		if _, ok := buckets[e.ContentType]; !ok {
			types = append(types, e.ContentType)
		}
		buckets[e.ContentType] = append(buckets[e.ContentType], e)
	}

	out := make([]Entry, 0, len(entries))
	for len(out) < len(entries) {
		for _, t := range types {
			if b := buckets[t]; len(b) > 0 {
				out = append(out, b[0])
				buckets[t] = b[1:]
			}
		}
	}
	return out
}

// capNewItems keeps at most limit new entries; a negative limit keeps all.
func capNewItems(entries []Entry, limit int) []Entry {
	if limit < 0 {
		return entries
	}

	out := entries[:0:0]
	newCount := 0
	for _, e := range entries {
		if e.IsNew {
			if newCount >= limit {
				continue
			}
			newCount++
		}
		out = append(out, e)
	}
	return out
}

// selectWithQuota keeps at most limit entries. When a quota is configured,
// ceil(MinFraction*limit) slots go first to entries weighted at or above
// MinPriority; the rest are filled in queue order. The result keeps queue order.
func selectWithQuota(entries []Entry, limit int, quota Quota) []Entry {
	if limit <= 0 || len(entries) <= limit {
		return entries
	}

	chosen := make([]bool, len(entries))
	taken := 0

	if quota.MinFraction > 0 {
		reserved := int(math.Ceil(quota.MinFraction * float64(limit)))
		for i, e := range entries {
			if taken >= reserved {
				break
			}
			if e.Weight >= quota.MinPriority {
				chosen[i] = true
				taken++
			}
		}
	}

	for i := range entries {
		if taken >= limit {
			break
		}
		if !chosen[i] {
			chosen[i] = true
			taken++
		}
	}

	out := make([]Entry, 0, limit)
	for i, e := range entries {
		if chosen[i] {
			out = append(out, e)
		}
	}
	return out
}
