package ranking

import (
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/curator-srs/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rankNow = time.Date(2026, 4, 12, 8, 0, 0, 0, time.UTC)

// reviewedItem builds an item last reviewed intervalDays+overdueDays ago.
func reviewedItem(id string, ease float64, intervalDays, overdueDays float64) *domain.ReviewableItem {
	due := rankNow.Add(-time.Duration(overdueDays * float64(24*time.Hour)))
	return &domain.ReviewableItem{
		Identifier:     id,
		UserID:         uuid.MustParse("3f6c1a2e-4b7d-4a10-9c55-1e2f3a4b5c6d"),
		ContentType:    "note",
		IntervalDays:   intervalDays,
		EaseFactor:     ease,
		Repetitions:    3,
		LastReviewedAt: due.Add(-time.Duration(intervalDays * float64(24*time.Hour))),
		NextReviewAt:   due,
		Enabled:        true,
	}
}

func newItem(id string, due time.Time) *domain.ReviewableItem {
	return &domain.ReviewableItem{
		Identifier:   id,
		UserID:       uuid.MustParse("3f6c1a2e-4b7d-4a10-9c55-1e2f3a4b5c6d"),
		ContentType:  "note",
		EaseFactor:   domain.DefaultEaseFactor,
		NextReviewAt: due,
		Enabled:      true,
	}
}

func ids(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Identifier
	}
	return out
}

func TestRankEmptyInput(t *testing.T) {
	t.Parallel()
	ranker := NewRanker(nil)

	entries, err := ranker.Rank(nil, rankNow, DefaultConfig())
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestRankHarderItemFirst(t *testing.T) {
	t.Parallel()
	ranker := NewRanker(nil)

	easy := reviewedItem("easy", 2.5, 10, 3)
	hard := reviewedItem("hard", 1.5, 10, 3)

	entries, err := ranker.Rank([]*domain.ReviewableItem{easy, hard}, rankNow, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"hard", "easy"}, ids(entries))
	assert.Greater(t, entries[0].Difficulty, entries[1].Difficulty)
}

func TestRankMoreOverdueFirst(t *testing.T) {
	t.Parallel()
	ranker := NewRanker(nil)

	recent := reviewedItem("recent", 2.5, 10, 1)
	stale := reviewedItem("stale", 2.5, 10, 12)

	entries, err := ranker.Rank([]*domain.ReviewableItem{recent, stale}, rankNow, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"stale", "recent"}, ids(entries))
}

func TestRankUrgencyCap(t *testing.T) {
	t.Parallel()
	ranker := NewRanker(nil)
	cfg := DefaultConfig()
	cfg.Weights = Weights{Urgency: 1, OverdueCapDays: 5}

	a := reviewedItem("a", 2.5, 10, 20)
	b := reviewedItem("b", 2.5, 10, 40)

	entries, err := ranker.Rank([]*domain.ReviewableItem{a, b}, rankNow, cfg)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.InDelta(t, entries[0].Urgency, entries[1].Urgency, 1e-12)
	// Equal scores fall back to the earliest due date
	assert.Equal(t, "b", entries[0].Identifier)
}

func TestRankContentTypeWeight(t *testing.T) {
	t.Parallel()
	ranker := NewRanker(nil)

	plain := reviewedItem("plain", 2.5, 10, 3)
	important := reviewedItem("important", 2.5, 10, 3)
	important.ContentTypePriority = 3

	entries, err := ranker.Rank([]*domain.ReviewableItem{plain, important}, rankNow, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "important", entries[0].Identifier)
	assert.Equal(t, 3.0, entries[0].Weight)
	assert.Equal(t, DefaultContentWeight, entries[1].Weight)
}

func TestRankSkipsIneligible(t *testing.T) {
	t.Parallel()
	ranker := NewRanker(nil)

	disabled := reviewedItem("disabled", 2.5, 5, 2)
	disabled.Enabled = false
	notDue := reviewedItem("not-due", 2.5, 5, -2)
	futureNew := newItem("future-new", rankNow.Add(48*time.Hour))
	due := reviewedItem("due", 2.5, 5, 2)

	candidates := []*domain.ReviewableItem{disabled, notDue, futureNew, due, nil}

	entries, err := ranker.Rank(candidates, rankNow, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"due"}, ids(entries))

	cfg := DefaultConfig()
	cfg.AheadOfSchedule = true
	entries, err = ranker.Rank(candidates, rankNow, cfg)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"due", "future-new"}, ids(entries))
}

func TestRankNeverReviewedHasNoRetentionRisk(t *testing.T) {
	t.Parallel()
	ranker := NewRanker(nil)

	entries, err := ranker.Rank([]*domain.ReviewableItem{newItem("fresh", rankNow)}, rankNow, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 0.0, entries[0].RetentionRisk)
	assert.True(t, entries[0].IsNew)
}

func TestRankLimitAndPermutation(t *testing.T) {
	t.Parallel()
	ranker := NewRanker(nil)

	var candidates []*domain.ReviewableItem
	for i := 0; i < 25; i++ {
		candidates = append(candidates,
			reviewedItem(fmt.Sprintf("item-%02d", i), 1.3+float64(i%7)*0.2, float64(1+i%5), float64(i%9)))
	}

	full, err := ranker.Rank(candidates, rankNow, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, full, len(candidates))

	got := ids(full)
	want := make([]string, len(candidates))
	for i, c := range candidates {
		want[i] = c.Identifier
	}
	sort.Strings(got)
	sort.Strings(want)
	assert.Equal(t, want, got, "unlimited ranking should be a permutation of the input")

	for _, limit := range []int{1, 5, 25, 40} {
		cfg := DefaultConfig()
		cfg.DailyReviewLimit = limit
		limited, err := ranker.Rank(candidates, rankNow, cfg)
		require.NoError(t, err)

		expected := limit
		if expected > len(candidates) {
			expected = len(candidates)
		}
		require.Len(t, limited, expected)
		assert.Equal(t, ids(full[:expected]), ids(limited), "limit %d should keep the top entries", limit)
	}
}

func TestRankDeterministic(t *testing.T) {
	t.Parallel()
	ranker := NewRanker(nil)

	var candidates []*domain.ReviewableItem
	for i := 0; i < 12; i++ {
		candidates = append(candidates, reviewedItem(fmt.Sprintf("n%d", i), 2.5, 4, 2))
	}

	for _, order := range []Order{OrderUrgency, OrderRandom, OrderOldest, OrderDifficulty, OrderInterleaved} {
		cfg := DefaultConfig()
		cfg.Order = order

		first, err := ranker.Rank(candidates, rankNow, cfg)
		require.NoError(t, err)

		reversed := make([]*domain.ReviewableItem, len(candidates))
		for i, c := range candidates {
			reversed[len(candidates)-1-i] = c
		}
		second, err := ranker.Rank(reversed, rankNow, cfg)
		require.NoError(t, err)

		assert.Equal(t, ids(first), ids(second), "order %s should not depend on input order", order)
	}
}

func TestRankNewItemCap(t *testing.T) {
	t.Parallel()
	ranker := NewRanker(nil)

	candidates := []*domain.ReviewableItem{
		newItem("new-a", rankNow),
		newItem("new-b", rankNow),
		newItem("new-c", rankNow),
		reviewedItem("old", 2.0, 5, 1),
	}

	cfg := DefaultConfig()
	cfg.NewItemsPerDay = 1
	entries, err := ranker.Rank(candidates, rankNow, cfg)
	require.NoError(t, err)

	newCount := 0
	for _, e := range entries {
		if e.IsNew {
			newCount++
		}
	}
	assert.Equal(t, 1, newCount)
	assert.Len(t, entries, 2)
	assert.Contains(t, ids(entries), "old")
}

func TestRankQuota(t *testing.T) {
	t.Parallel()
	ranker := NewRanker(nil)

	var candidates []*domain.ReviewableItem
	for i := 0; i < 6; i++ {
		candidates = append(candidates, reviewedItem(fmt.Sprintf("urgent-%d", i), 1.3, 5, 20))
	}
	for i := 0; i < 3; i++ {
		item := reviewedItem(fmt.Sprintf("priority-%d", i), 2.5, 5, 0)
		item.ContentTypePriority = 1.2
		candidates = append(candidates, item)
	}

	cfg := DefaultConfig()
	cfg.DailyReviewLimit = 4

	withoutQuota, err := ranker.Rank(candidates, rankNow, cfg)
	require.NoError(t, err)
	for _, e := range withoutQuota {
		assert.Contains(t, e.Identifier, "urgent")
	}

	cfg.Quota = Quota{MinPriority: 1.2, MinFraction: 0.5}
	withQuota, err := ranker.Rank(candidates, rankNow, cfg)
	require.NoError(t, err)
	require.Len(t, withQuota, 4)

	priority := 0
	for _, e := range withQuota {
		if e.Weight >= 1.2 {
			priority++
		}
	}
	assert.Equal(t, 2, priority)

	// Output keeps the global order: all urgent entries outrank the priority ones
	assert.Contains(t, withQuota[0].Identifier, "urgent")
	assert.Contains(t, withQuota[3].Identifier, "priority")
}

func TestRankOrders(t *testing.T) {
	t.Parallel()
	ranker := NewRanker(nil)

	a := reviewedItem("a", 1.4, 5, 1)
	b := reviewedItem("b", 2.5, 5, 9)
	c := reviewedItem("c", 2.0, 5, 4)
	c.ContentType = "quote"
	candidates := []*domain.ReviewableItem{a, b, c}

	t.Run("oldest", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Order = OrderOldest
		entries, err := ranker.Rank(candidates, rankNow, cfg)
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "c", "a"}, ids(entries))
	})

	t.Run("difficulty", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Order = OrderDifficulty
		entries, err := ranker.Rank(candidates, rankNow, cfg)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "c", "b"}, ids(entries))
	})

	t.Run("interleaved", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Order = OrderInterleaved
		entries, err := ranker.Rank(candidates, rankNow, cfg)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.NotEqual(t, entries[0].ContentType, entries[1].ContentType)
	})

	t.Run("random with seed", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Order = OrderRandom
		cfg.Seed = 99
		first, err := ranker.Rank(candidates, rankNow, cfg)
		require.NoError(t, err)
		second, err := ranker.Rank(candidates, rankNow.Add(time.Hour), cfg)
		require.NoError(t, err)
		assert.Equal(t, ids(first), ids(second))
		assert.ElementsMatch(t, []string{"a", "b", "c"}, ids(first))
	})
}

func TestRankRejectsInvalidConfig(t *testing.T) {
	t.Parallel()
	ranker := NewRanker(nil)

	testCases := []struct {
		name string
		cfg  Config
	}{
		{"negative limit", Config{DailyReviewLimit: -1}},
		{"negative new cap", Config{NewItemsPerDay: -3}},
		{"unknown order", Config{Order: "alphabetical"}},
		{"fraction above one", Config{Quota: Quota{MinFraction: 1.5}}},
		{"negative weight", Config{Weights: Weights{Urgency: -1}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ranker.Rank(nil, rankNow, tc.cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.True(t, domain.IsValidationError(err))
		})
	}
}

func TestRankSubtractsDailyUsage(t *testing.T) {
	t.Parallel()
	ranker := NewRanker(nil)

	candidates := []*domain.ReviewableItem{
		newItem("new-a", rankNow),
		newItem("new-b", rankNow),
		newItem("new-c", rankNow),
		reviewedItem("old-a", 2.0, 5, 1),
		reviewedItem("old-b", 2.0, 5, 2),
	}

	tests := []struct {
		name      string
		newLimit  int
		limit     int
		usage     Usage
		wantNew   int
		wantTotal int
	}{
		{name: "nothing used", newLimit: 2, wantNew: 2, wantTotal: 4},
		{name: "part of new allowance used", newLimit: 2, usage: Usage{IntroducedToday: 1}, wantNew: 1, wantTotal: 3},
		{name: "new allowance exhausted", newLimit: 2, usage: Usage{IntroducedToday: 5}, wantNew: 0, wantTotal: 2},
		{name: "unlimited new ignores usage", usage: Usage{IntroducedToday: 5}, wantNew: 3, wantTotal: 5},
		{name: "review limit partly used", limit: 4, usage: Usage{ReviewedToday: 3}, wantNew: 0, wantTotal: 1},
		{name: "review limit exhausted", limit: 4, usage: Usage{ReviewedToday: 4}, wantNew: 0, wantTotal: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.NewItemsPerDay = tt.newLimit
			cfg.DailyReviewLimit = tt.limit
			cfg.Usage = tt.usage

			entries, err := ranker.Rank(candidates, rankNow, cfg)
			require.NoError(t, err)
			assert.NotNil(t, entries)

			newCount := 0
			for _, e := range entries {
				if e.IsNew {
					newCount++
				}
			}
			if tt.limit == 0 {
				assert.Equal(t, tt.wantNew, newCount)
			}
			assert.Len(t, entries, tt.wantTotal)
		})
	}
}

func TestDailyUsage(t *testing.T) {
	t.Parallel()

	dayStart := time.Date(rankNow.Year(), rankNow.Month(), rankNow.Day(), 0, 0, 0, 0, time.UTC)

	introduced := reviewedItem("introduced", 2.5, 1, 0)
	introduced.LastReviewedAt = dayStart.Add(time.Hour)
	introduced.ReviewHistory = []domain.ReviewEvent{{Quality: 4, ReviewedAt: dayStart.Add(time.Hour)}}

	repeated := reviewedItem("repeated", 2.5, 6, 0)
	repeated.LastReviewedAt = dayStart.Add(2 * time.Hour)
	repeated.ReviewHistory = []domain.ReviewEvent{
		{Quality: 4, ReviewedAt: dayStart.AddDate(0, 0, -7)},
		{Quality: 5, ReviewedAt: dayStart.Add(2 * time.Hour)},
	}

	yesterday := reviewedItem("yesterday", 2.5, 1, 0)
	yesterday.LastReviewedAt = dayStart.Add(-time.Minute)
	yesterday.ReviewHistory = []domain.ReviewEvent{{Quality: 4, ReviewedAt: dayStart.Add(-time.Minute)}}

	items := []*domain.ReviewableItem{introduced, repeated, yesterday, newItem("never", rankNow), nil}

	assert.Equal(t, Usage{IntroducedToday: 1, ReviewedToday: 2}, DailyUsage(items, rankNow))
	assert.Equal(t, Usage{}, DailyUsage(nil, rankNow))
}
