package srs

import (
	"math"
	"testing"
	"time"

	"github.com/phrazzld/curator-srs/internal/domain"
)

func TestRetentionAtZeroIsOne(t *testing.T) {
	t.Parallel()
	curve := NewForgettingCurve(nil)

	for _, stability := range []float64{0.5, 1, 2.5, 15, 365} {
		if got := curve.Retention(0, stability); got != 1.0 {
			t.Errorf("Retention(0, %v) = %v, want 1", stability, got)
		}
	}
}

func TestRetentionClampsNegativeElapsed(t *testing.T) {
	t.Parallel()
	curve := NewForgettingCurve(nil)

	if got := curve.Retention(-3, 5); got != 1.0 {
		t.Errorf("Retention(-3, 5) = %v, want 1", got)
	}
}

func TestRetentionStrictlyDecreasing(t *testing.T) {
	t.Parallel()
	curve := NewForgettingCurve(nil)
	stability := 7.5

	prev := curve.Retention(0, stability)
	for elapsed := 0.25; elapsed <= 60; elapsed += 0.25 {
		got := curve.Retention(elapsed, stability)
		if got >= prev {
			t.Fatalf("Retention not strictly decreasing at %v: %v >= %v", elapsed, got, prev)
		}
		if got < 0 || got > 1 {
			t.Fatalf("Retention out of range at %v: %v", elapsed, got)
		}
		prev = got
	}
}

func TestRetentionTendsToZero(t *testing.T) {
	t.Parallel()
	curve := NewForgettingCurve(nil)

	if got := curve.Retention(1e6, 2); got > 1e-9 {
		t.Errorf("Expected retention near zero, got %v", got)
	}
	if got := curve.Retention(math.Inf(1), 2); got != 0 {
		t.Errorf("Expected zero retention at infinity, got %v", got)
	}
}

func TestStabilityMonotonic(t *testing.T) {
	t.Parallel()
	curve := NewForgettingCurve(nil)

	if curve.Stability(6, 2.5, 2) <= curve.Stability(6, 1.3, 2) {
		t.Error("Stability should increase with ease factor")
	}
	if curve.Stability(6, 2.5, 5) <= curve.Stability(6, 2.5, 2) {
		t.Error("Stability should increase with repetitions")
	}
	if curve.Stability(20, 2.5, 2) <= curve.Stability(6, 2.5, 2) {
		t.Error("Stability should increase with interval")
	}
	if curve.Stability(0, 2.5, 0) != curve.Stability(1, 2.5, 0) {
		t.Error("Intervals below one day should be treated as one day")
	}
}

func TestItemRetention(t *testing.T) {
	t.Parallel()
	curve := NewForgettingCurve(nil)
	now := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)

	fresh := &domain.ReviewableItem{EaseFactor: 2.5}
	if got := curve.ItemRetention(fresh, now); got != 1 {
		t.Errorf("Expected never-reviewed item to report 1, got %v", got)
	}

	reviewed := &domain.ReviewableItem{
		IntervalDays:   6,
		EaseFactor:     2.5,
		Repetitions:    2,
		LastReviewedAt: now.AddDate(0, 0, -18),
	}
	stability := 6 * 2.5 * 1.2
	want := math.Exp(-18 / stability)
	if got := curve.ItemRetention(reviewed, now); math.Abs(got-want) > 1e-9 {
		t.Errorf("Expected retention %v, got %v", want, got)
	}
}

func TestDaysUntil(t *testing.T) {
	t.Parallel()
	curve := NewForgettingCurve(nil)

	days := curve.DaysUntil(10, 0.9)
	if math.Abs(curve.Retention(days, 10)-0.9) > 1e-9 {
		t.Errorf("Retention after DaysUntil should hit the target, got %v", curve.Retention(days, 10))
	}
	if curve.DaysUntil(10, 1.5) != 0 {
		t.Error("Expected 0 for an out-of-range target")
	}
}
