package review_session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/curator-srs/internal/domain"
	"github.com/phrazzld/curator-srs/internal/domain/ranking"
	"github.com/phrazzld/curator-srs/internal/events"
	"github.com/phrazzld/curator-srs/internal/service/review_session"
	"github.com/phrazzld/curator-srs/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// startSession lists the given items and starts a session over them.
func startSession(t *testing.T, f *fixture, items ...*domain.ReviewableItem) *review_session.Session {
	t.Helper()
	ctx := context.Background()

	f.items.On("ListByUser", ctx, f.userID).Return(items, nil).Once()
	for _, item := range items {
		f.items.On("Load", ctx, item.Identifier).Return(item, nil).Maybe()
	}

	session := f.service.NewSession(f.userID)
	assert.Equal(t, review_session.StateNotStarted, session.State())

	queue, err := session.Start(ctx, ranking.DefaultConfig())
	require.NoError(t, err)
	require.Len(t, queue, len(items))
	assert.Equal(t, review_session.StateInProgress, session.State())
	return session
}

func TestSession_Lifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, false)

	session := startSession(t, f, f.dueItem("a", 3, 2.5), f.dueItem("b", 1, 2.5))
	f.items.On("Save", ctx, mock.Anything).Return(nil)

	_, err := session.SubmitReview(ctx, "a", domain.QualityPerfect, 10*time.Second)
	require.NoError(t, err)
	_, err = session.SubmitReview(ctx, "b", domain.QualityHardWrong, 20*time.Second)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Minute)
	summary, err := session.End(ctx)
	require.NoError(t, err)

	assert.Equal(t, session.ID(), summary.SessionID)
	assert.Equal(t, review_session.StateCompleted, summary.State)
	assert.Equal(t, testNow, summary.StartedAt)
	assert.Equal(t, testNow.Add(2*time.Minute), summary.EndedAt)
	assert.Equal(t, 2, summary.TotalReviewed)
	assert.Equal(t, 1, summary.Correct)
	assert.InDelta(t, 0.5, summary.Accuracy, 1e-9)
	assert.InDelta(t, 3.5, summary.AverageQuality, 1e-9)
	assert.Equal(t, 30*time.Second, summary.TimeSpent)
	assert.InDelta(t, 1.0, summary.Velocity, 1e-9)
	assert.Equal(t, 0, summary.CurrentStreak)
	assert.Equal(t, 1, summary.BestStreak)
	assert.Equal(t, 0, summary.Remaining)
	assert.Equal(t, 2, summary.QueueSize)

	assert.Equal(t, []string{
		events.TypeReviewSubmitted,
		events.TypeReviewSubmitted,
		events.TypeSessionCompleted,
	}, f.handler.types())

	var payload events.SessionEndedPayload
	require.NoError(t, f.handler.events[2].UnmarshalPayload(&payload))
	assert.Equal(t, session.ID(), payload.SessionID)
	assert.Equal(t, 2, payload.TotalReviewed)

	f.clock.Advance(time.Hour)
	assert.Equal(t, summary, session.Summary(), "an ended session reports the summary it ended with")

	_, err = session.SubmitReview(ctx, "a", domain.QualityPerfect, 0)
	assert.ErrorIs(t, err, review_session.ErrSessionNotInProgress)
	_, err = session.End(ctx)
	assert.ErrorIs(t, err, review_session.ErrSessionNotInProgress)
}

func TestSession_StateErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, false)

	session := f.service.NewSession(f.userID)

	_, err := session.SubmitReview(ctx, "a", domain.QualityPerfect, 0)
	assert.ErrorIs(t, err, review_session.ErrSessionNotInProgress)
	_, err = session.End(ctx)
	assert.ErrorIs(t, err, review_session.ErrSessionNotInProgress)

	f.items.On("ListByUser", ctx, f.userID).Return([]*domain.ReviewableItem{}, nil).Once()
	queue, err := session.Start(ctx, ranking.DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, queue)

	_, err = session.Start(ctx, ranking.DefaultConfig())
	assert.ErrorIs(t, err, review_session.ErrSessionAlreadyStarted)
}

func TestSession_StartFailureKeepsSessionRetryable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, false)

	f.items.On("ListByUser", ctx, f.userID).Return(nil, errors.New("timeout")).Once()
	f.items.On("ListByUser", ctx, f.userID).Return([]*domain.ReviewableItem{f.dueItem("a", 1, 2.5)}, nil).Once()

	session := f.service.NewSession(f.userID)
	_, err := session.Start(ctx, ranking.DefaultConfig())
	require.Error(t, err)
	assert.Equal(t, review_session.StateNotStarted, session.State())

	queue, err := session.Start(ctx, ranking.DefaultConfig())
	require.NoError(t, err)
	assert.Len(t, queue, 1)
}

func TestSession_RejectsItemsOutsideQueue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, false)

	session := startSession(t, f, f.dueItem("a", 1, 2.5))

	_, err := session.SubmitReview(ctx, "z", domain.QualityPerfect, 0)
	assert.ErrorIs(t, err, review_session.ErrItemNotInSession)
	assert.Equal(t, 0, session.Summary().TotalReviewed)
}

func TestSession_InvalidQualityLeavesCountersUnchanged(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, false)

	session := startSession(t, f, f.dueItem("a", 1, 2.5))

	_, err := session.SubmitReview(ctx, "a", domain.Quality(-1), 0)
	assert.True(t, domain.IsValidationError(err))

	summary := session.Summary()
	assert.Equal(t, 0, summary.TotalReviewed)
	assert.Equal(t, 1, summary.Remaining)
}

func TestSession_ConflictLeavesCountersUnchanged(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, false)

	session := startSession(t, f, f.dueItem("a", 1, 2.5))
	f.items.On("Save", ctx, mock.Anything).Return(store.ErrConflict).Once()
	f.items.On("Save", ctx, mock.Anything).Return(nil).Once()

	_, err := session.SubmitReview(ctx, "a", domain.QualityPerfect, 5*time.Second)
	require.ErrorIs(t, err, store.ErrConflict)

	summary := session.Summary()
	assert.Equal(t, 0, summary.TotalReviewed)
	assert.Equal(t, time.Duration(0), summary.TimeSpent)
	assert.Equal(t, 1, summary.Remaining)
	assert.Empty(t, f.handler.types())

	// Resubmitting after the conflict succeeds.
	_, err = session.SubmitReview(ctx, "a", domain.QualityPerfect, 5*time.Second)
	require.NoError(t, err)

	summary = session.Summary()
	assert.Equal(t, 1, summary.TotalReviewed)
	assert.Equal(t, 0, summary.Remaining)
}

func TestSession_ReReviewCountsOnceForRemaining(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, false)

	session := startSession(t, f, f.dueItem("a", 1, 2.5), f.dueItem("b", 1, 2.5))
	f.items.On("Save", ctx, mock.Anything).Return(nil)

	for _, q := range []domain.Quality{domain.QualityBlackout, domain.QualityDifficult, domain.QualityPerfect} {
		_, err := session.SubmitReview(ctx, "a", q, 0)
		require.NoError(t, err)
	}

	summary := session.Summary()
	assert.Equal(t, 3, summary.TotalReviewed)
	assert.Equal(t, 2, summary.Correct)
	assert.Equal(t, 2, summary.CurrentStreak)
	assert.Equal(t, 2, summary.BestStreak)
	assert.Equal(t, 1, summary.Remaining)
}

func TestSession_VelocityFallsBackToTimeSpent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, false)

	session := startSession(t, f, f.dueItem("a", 1, 2.5), f.dueItem("b", 1, 2.5))
	f.items.On("Save", ctx, mock.Anything).Return(nil)

	_, err := session.SubmitReview(ctx, "a", domain.QualityPerfect, 30*time.Second)
	require.NoError(t, err)
	_, err = session.SubmitReview(ctx, "b", domain.QualityPerfect, 30*time.Second)
	require.NoError(t, err)

	// The fixed clock has not moved, so there is no wall-clock time.
	summary, err := session.Abandon(ctx)
	require.NoError(t, err)
	assert.Equal(t, review_session.StateAbandoned, summary.State)
	assert.InDelta(t, 2.0, summary.Velocity, 1e-9)
	assert.Contains(t, f.handler.types(), events.TypeSessionAbandoned)
}

func TestSession_EmptySummary(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)

	summary := f.service.NewSession(f.userID).Summary()
	assert.Zero(t, summary.Accuracy)
	assert.Zero(t, summary.AverageQuality)
	assert.Zero(t, summary.Velocity)
}

func TestSession_ConcurrentSubmissions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, false)

	const n = 10
	items := make([]*domain.ReviewableItem, n)
	for i := range items {
		items[i] = f.dueItem(fmt.Sprintf("item-%02d", i), float64(i), 2.5)
	}
	session := startSession(t, f, items...)
	f.items.On("Save", ctx, mock.Anything).Return(nil)

	var wg sync.WaitGroup
	for _, item := range items {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := session.SubmitReview(ctx, id, domain.QualityDifficult, time.Second)
			assert.NoError(t, err)
		}(item.Identifier)
	}
	wg.Wait()

	summary := session.Summary()
	assert.Equal(t, n, summary.TotalReviewed)
	assert.Equal(t, n, summary.Correct)
	assert.Equal(t, n, summary.BestStreak)
	assert.Equal(t, 0, summary.Remaining)
	assert.Equal(t, n*time.Second, summary.TimeSpent)
}
