package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/curator-srs/internal/api"
	"github.com/phrazzld/curator-srs/internal/api/shared"
	"github.com/phrazzld/curator-srs/internal/client"
	"github.com/phrazzld/curator-srs/internal/config"
	"github.com/phrazzld/curator-srs/internal/domain/ranking"
	"github.com/phrazzld/curator-srs/internal/platform/clock"
	"github.com/phrazzld/curator-srs/internal/service/review_session"
	"github.com/phrazzld/curator-srs/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, url string, attempts uint) (*client.Client, uuid.UUID) {
	t.Helper()
	userID := uuid.New()
	c := client.New(config.ClientConfig{
		BaseURL:       url,
		Timeout:       5 * time.Second,
		RetryAttempts: attempts,
	}, userID, client.WithRetryDelay(time.Millisecond))
	return c, userID
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestSubmitReviewRetriesConflicts(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	var gotUser atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser.Store(r.Header.Get("X-User-ID"))
		if calls.Add(1) < 3 {
			writeJSON(w, http.StatusConflict, shared.ErrorResponse{Error: "Item was modified concurrently"})
			return
		}

		var req api.SubmitReviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quality == nil {
			writeJSON(w, http.StatusBadRequest, shared.ErrorResponse{Error: "bad body"})
			return
		}
		writeJSON(w, http.StatusOK, api.ItemResponse{Identifier: req.Identifier, Repetitions: *req.Quality})
	}))
	t.Cleanup(server.Close)

	c, userID := newClient(t, server.URL, 3)
	item, err := c.SubmitReview(context.Background(), "note-1", 4, time.Second)
	require.NoError(t, err)

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "note-1", item.Identifier)
	assert.Equal(t, 4, item.Repetitions)
	assert.Equal(t, userID.String(), gotUser.Load())
}

func TestClientGivesUp(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusConflict, shared.ErrorResponse{Error: "still conflicting", TraceID: "abc"})
	}))
	t.Cleanup(server.Close)

	c, _ := newClient(t, server.URL, 2)
	_, err := c.SubmitReview(context.Background(), "note-1", 4, 0)
	require.Error(t, err)

	assert.True(t, client.IsConflict(err))
	assert.Contains(t, err.Error(), "still conflicting")
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusBadRequest, shared.ErrorResponse{Error: "Invalid quality"})
	}))
	t.Cleanup(server.Close)

	c, _ := newClient(t, server.URL, 5)
	_, err := c.SubmitReview(context.Background(), "note-1", 9, 0)

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Invalid quality", apiErr.Message)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientAgainstServer(t *testing.T) {
	t.Parallel()

	db := testutils.OpenSQLiteDB(t)
	router := api.NewRouter(api.RouterConfig{
		Service:  testutils.NewReviewService(t, db, clock.NewFixed(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))),
		Registry: review_session.NewRegistry(),
		Defaults: ranking.DefaultConfig(),
		Logger:   testutils.DiscardLogger(),
	})
	server := testutils.CreateTestServer(t, router)

	ctx := context.Background()
	c, userID := newClient(t, server.URL, 1)

	item, err := c.EnableItem(ctx, "note-1", "note")
	require.NoError(t, err)
	assert.Equal(t, userID, item.UserID)

	queue, err := c.ReviewQueue(ctx, client.QueueOptions{Limit: 10, Order: "urgency"})
	require.NoError(t, err)
	require.Equal(t, 1, queue.Count)
	assert.Equal(t, "note-1", queue.Items[0].Identifier)

	reviewed, err := c.SubmitReview(ctx, "note-1", 5, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, reviewed.Repetitions)

	_, err = c.ReviewQueue(ctx, client.QueueOptions{Order: "bogus"})
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}
