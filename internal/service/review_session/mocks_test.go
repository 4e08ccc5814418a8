package review_session_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/curator-srs/internal/domain"
	"github.com/phrazzld/curator-srs/internal/domain/ranking"
	"github.com/phrazzld/curator-srs/internal/domain/srs"
	"github.com/phrazzld/curator-srs/internal/events"
	"github.com/phrazzld/curator-srs/internal/platform/clock"
	"github.com/phrazzld/curator-srs/internal/service/review_session"
	"github.com/stretchr/testify/mock"
)

// MockItemStore is a mock implementation of store.ItemStore
type MockItemStore struct {
	mock.Mock
}

func (m *MockItemStore) Load(ctx context.Context, identifier string) (*domain.ReviewableItem, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// Hand out a copy so the service cannot mutate the fixture.
	return args.Get(0).(*domain.ReviewableItem).Clone(), args.Error(1)
}

func (m *MockItemStore) Save(ctx context.Context, item *domain.ReviewableItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockItemStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.ReviewableItem, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	items := args.Get(0).([]*domain.ReviewableItem)
	out := make([]*domain.ReviewableItem, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out, args.Error(1)
}

func (m *MockItemStore) Enable(
	ctx context.Context,
	identifier string,
	userID uuid.UUID,
	contentType string,
	now time.Time,
) (*domain.ReviewableItem, error) {
	args := m.Called(ctx, identifier, userID, contentType, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReviewableItem), args.Error(1)
}

func (m *MockItemStore) Disable(ctx context.Context, identifier string, now time.Time) error {
	args := m.Called(ctx, identifier, now)
	return args.Error(0)
}

// MockMetadataProvider is a mock implementation of store.MetadataProvider
type MockMetadataProvider struct {
	mock.Mock
}

func (m *MockMetadataProvider) ContentMetadata(
	ctx context.Context,
	identifiers []string,
) (map[string]domain.ContentMetadata, error) {
	args := m.Called(ctx, identifiers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.ContentMetadata), args.Error(1)
}

// recordingHandler collects emitted events.
type recordingHandler struct {
	mu     sync.Mutex
	events []*events.Event
}

func (h *recordingHandler) HandleEvent(_ context.Context, event *events.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return nil
}

func (h *recordingHandler) types() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	types := make([]string, len(h.events))
	for i, e := range h.events {
		types[i] = e.Type
	}
	return types
}

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	items    *MockItemStore
	metadata *MockMetadataProvider
	clock    *clock.Fixed
	handler  *recordingHandler
	service  review_session.Service
	userID   uuid.UUID
}

// newFixture wires the service with mocked persistence and the real
// scheduler and ranker. withMetadata controls whether a metadata provider
// is configured.
func newFixture(t *testing.T, withMetadata bool) *fixture {
	t.Helper()

	f := &fixture{
		items:   &MockItemStore{},
		clock:   clock.NewFixed(testNow),
		handler: &recordingHandler{},
		userID:  uuid.New(),
	}

	emitter := events.NewInMemoryEventEmitter(slog.New(slog.NewTextHandler(io.Discard, nil)))
	emitter.RegisterHandler(f.handler)

	deps := review_session.Dependencies{
		Items:     f.items,
		Scheduler: srs.NewDefaultService(),
		Ranker:    ranking.NewRanker(nil),
		Weights:   ranking.NewWeightTable(map[string]float64{"research": 2}, 1),
		Clock:     f.clock,
		Emitter:   emitter,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if withMetadata {
		f.metadata = &MockMetadataProvider{}
		deps.Metadata = f.metadata
	}
	f.service = review_session.NewService(deps)

	t.Cleanup(func() {
		f.items.AssertExpectations(t)
		if f.metadata != nil {
			f.metadata.AssertExpectations(t)
		}
	})
	return f
}

// dueItem creates an enabled item for the fixture user that is overdue by
// the given number of days.
func (f *fixture) dueItem(id string, overdueDays float64, ease float64) *domain.ReviewableItem {
	last := testNow.Add(-time.Duration((overdueDays + 6) * 24 * float64(time.Hour)))
	return &domain.ReviewableItem{
		Identifier:     id,
		UserID:         f.userID,
		ContentType:    "note",
		IntervalDays:   6,
		EaseFactor:     ease,
		Repetitions:    2,
		LastReviewedAt: last,
		NextReviewAt:   last.Add(6 * 24 * time.Hour),
		Enabled:        true,
		Version:        3,
	}
}
