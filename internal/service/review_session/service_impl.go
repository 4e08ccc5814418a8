package review_session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/curator-srs/internal/domain"
	"github.com/phrazzld/curator-srs/internal/domain/ranking"
	"github.com/phrazzld/curator-srs/internal/domain/srs"
	"github.com/phrazzld/curator-srs/internal/events"
	"github.com/phrazzld/curator-srs/internal/platform/clock"
	"github.com/phrazzld/curator-srs/internal/platform/logger"
	"github.com/phrazzld/curator-srs/internal/store"
)

// Dependencies are the collaborators of the review session service.
// Items, Scheduler and Ranker are required; the rest have defaults.
type Dependencies struct {
	Items     store.ItemStore
	Metadata  store.MetadataProvider
	Scheduler srs.Service
	Ranker    Ranker
	Weights   *ranking.WeightTable
	Clock     clock.Clock
	Emitter   events.EventEmitter
	Logger    *slog.Logger
}

// Verify interface compliance at compile time
var _ Service = (*serviceImpl)(nil)

// serviceImpl implements the Service interface.
type serviceImpl struct {
	items     store.ItemStore
	metadata  store.MetadataProvider
	scheduler srs.Service
	ranker    Ranker
	weights   *ranking.WeightTable
	clock     clock.Clock
	emitter   events.EventEmitter
	logger    *slog.Logger
}

// NewService creates a new review session Service.
func NewService(deps Dependencies) Service {
	return newServiceImpl(deps)
}

func newServiceImpl(deps Dependencies) *serviceImpl {
	if deps.Items == nil {
		panic("items cannot be nil")
	}
	if deps.Scheduler == nil {
		panic("scheduler cannot be nil")
	}
	if deps.Ranker == nil {
		panic("ranker cannot be nil")
	}

	if deps.Weights == nil {
		deps.Weights = ranking.NewWeightTable(nil, 0)
	}
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	return &serviceImpl{
		items:     deps.Items,
		metadata:  deps.Metadata,
		scheduler: deps.Scheduler,
		ranker:    deps.Ranker,
		weights:   deps.Weights,
		clock:     deps.Clock,
		emitter:   deps.Emitter,
		logger:    deps.Logger.With(slog.String("component", "review_session_service")),
	}
}

// NewSession implements Service.NewSession.
func (s *serviceImpl) NewSession(userID uuid.UUID) *Session {
	return newSession(s, userID)
}

// GetReviewQueue implements Service.GetReviewQueue.
func (s *serviceImpl) GetReviewQueue(
	ctx context.Context,
	userID uuid.UUID,
	cfg ranking.Config,
) ([]ranking.Entry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	candidates, err := s.candidates(ctx, userID)
	if err != nil {
		log.Error("failed to load review candidates",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, NewReviewQueueError("failed to load candidates", err)
	}

	now := s.clock.Now()
	cfg.Usage = ranking.DailyUsage(candidates, now)

	queue, err := s.ranker.Rank(candidates, now, cfg)
	if err != nil {
		return nil, err
	}

	log.Debug("review queue ranked",
		slog.String("user_id", userID.String()),
		slog.Int("candidates", len(candidates)),
		slog.Int("reviewed_today", cfg.Usage.ReviewedToday),
		slog.Int("introduced_today", cfg.Usage.IntroducedToday),
		slog.Int("queued", len(queue)))
	return queue, nil
}

// candidates loads the user's items and overlays content metadata: the
// content type drives the priority weight and a disabled flag from the
// content layer removes the item from ranking.
func (s *serviceImpl) candidates(ctx context.Context, userID uuid.UUID) ([]*domain.ReviewableItem, error) {
	items, err := s.items.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	meta := map[string]domain.ContentMetadata{}
	if s.metadata != nil && len(items) > 0 {
		ids := make([]string, len(items))
		for i, item := range items {
			ids[i] = item.Identifier
		}
		if meta, err = s.metadata.ContentMetadata(ctx, ids); err != nil {
			return nil, err
		}
	}

	for _, item := range items {
		s.applyMetadata(item, meta)
	}
	return items, nil
}

func (s *serviceImpl) applyMetadata(item *domain.ReviewableItem, meta map[string]domain.ContentMetadata) {
	m, ok := meta[item.Identifier]
	if !ok {
		item.ContentTypePriority = s.weights.Weight(item.ContentType)
		return
	}
	s.weights.Apply(item, m)
	if !m.Enabled {
		item.Enabled = false
	}
}

// SubmitReview implements Service.SubmitReview.
func (s *serviceImpl) SubmitReview(
	ctx context.Context,
	userID uuid.UUID,
	itemID string,
	quality domain.Quality,
	timeSpent time.Duration,
) (*domain.ReviewableItem, error) {
	return s.submit(ctx, uuid.Nil, userID, itemID, quality, timeSpent)
}

// submit validates, schedules and persists one review. sessionID is uuid.Nil
// for reviews outside a session.
func (s *serviceImpl) submit(
	ctx context.Context,
	sessionID uuid.UUID,
	userID uuid.UUID,
	itemID string,
	quality domain.Quality,
	timeSpent time.Duration,
) (*domain.ReviewableItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("user_id", userID.String()),
		slog.String("identifier", itemID))

	if err := domain.ValidateQuality(quality); err != nil {
		log.Warn("invalid review quality", slog.Int("quality", int(quality)))
		return nil, err
	}
	if timeSpent < 0 {
		return nil, domain.NewValidationError("time_spent", timeSpent, domain.ErrInvalidTimeSpent)
	}

	item, err := s.loadActiveItem(ctx, userID, itemID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, ErrItemNotOwned) {
			log.Warn("review rejected", slog.String("reason", err.Error()))
			return nil, err
		}
		log.Error("failed to load item for review", slog.String("error", err.Error()))
		return nil, NewSubmitReviewError("failed to load item", err)
	}

	now := s.clock.Now()
	next, err := s.scheduler.CalculateNextReview(item, srs.Review{
		Quality:    quality,
		ReviewedAt: now,
		TimeSpent:  timeSpent,
	})
	if err != nil {
		log.Error("failed to calculate next review", slog.String("error", err.Error()))
		return nil, err
	}

	if err := s.items.Save(ctx, next); err != nil {
		if store.IsConflictError(err) {
			log.Warn("review lost a concurrent update", slog.String("error", err.Error()))
			return nil, NewSubmitReviewError("item was modified concurrently, reload and retry", err)
		}
		log.Error("failed to save reviewed item", slog.String("error", err.Error()))
		return nil, NewSubmitReviewError("failed to save item", err)
	}

	log.Info("review recorded",
		slog.Int("quality", int(quality)),
		slog.Float64("interval_days", next.IntervalDays),
		slog.Time("next_review_at", next.NextReviewAt))

	s.emit(ctx, events.TypeReviewSubmitted, userID, events.ReviewSubmittedPayload{
		Identifier:   next.Identifier,
		SessionID:    sessionID,
		Quality:      int(quality),
		TimeSpentMS:  timeSpent.Milliseconds(),
		IntervalDays: next.IntervalDays,
		EaseFactor:   next.EaseFactor,
		Repetitions:  next.Repetitions,
		NextReviewAt: next.NextReviewAt,
	})

	return next, nil
}

// loadItem loads an item and checks ownership.
func (s *serviceImpl) loadItem(ctx context.Context, userID uuid.UUID, itemID string) (*domain.ReviewableItem, error) {
	item, err := s.items.Load(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.UserID != userID {
		return nil, ErrItemNotOwned
	}
	return item, nil
}

// loadActiveItem loads an owned item whose spaced repetition is enabled both
// in the store and in the content layer.
func (s *serviceImpl) loadActiveItem(ctx context.Context, userID uuid.UUID, itemID string) (*domain.ReviewableItem, error) {
	item, err := s.loadItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	if s.metadata != nil {
		meta, err := s.metadata.ContentMetadata(ctx, []string{itemID})
		if err != nil {
			return nil, err
		}
		s.applyMetadata(item, meta)
	}

	if !item.Enabled {
		return nil, ErrItemNotEnabled
	}
	return item, nil
}

// EnableItem implements Service.EnableItem.
func (s *serviceImpl) EnableItem(
	ctx context.Context,
	userID uuid.UUID,
	itemID string,
	contentType string,
) (*domain.ReviewableItem, error) {
	item, err := s.items.Enable(ctx, itemID, userID, contentType, s.clock.Now())
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrItemNotOwned
		}
		if domain.IsValidationError(err) {
			return nil, err
		}
		return nil, NewItemError("enable_item", "failed to enable item", err)
	}
	return item, nil
}

// DisableItem implements Service.DisableItem.
func (s *serviceImpl) DisableItem(ctx context.Context, userID uuid.UUID, itemID string) error {
	if _, err := s.loadItem(ctx, userID, itemID); err != nil {
		return passThroughOr("disable_item", "failed to load item", err)
	}
	if err := s.items.Disable(ctx, itemID, s.clock.Now()); err != nil {
		return passThroughOr("disable_item", "failed to disable item", err)
	}
	return nil
}

// PostponeItem implements Service.PostponeItem.
func (s *serviceImpl) PostponeItem(
	ctx context.Context,
	userID uuid.UUID,
	itemID string,
	days int,
) (*domain.ReviewableItem, error) {
	item, err := s.loadActiveItem(ctx, userID, itemID)
	if err != nil {
		return nil, passThroughOr("postpone_item", "failed to load item", err)
	}

	postponed, err := s.scheduler.PostponeReview(item, days, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.items.Save(ctx, postponed); err != nil {
		return nil, NewItemError("postpone_item", "failed to save item", err)
	}
	return postponed, nil
}

// ItemStatus implements Service.ItemStatus.
func (s *serviceImpl) ItemStatus(
	ctx context.Context,
	userID uuid.UUID,
	itemID string,
	targetRetention float64,
) (*ItemStatus, error) {
	item, err := s.loadItem(ctx, userID, itemID)
	if err != nil {
		return nil, passThroughOr("item_status", "failed to load item", err)
	}

	curve := s.scheduler.Curve()
	status := &ItemStatus{
		Item:            item,
		Retention:       curve.ItemRetention(item, s.clock.Now()),
		Stability:       curve.ItemStability(item),
		TargetRetention: targetRetention,
	}
	if !item.NeverReviewed() {
		status.DaysUntilTarget = curve.DaysUntil(status.Stability, targetRetention)
	}
	return status, nil
}

// passThroughOr returns well-known errors unchanged and wraps everything else.
func passThroughOr(operation, message string, err error) error {
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, ErrItemNotOwned) {
		return err
	}
	return NewItemError(operation, message, err)
}

// emit publishes an event. Delivery failures are logged and never fail the
// operation that produced the event.
func (s *serviceImpl) emit(ctx context.Context, eventType string, userID uuid.UUID, payload any) {
	if s.emitter == nil {
		return
	}

	log := logger.FromContextOrDefault(ctx, s.logger)
	event, err := events.NewEvent(eventType, userID, payload, s.clock.Now())
	if err != nil {
		log.Error("failed to build event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
		return
	}

	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("failed to emit event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
	}
}
