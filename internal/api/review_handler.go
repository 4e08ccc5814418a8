package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/curator-srs/internal/api/shared"
	"github.com/phrazzld/curator-srs/internal/domain"
	"github.com/phrazzld/curator-srs/internal/domain/ranking"
	"github.com/phrazzld/curator-srs/internal/platform/logger"
	"github.com/phrazzld/curator-srs/internal/service/review_session"
)

// ReviewHandler serves the stateless queue and submission endpoints.
type ReviewHandler struct {
	service  review_session.Service
	defaults ranking.Config
	now      func() time.Time
	logger   *slog.Logger
}

// NewReviewHandler creates a new ReviewHandler. defaults are the ranking
// settings used when a request does not override them.
func NewReviewHandler(
	service review_session.Service,
	defaults ranking.Config,
	logger *slog.Logger,
) *ReviewHandler {
	if service == nil {
		panic("service cannot be nil for ReviewHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ReviewHandler{
		service:  service,
		defaults: defaults,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "review_handler")),
	}
}

// GetReviewQueue handles GET /api/review-queue requests.
// It returns the caller's ranked queue of due items.
func (h *ReviewHandler) GetReviewQueue(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	cfg, err := parseQueueOptions(r, h.defaults)
	if err != nil {
		respondServiceError(w, r, err, "")
		return
	}

	queue, err := h.service.GetReviewQueue(r.Context(), userID, cfg)
	if err != nil {
		respondServiceError(w, r, err, "Failed to build review queue")
		return
	}

	log.Debug("review queue served", slog.Int("count", len(queue)))
	shared.RespondWithJSON(w, r, http.StatusOK, ReviewQueueResponse{
		Items:       queue,
		Count:       len(queue),
		GeneratedAt: h.now().UTC(),
	})
}

// SubmitReview handles POST /api/review requests.
// It schedules the item's next review from the submitted quality.
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req SubmitReviewRequest
	if !decodeRequest(w, r, &req, log) {
		return
	}

	item, err := h.service.SubmitReview(
		r.Context(),
		userID,
		req.Identifier,
		domain.Quality(*req.Quality),
		time.Duration(req.TimeSpentMS)*time.Millisecond,
	)
	if err != nil {
		respondServiceError(w, r, err, "Failed to submit review")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, itemToResponse(item))
}
