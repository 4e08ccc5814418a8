package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/curator-srs/internal/api/shared"
	"github.com/phrazzld/curator-srs/internal/domain"
	"github.com/phrazzld/curator-srs/internal/domain/ranking"
	"github.com/phrazzld/curator-srs/internal/platform/logger"
	"github.com/phrazzld/curator-srs/internal/service/review_session"
)

// SessionHandler serves the review session endpoints. Live sessions are kept
// in a Registry until they are ended or abandoned.
type SessionHandler struct {
	service  review_session.Service
	registry *review_session.Registry
	defaults ranking.Config
	logger   *slog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(
	service review_session.Service,
	registry *review_session.Registry,
	defaults ranking.Config,
	logger *slog.Logger,
) *SessionHandler {
	if service == nil {
		panic("service cannot be nil for SessionHandler")
	}
	if registry == nil {
		registry = review_session.NewRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SessionHandler{
		service:  service,
		registry: registry,
		defaults: defaults,
		logger:   logger.With(slog.String("component", "session_handler")),
	}
}

// StartSession handles POST /api/sessions requests.
// Queue options are taken from the same query parameters as the review queue.
func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
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

	session := h.service.NewSession(userID)
	queue, err := session.Start(r.Context(), cfg)
	if err != nil {
		respondServiceError(w, r, err, "Failed to start session")
		return
	}
	h.registry.Add(session)

	log.Info("session started",
		slog.String("session_id", session.ID().String()),
		slog.Int("queue_size", len(queue)))
	shared.RespondWithJSON(w, r, http.StatusCreated, SessionResponse{
		SessionID: session.ID(),
		State:     session.State(),
		Queue:     queue,
		Summary:   session.Summary(),
	})
}

// GetSession handles GET /api/sessions/{id} requests.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, SessionResponse{
		SessionID: session.ID(),
		State:     session.State(),
		Queue:     session.Queue(),
		Summary:   session.Summary(),
	})
}

// SubmitReview handles POST /api/sessions/{id}/reviews requests.
func (h *SessionHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	session, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req SubmitReviewRequest
	if !decodeRequest(w, r, &req, log) {
		return
	}

	item, err := session.SubmitReview(
		r.Context(),
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

// EndSession handles POST /api/sessions/{id}/end requests.
// It completes the session and returns its summary.
func (h *SessionHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	h.finish(w, r, (*review_session.Session).End)
}

// AbandonSession handles DELETE /api/sessions/{id} requests.
func (h *SessionHandler) AbandonSession(w http.ResponseWriter, r *http.Request) {
	h.finish(w, r, (*review_session.Session).Abandon)
}

func (h *SessionHandler) finish(
	w http.ResponseWriter,
	r *http.Request,
	end func(*review_session.Session, context.Context) (review_session.Summary, error),
) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}

	summary, err := end(session, r.Context())
	if err != nil {
		respondServiceError(w, r, err, "Failed to end session")
		return
	}
	h.registry.Remove(session.ID())

	shared.RespondWithJSON(w, r, http.StatusOK, summary)
}

// lookup resolves the {id} session for the caller, writing an error
// response when it cannot.
func (h *SessionHandler) lookup(w http.ResponseWriter, r *http.Request) (*review_session.Session, bool) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return nil, false
	}

	sessionID, err := pathSessionID(r)
	if err != nil {
		respondServiceError(w, r, err, "")
		return nil, false
	}

	session, err := h.registry.Get(sessionID, userID)
	if err != nil {
		respondServiceError(w, r, err, "")
		return nil, false
	}
	return session, true
}
