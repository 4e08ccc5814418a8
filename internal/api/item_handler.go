package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/phrazzld/curator-srs/internal/api/shared"
	"github.com/phrazzld/curator-srs/internal/domain"
	"github.com/phrazzld/curator-srs/internal/platform/logger"
	"github.com/phrazzld/curator-srs/internal/service/review_session"
)

// DefaultTargetRetention is the retention target reported by GetItem when
// the request does not name one.
const DefaultTargetRetention = 0.9

var errInvalidTarget = errors.New("target retention must be between 0 and 1")

// ItemHandler serves the item lifecycle endpoints.
type ItemHandler struct {
	service review_session.Service
	logger  *slog.Logger
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(service review_session.Service, logger *slog.Logger) *ItemHandler {
	if service == nil {
		panic("service cannot be nil for ItemHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ItemHandler{
		service: service,
		logger:  logger.With(slog.String("component", "item_handler")),
	}
}

// EnableItem handles POST /api/items/{id}/enable requests.
// The body is optional and may carry the item's content type.
func (h *ItemHandler) EnableItem(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, itemID, ok := h.itemRequest(w, r, log)
	if !ok {
		return
	}

	var req EnableItemRequest
	if r.ContentLength != 0 {
		if !decodeRequest(w, r, &req, log) {
			return
		}
	}

	item, err := h.service.EnableItem(r.Context(), userID, itemID, req.ContentType)
	if err != nil {
		respondServiceError(w, r, err, "Failed to enable item")
		return
	}

	log.Info("spaced repetition enabled", slog.String("identifier", itemID))
	shared.RespondWithJSON(w, r, http.StatusOK, itemToResponse(item))
}

// DisableItem handles POST /api/items/{id}/disable requests.
func (h *ItemHandler) DisableItem(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, itemID, ok := h.itemRequest(w, r, log)
	if !ok {
		return
	}

	if err := h.service.DisableItem(r.Context(), userID, itemID); err != nil {
		respondServiceError(w, r, err, "Failed to disable item")
		return
	}

	log.Info("spaced repetition disabled", slog.String("identifier", itemID))
	w.WriteHeader(http.StatusNoContent)
}

// PostponeItem handles POST /api/items/{id}/postpone requests.
func (h *ItemHandler) PostponeItem(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, itemID, ok := h.itemRequest(w, r, log)
	if !ok {
		return
	}

	var req PostponeItemRequest
	if !decodeRequest(w, r, &req, log) {
		return
	}

	item, err := h.service.PostponeItem(r.Context(), userID, itemID, req.Days)
	if err != nil {
		respondServiceError(w, r, err, "Failed to postpone item")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, itemToResponse(item))
}

// GetItem handles GET /api/items/{id} requests. The optional target query
// parameter sets the retention target for days_until_target.
func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, itemID, ok := h.itemRequest(w, r, log)
	if !ok {
		return
	}

	target := DefaultTargetRetention
	if v := r.URL.Query().Get("target"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed <= 0 || parsed >= 1 {
			respondServiceError(w, r, domain.NewValidationError("target", v, errInvalidTarget), "")
			return
		}
		target = parsed
	}

	status, err := h.service.ItemStatus(r.Context(), userID, itemID, target)
	if err != nil {
		respondServiceError(w, r, err, "Failed to load item")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ItemStatusResponse{
		ItemResponse:    itemToResponse(status.Item),
		Retention:       status.Retention,
		Stability:       status.Stability,
		TargetRetention: status.TargetRetention,
		DaysUntilTarget: status.DaysUntilTarget,
	})
}

func (h *ItemHandler) itemRequest(
	w http.ResponseWriter,
	r *http.Request,
	log *slog.Logger,
) (uuid.UUID, string, bool) {
	userID, ok := requireUserID(w, r, log)
	if !ok {
		return uuid.Nil, "", false
	}

	itemID, err := pathItemID(r)
	if err != nil {
		respondServiceError(w, r, err, "")
		return uuid.Nil, "", false
	}
	return userID, itemID, true
}
