package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/curator-srs/internal/api/shared"
	"github.com/phrazzld/curator-srs/internal/domain"
	"github.com/phrazzld/curator-srs/internal/domain/ranking"
	"github.com/phrazzld/curator-srs/internal/redact"
)

// maxIdentifierLength bounds item identifiers accepted from paths and bodies.
const maxIdentifierLength = 512

var errInvalidParam = errors.New("invalid parameter")

// requireUserID extracts the caller's user ID placed in the context by
// middleware.UserIdentity. It writes a 401 response and returns false when
// the ID is missing.
func requireUserID(w http.ResponseWriter, r *http.Request, log *slog.Logger) (uuid.UUID, bool) {
	userID, ok := shared.GetUserID(r.Context())
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return uuid.Nil, false
	}
	return userID, true
}

// pathItemID returns the {id} path parameter as an item identifier.
func pathItemID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if id == "" || len(id) > maxIdentifierLength {
		return "", domain.NewValidationError("identifier", id, errInvalidParam)
	}
	return id, nil
}

// pathSessionID parses the {id} path parameter as a session UUID.
func pathSessionID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.NewValidationError("session_id", raw, errInvalidParam)
	}
	return id, nil
}

// parseQueueOptions overrides the configured ranking defaults with query
// parameters: limit, new_limit, order, ahead_of_schedule and seed.
func parseQueueOptions(r *http.Request, defaults ranking.Config) (ranking.Config, error) {
	cfg := defaults
	q := r.URL.Query()

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, domain.NewValidationError("limit", v, errInvalidParam)
		}
		cfg.DailyReviewLimit = n
	}
	if v := q.Get("new_limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, domain.NewValidationError("new_limit", v, errInvalidParam)
		}
		cfg.NewItemsPerDay = n
	}
	if v := q.Get("order"); v != "" {
		cfg.Order = ranking.Order(v)
	}
	if v := q.Get("ahead_of_schedule"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, domain.NewValidationError("ahead_of_schedule", v, errInvalidParam)
		}
		cfg.AheadOfSchedule = b
	}
	if v := q.Get("seed"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, domain.NewValidationError("seed", v, errInvalidParam)
		}
		cfg.Seed = n
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// decodeRequest decodes and validates a JSON body. It writes a 400 response
// and returns false on failure.
func decodeRequest(w http.ResponseWriter, r *http.Request, v any, log *slog.Logger) bool {
	if err := shared.DecodeJSON(r, v); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return false
	}

	if err := shared.ValidateRequest(v); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return false
	}
	return true
}

// respondServiceError maps a service error to a response. fallback replaces
// the generic message for unexpected server errors.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		message = fallback
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
