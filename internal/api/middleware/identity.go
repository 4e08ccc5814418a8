package middleware

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/curator-srs/internal/api/shared"
	"github.com/phrazzld/curator-srs/internal/platform/logger"
)

// UserIDHeader is set by the upstream gateway after it has authenticated
// the caller.
const UserIDHeader = "X-User-ID"

// UserIdentity copies the caller's user ID from UserIDHeader into the request
// context. Requests without a valid UUID are rejected with 401.
func UserIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(UserIDHeader)
		if raw == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "User identity header required")
			return
		}

		userID, err := uuid.Parse(raw)
		if err != nil || userID == uuid.Nil {
			logger.FromContextOrDefault(r.Context(), slog.Default()).
				Debug("rejected malformed user identity", slog.String("header", UserIDHeader))
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid user identity")
			return
		}

		ctx := shared.WithUserID(r.Context(), userID)
		ctx = logger.WithLogger(ctx, logger.FromContextOrDefault(ctx, slog.Default()).
			With(slog.String("user_id", userID.String())))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
