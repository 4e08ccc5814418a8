package events

import (
	"context"
	"log/slog"

	"github.com/phrazzld/curator-srs/internal/platform/logger"
)

// LoggingHandler writes every event to the structured log. It is the default
// sink when no external consumer is configured.
type LoggingHandler struct {
	logger *slog.Logger
}

// NewLoggingHandler creates a LoggingHandler.
func NewLoggingHandler(log *slog.Logger) *LoggingHandler {
	if log == nil {
		log = slog.Default()
	}
	return &LoggingHandler{logger: log.With(slog.String("component", "event_log"))}
}

// HandleEvent implements EventHandler.
func (h *LoggingHandler) HandleEvent(ctx context.Context, event *Event) error {
	logger.FromContextOrDefault(ctx, h.logger).Info("event",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type),
		slog.String("user_id", event.UserID.String()),
		slog.String("payload", string(event.Payload)))
	return nil
}
