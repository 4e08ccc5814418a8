package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	apiMiddleware "github.com/phrazzld/curator-srs/internal/api/middleware"
	"github.com/phrazzld/curator-srs/internal/domain/ranking"
	"github.com/phrazzld/curator-srs/internal/redact"
	"github.com/phrazzld/curator-srs/internal/service/review_session"
)

// RouterConfig holds what the HTTP surface needs.
type RouterConfig struct {
	Service  review_session.Service
	Registry *review_session.Registry

	// Defaults are the ranking settings applied when a request has no overrides.
	Defaults ranking.Config

	// Ping reports backend health for /health; nil means always healthy.
	Ping func(ctx context.Context) error

	Logger *slog.Logger
}

// NewRouter creates the application router with all routes and middleware.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	reviewHandler := NewReviewHandler(cfg.Service, cfg.Defaults, cfg.Logger)
	sessionHandler := NewSessionHandler(cfg.Service, cfg.Registry, cfg.Defaults, cfg.Logger)
	itemHandler := NewItemHandler(cfg.Service, cfg.Logger)

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(cfg.Logger))

	r.Route("/api", func(r chi.Router) {
		r.Use(apiMiddleware.UserIdentity)

		// Stateless queue and submission
		r.Get("/review-queue", reviewHandler.GetReviewQueue)
		r.Post("/review", reviewHandler.SubmitReview)

		// Review sessions
		r.Post("/sessions", sessionHandler.StartSession)
		r.Get("/sessions/{id}", sessionHandler.GetSession)
		r.Post("/sessions/{id}/reviews", sessionHandler.SubmitReview)
		r.Post("/sessions/{id}/end", sessionHandler.EndSession)
		r.Delete("/sessions/{id}", sessionHandler.AbandonSession)

		// Item lifecycle
		r.Get("/items/{id}", itemHandler.GetItem)
		r.Post("/items/{id}/enable", itemHandler.EnableItem)
		r.Post("/items/{id}/disable", itemHandler.DisableItem)
		r.Post("/items/{id}/postpone", itemHandler.PostponeItem)
	})

	r.Get("/health", healthHandler(cfg.Ping, cfg.Logger))

	return r
}

func healthHandler(ping func(ctx context.Context) error, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				logger.Warn("health check failed", slog.String("error", redact.Error(err)))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("UNAVAILABLE"))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("Failed to write health check response", "error", err)
		}
	}
}
