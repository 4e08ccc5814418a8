package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/curator-srs/internal/api"
	"github.com/phrazzld/curator-srs/internal/config"
	"github.com/phrazzld/curator-srs/internal/domain/ranking"
	"github.com/phrazzld/curator-srs/internal/domain/srs"
	"github.com/phrazzld/curator-srs/internal/events"
	"github.com/phrazzld/curator-srs/internal/platform/clock"
	"github.com/phrazzld/curator-srs/internal/platform/logger"
	"github.com/phrazzld/curator-srs/internal/platform/sqlstore"
	"github.com/phrazzld/curator-srs/internal/service/review_session"
	"github.com/phrazzld/curator-srs/internal/store"
)

// application holds the shared dependencies of the serve and queue commands
// and owns their cleanup.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sqlx.DB
	clock  clock.Clock

	itemStore     store.ItemStore
	metadata      store.MetadataProvider
	srsService    srs.Service
	ranker        *ranking.Ranker
	weights       *ranking.WeightTable
	eventEmitter  *events.InMemoryEventEmitter
	eventSink     *events.AsyncHandler
	reviewService review_session.Service
	registry      *review_session.Registry
}

// newApplication wires the stores, scheduler, ranker and review service on
// top of an open database connection.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sqlx.DB, clk clock.Clock) *application {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
		clock:  clk,
	}

	app.itemStore = sqlstore.NewItemStore(db, logger)
	app.metadata = sqlstore.NewMetadataProvider(db, logger)

	app.srsService = srs.NewServiceWithParams(cfg.Scheduler.Params())
	app.ranker = ranking.NewRanker(app.srsService.Curve())
	app.weights = cfg.Ranking.WeightTable()

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventSink = events.NewAsyncHandler(events.NewLoggingHandler(logger), events.AsyncConfig{
		WorkerCount: cfg.Events.Workers,
		QueueSize:   cfg.Events.QueueSize,
	}, logger)
	app.eventEmitter.RegisterHandlerFor(app.eventSink, cfg.Events.Types...)

	app.reviewService = review_session.NewService(review_session.Dependencies{
		Items:     app.itemStore,
		Metadata:  app.metadata,
		Scheduler: app.srsService,
		Ranker:    app.ranker,
		Weights:   app.weights,
		Clock:     clk,
		Emitter:   app.eventEmitter,
		Logger:    logger,
	})
	app.registry = review_session.NewRegistry()

	logger.Info("Application initialized successfully")
	return app
}

// setupRouter builds the HTTP handler for the API.
func (app *application) setupRouter() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Service:  app.reviewService,
		Registry: app.registry,
		Defaults: app.config.Ranking.Config,
		Ping:     app.db.PingContext,
		Logger:   app.logger,
	})
}

// bootstrap loads configuration, sets up logging and opens the database.
// The caller must call cleanup on the returned application.
func bootstrap(ctx context.Context) (*application, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	db, err := setupAppDatabase(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	return newApplication(cfg, log, db, clock.System{}), nil
}

// cleanup releases application resources.
func (app *application) cleanup() {
	if app.eventSink != nil {
		app.eventSink.Close()
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}
	app.logger.Debug("Application shutdown completed")
}
