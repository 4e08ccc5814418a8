package testutils

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/curator-srs/internal/domain/ranking"
	"github.com/phrazzld/curator-srs/internal/domain/srs"
	"github.com/phrazzld/curator-srs/internal/events"
	"github.com/phrazzld/curator-srs/internal/platform/clock"
	"github.com/phrazzld/curator-srs/internal/platform/sqlstore"
	"github.com/phrazzld/curator-srs/internal/service/review_session"
)

// NewReviewService wires a review session service to the SQL store in db
// with the default scheduler, the default ranker and the given clock.
// Extra event handlers receive every emitted event.
func NewReviewService(
	t *testing.T,
	db *sqlx.DB,
	clk clock.Clock,
	handlers ...events.EventHandler,
) review_session.Service {
	t.Helper()

	log := DiscardLogger()
	emitter := events.NewInMemoryEventEmitter(log)
	for _, h := range handlers {
		emitter.RegisterHandler(h)
	}

	scheduler := srs.NewDefaultService()
	return review_session.NewService(review_session.Dependencies{
		Items:     sqlstore.NewItemStore(db, log),
		Metadata:  sqlstore.NewMetadataProvider(db, log),
		Scheduler: scheduler,
		Ranker:    ranking.NewRanker(scheduler.Curve()),
		Clock:     clk,
		Emitter:   emitter,
		Logger:    log,
	})
}
