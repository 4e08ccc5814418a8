package sqlstore

import (
	"context"
	"log/slog"
	"slices"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/curator-srs/internal/domain"
	"github.com/phrazzld/curator-srs/internal/platform/logger"
	"github.com/phrazzld/curator-srs/internal/store"
)

// metadataBatchSize bounds the identifiers bound into one IN clause. It stays
// well below the parameter limits of both PostgreSQL and SQLite.
const metadataBatchSize = 500

// MetadataProvider serves content metadata from the review_items table:
// the content type recorded when spaced repetition was enabled and the
// current enabled flag.
//
// It stands in for an external content service. The items table only knows
// what was recorded at enable time, so deployments that own their content
// elsewhere should supply their own store.MetadataProvider.
type MetadataProvider struct {
	db        *sqlx.DB
	logger    *slog.Logger
	batchSize int
}

// NewMetadataProvider creates a table-backed metadata provider.
func NewMetadataProvider(db *sqlx.DB, logger *slog.Logger) *MetadataProvider {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MetadataProvider{
		db:        db,
		logger:    logger.With(slog.String("component", "metadata_provider")),
		batchSize: metadataBatchSize,
	}
}

var _ store.MetadataProvider = (*MetadataProvider)(nil)

type metadataRow struct {
	Identifier  string `db:"identifier"`
	ContentType string `db:"content_type"`
	Enabled     bool   `db:"enabled"`
}

// ContentMetadata implements store.MetadataProvider. Identifiers are looked
// up in batches; unknown identifiers are absent from the result.
func (p *MetadataProvider) ContentMetadata(
	ctx context.Context,
	identifiers []string,
) (map[string]domain.ContentMetadata, error) {
	out := make(map[string]domain.ContentMetadata, len(identifiers))
	for batch := range slices.Chunk(identifiers, p.batchSize) {
		if err := p.loadBatch(ctx, batch, out); err != nil {
			logger.FromContextOrDefault(ctx, p.logger).Error("failed to load content metadata",
				slog.Int("count", len(identifiers)),
				slog.Int("batch", len(batch)),
				slog.String("error", err.Error()))
			return nil, err
		}
	}
	return out, nil
}

func (p *MetadataProvider) loadBatch(ctx context.Context, batch []string, out map[string]domain.ContentMetadata) error {
	query, args, err := sqlx.In(
		"SELECT identifier, content_type, enabled FROM review_items WHERE identifier IN (?)",
		batch,
	)
	if err != nil {
		return store.NewStoreError(itemEntity, "metadata", "failed to build query", err)
	}

	var rows []metadataRow
	if err := p.db.SelectContext(ctx, &rows, p.db.Rebind(query), args...); err != nil {
		return store.NewStoreError(itemEntity, "metadata", "query failed", MapError(err))
	}

	for _, r := range rows {
		out[r.Identifier] = domain.ContentMetadata{
			ContentType: r.ContentType,
			Enabled:     r.Enabled,
		}
	}
	return nil
}
