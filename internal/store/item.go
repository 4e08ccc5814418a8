package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/curator-srs/internal/domain"
)

// ItemStore defines the interface for review item persistence.
// Implementations must be safe for concurrent use.
type ItemStore interface {
	// Load retrieves the scheduling state for an identifier.
	// Returns ErrItemNotFound if spaced repetition was never enabled for it.
	Load(ctx context.Context, identifier string) (*domain.ReviewableItem, error)

	// Save persists the item if the stored version still equals item.Version,
	// then increments item.Version. Returns ErrConflict when another writer
	// saved first and ErrItemNotFound when the item does not exist.
	Save(ctx context.Context, item *domain.ReviewableItem) error

	// ListByUser returns every item owned by the user, enabled or not,
	// ordered by identifier.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.ReviewableItem, error)

	// Enable creates default scheduling state due at now, or re-enables an
	// existing item without resetting its progress. Returns the stored item.
	Enable(
		ctx context.Context,
		identifier string,
		userID uuid.UUID,
		contentType string,
		now time.Time,
	) (*domain.ReviewableItem, error)

	// Disable excludes the item from review queues. Its state is kept.
	// Returns ErrItemNotFound if the item does not exist.
	Disable(ctx context.Context, identifier string, now time.Time) error
}

// MetadataProvider supplies content-layer facts about items. Identifiers the
// provider does not know are absent from the result map.
type MetadataProvider interface {
	ContentMetadata(ctx context.Context, identifiers []string) (map[string]domain.ContentMetadata, error)
}
