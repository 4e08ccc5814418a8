package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/curator-srs/internal/domain"
	"github.com/phrazzld/curator-srs/internal/platform/logger"
	"github.com/phrazzld/curator-srs/internal/store"
)

const itemEntity = "review_item"

const selectItemColumns = `SELECT identifier, user_id, content_type, enabled, interval_days, ease_factor,
	repetitions, last_reviewed_at, next_review_at, review_history, version, created_at, updated_at
	FROM review_items`

// itemRow is the database shape of a review item.
type itemRow struct {
	Identifier     string       `db:"identifier"`
	UserID         string       `db:"user_id"`
	ContentType    string       `db:"content_type"`
	Enabled        bool         `db:"enabled"`
	IntervalDays   float64      `db:"interval_days"`
	EaseFactor     float64      `db:"ease_factor"`
	Repetitions    int          `db:"repetitions"`
	LastReviewedAt sql.NullTime `db:"last_reviewed_at"`
	NextReviewAt   time.Time    `db:"next_review_at"`
	ReviewHistory  string       `db:"review_history"`
	Version        int64        `db:"version"`
	CreatedAt      time.Time    `db:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at"`
}

// historyEvent is the persisted form of a domain.ReviewEvent.
type historyEvent struct {
	Quality     int       `json:"quality"`
	ReviewedAt  time.Time `json:"reviewed_at"`
	TimeSpentMS int64     `json:"time_spent_ms"`
}

func (r *itemRow) toDomain() (*domain.ReviewableItem, error) {
	userID, err := uuid.Parse(r.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user_id %q: %w", r.UserID, err)
	}

	var events []historyEvent
	if r.ReviewHistory != "" {
		if err := json.Unmarshal([]byte(r.ReviewHistory), &events); err != nil {
			return nil, fmt.Errorf("invalid review_history: %w", err)
		}
	}

	history := make([]domain.ReviewEvent, 0, len(events))
	for _, e := range events {
		history = append(history, domain.ReviewEvent{
			Quality:    domain.Quality(e.Quality),
			ReviewedAt: e.ReviewedAt.UTC(),
			TimeSpent:  time.Duration(e.TimeSpentMS) * time.Millisecond,
		})
	}

	item := &domain.ReviewableItem{
		Identifier:    r.Identifier,
		UserID:        userID,
		ContentType:   r.ContentType,
		IntervalDays:  r.IntervalDays,
		EaseFactor:    r.EaseFactor,
		Repetitions:   r.Repetitions,
		NextReviewAt:  r.NextReviewAt.UTC(),
		ReviewHistory: history,
		Enabled:       r.Enabled,
		Version:       r.Version,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
	if r.LastReviewedAt.Valid {
		item.LastReviewedAt = r.LastReviewedAt.Time.UTC()
	}
	return item, nil
}

func encodeHistory(history []domain.ReviewEvent) (string, error) {
	events := make([]historyEvent, 0, len(history))
	for _, e := range history {
		events = append(events, historyEvent{
			Quality:     int(e.Quality),
			ReviewedAt:  e.ReviewedAt.UTC(),
			TimeSpentMS: e.TimeSpent.Milliseconds(),
		})
	}
	raw, err := json.Marshal(events)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// ItemStore implements store.ItemStore using a SQL database.
type ItemStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewItemStore creates a SQL-backed item store.
// If logger is nil, a default logger will be used.
func NewItemStore(db *sqlx.DB, logger *slog.Logger) *ItemStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &ItemStore{
		db:     db,
		logger: logger.With(slog.String("component", "item_store")),
	}
}

// Ensure ItemStore implements store.ItemStore interface
var _ store.ItemStore = (*ItemStore)(nil)

// Load implements store.ItemStore.Load
func (s *ItemStore) Load(ctx context.Context, identifier string) (*domain.ReviewableItem, error) {
	return s.load(ctx, s.db, identifier)
}

func (s *ItemStore) load(ctx context.Context, db store.DBTX, identifier string) (*domain.ReviewableItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var row itemRow
	err := db.GetContext(ctx, &row, db.Rebind(selectItemColumns+" WHERE identifier = ?"), identifier)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("review item not found", slog.String("identifier", identifier))
			return nil, store.ErrItemNotFound
		}
		log.Error("failed to load review item",
			slog.String("identifier", identifier),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError(itemEntity, "load", "query failed", MapError(err))
	}

	item, err := row.toDomain()
	if err != nil {
		return nil, store.NewStoreError(itemEntity, "load", "corrupt row", err)
	}
	return item, nil
}

// Save implements store.ItemStore.Save with an optimistic version check.
func (s *ItemStore) Save(ctx context.Context, item *domain.ReviewableItem) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := item.Validate(); err != nil {
		return store.NewStoreError(itemEntity, "save", "invalid item",
			errors.Join(store.ErrInvalidEntity, err))
	}

	history, err := encodeHistory(item.ReviewHistory)
	if err != nil {
		return store.NewStoreError(itemEntity, "save", "failed to encode history", err)
	}

	updatedAt := item.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	query := s.db.Rebind(`UPDATE review_items SET
		content_type = ?, enabled = ?, interval_days = ?, ease_factor = ?, repetitions = ?,
		last_reviewed_at = ?, next_review_at = ?, review_history = ?,
		version = version + 1, updated_at = ?
		WHERE identifier = ? AND version = ?`)

	result, err := s.db.ExecContext(ctx, query,
		item.ContentType, item.Enabled, item.IntervalDays, item.EaseFactor, item.Repetitions,
		nullTime(item.LastReviewedAt), item.NextReviewAt.UTC(), history,
		updatedAt,
		item.Identifier, item.Version,
	)
	if err != nil {
		log.Error("failed to save review item",
			slog.String("identifier", item.Identifier),
			slog.String("error", err.Error()))
		return store.NewStoreError(itemEntity, "save", "update failed", MapError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return store.NewStoreError(itemEntity, "save", "failed to read affected rows", err)
	}

	if affected == 0 {
		var current int64
		err := s.db.GetContext(ctx, &current,
			s.db.Rebind("SELECT version FROM review_items WHERE identifier = ?"), item.Identifier)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrItemNotFound
		}
		if err != nil {
			return store.NewStoreError(itemEntity, "save", "version lookup failed", MapError(err))
		}

		log.Warn("review item version conflict",
			slog.String("identifier", item.Identifier),
			slog.Int64("expected_version", item.Version),
			slog.Int64("current_version", current))
		return store.NewStoreError(itemEntity, "save",
			fmt.Sprintf("expected version %d, found %d", item.Version, current), store.ErrConflict)
	}

	item.Version++
	item.UpdatedAt = updatedAt

	log.Debug("review item saved",
		slog.String("identifier", item.Identifier),
		slog.Int64("version", item.Version))
	return nil
}

// ListByUser implements store.ItemStore.ListByUser
func (s *ItemStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.ReviewableItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var rows []itemRow
	err := s.db.SelectContext(ctx, &rows,
		s.db.Rebind(selectItemColumns+" WHERE user_id = ? ORDER BY identifier"), userID.String())
	if err != nil {
		log.Error("failed to list review items",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError(itemEntity, "list", "query failed", MapError(err))
	}

	items := make([]*domain.ReviewableItem, 0, len(rows))
	for i := range rows {
		item, err := rows[i].toDomain()
		if err != nil {
			return nil, store.NewStoreError(itemEntity, "list", "corrupt row", err)
		}
		items = append(items, item)
	}
	return items, nil
}

// Enable implements store.ItemStore.Enable
func (s *ItemStore) Enable(
	ctx context.Context,
	identifier string,
	userID uuid.UUID,
	contentType string,
	now time.Time,
) (*domain.ReviewableItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	fresh, err := domain.NewReviewableItem(identifier, userID, contentType, now)
	if err != nil {
		return nil, err
	}

	fresh.Version = 1

	var (
		enabled  *domain.ReviewableItem
		lostRace bool
	)
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		existing, err := s.load(ctx, tx, identifier)
		switch {
		case errors.Is(err, store.ErrItemNotFound):
			if err := insertItem(ctx, tx, fresh); err != nil {
				lostRace = IsUniqueViolation(err)
				return err
			}
			enabled = fresh
			return nil
		case err != nil:
			return err
		}

		if existing.UserID != userID {
			return store.NewStoreError(itemEntity, "enable", "owned by another user", store.ErrItemExists)
		}

		if !existing.Enabled {
			_, err := tx.ExecContext(ctx,
				tx.Rebind(`UPDATE review_items SET enabled = ?, version = version + 1, updated_at = ?
					WHERE identifier = ?`),
				true, now.UTC(), identifier)
			if err != nil {
				return store.NewStoreError(itemEntity, "enable", "update failed", MapError(err))
			}
			existing.Enabled = true
			existing.Version++
			existing.UpdatedAt = now.UTC()
		}
		enabled = existing
		return nil
	})
	if lostRace {
		// Another writer inserted the row between our read and insert.
		winner, loadErr := s.Load(ctx, identifier)
		if loadErr != nil {
			return nil, loadErr
		}
		if winner.UserID != userID {
			return nil, store.NewStoreError(itemEntity, "enable", "owned by another user", store.ErrItemExists)
		}
		return winner, nil
	}
	if err != nil {
		return nil, err
	}

	log.Info("spaced repetition enabled",
		slog.String("identifier", identifier),
		slog.String("user_id", userID.String()))
	return enabled, nil
}

func insertItem(ctx context.Context, tx *sqlx.Tx, item *domain.ReviewableItem) error {
	history, err := encodeHistory(item.ReviewHistory)
	if err != nil {
		return store.NewStoreError(itemEntity, "enable", "failed to encode history", err)
	}

	_, err = tx.ExecContext(ctx,
		tx.Rebind(`INSERT INTO review_items (identifier, user_id, content_type, enabled, interval_days,
			ease_factor, repetitions, last_reviewed_at, next_review_at, review_history, version,
			created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		item.Identifier, item.UserID.String(), item.ContentType, item.Enabled, item.IntervalDays,
		item.EaseFactor, item.Repetitions, nullTime(item.LastReviewedAt), item.NextReviewAt.UTC(),
		history, item.Version, item.CreatedAt.UTC(), item.UpdatedAt.UTC(),
	)
	if err != nil {
		return store.NewStoreError(itemEntity, "enable", "insert failed", MapError(err))
	}
	return nil
}

// Disable implements store.ItemStore.Disable
func (s *ItemStore) Disable(ctx context.Context, identifier string, now time.Time) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		s.db.Rebind(`UPDATE review_items SET enabled = ?, version = version + 1, updated_at = ?
			WHERE identifier = ?`),
		false, now.UTC(), identifier)
	if err != nil {
		return store.NewStoreError(itemEntity, "disable", "update failed", MapError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return store.NewStoreError(itemEntity, "disable", "failed to read affected rows", err)
	}
	if affected == 0 {
		return store.ErrItemNotFound
	}

	log.Info("spaced repetition disabled", slog.String("identifier", identifier))
	return nil
}
