package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/curator-srs/internal/config"
	"github.com/phrazzld/curator-srs/internal/platform/sqlstore"
)

// setupAppDatabase opens the configured database and verifies the connection.
func setupAppDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sqlx.DB, error) {
	db, err := sqlstore.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to set up database: %w", err)
	}

	logger.Info("Database connection established", slog.String("driver", cfg.Database.Driver))
	return db, nil
}

// migrateToLatest applies all pending migrations.
func migrateToLatest(ctx context.Context, db *sqlx.DB, logger *slog.Logger) error {
	migrator, err := sqlstore.NewMigrator(db, logger)
	if err != nil {
		return err
	}
	return migrator.Up(ctx)
}
