package testutils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/curator-srs/internal/config"
	"github.com/phrazzld/curator-srs/internal/platform/sqlstore"
	"github.com/stretchr/testify/require"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// SQLiteDSN returns a DSN for a fresh database file in a test temp dir.
func SQLiteDSN(t *testing.T) string {
	t.Helper()
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)",
		filepath.Join(t.TempDir(), "curator_test.db"))
}

// OpenSQLiteDB opens a migrated SQLite database that is closed when the
// test finishes.
func OpenSQLiteDB(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()

	db, err := sqlstore.Open(ctx, config.DatabaseConfig{
		Driver: sqlstore.DriverSQLite,
		URL:    SQLiteDSN(t),
	})
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() { _ = db.Close() })

	migrator, err := sqlstore.NewMigrator(db, DiscardLogger())
	require.NoError(t, err, "failed to create migrator")
	require.NoError(t, migrator.Up(ctx), "failed to migrate test database")

	return db
}
