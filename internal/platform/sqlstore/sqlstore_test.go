package sqlstore

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/curator-srs/internal/config"
	"github.com/stretchr/testify/require"
)

// openTestDB opens a migrated SQLite database in a temporary directory.
// A file rather than :memory: keeps every pooled connection on the same data.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)",
		filepath.Join(t.TempDir(), "curator_test.db"))

	db, err := Open(context.Background(), config.DatabaseConfig{
		Driver: DriverSQLite,
		URL:    dsn,
	})
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() { _ = db.Close() })

	migrator, err := NewMigrator(db, nil)
	require.NoError(t, err, "failed to create migrator")
	require.NoError(t, migrator.Up(context.Background()), "failed to migrate test database")

	return db
}
