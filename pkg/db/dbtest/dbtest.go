// Package dbtest provides migrated throwaway databases for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"bankcards/pkg/db"
)

// NewSQLite opens a migrated SQLite database in a temporary directory.
// The database is closed when the test finishes.
func NewSQLite(t testing.TB) *sqlx.DB {
	t.Helper()

	conn, err := db.NewSQLiteDB(filepath.Join(t.TempDir(), "bankcards.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, db.ApplyMigrations(context.Background(), conn, db.DialectSQLite))
	return conn
}
