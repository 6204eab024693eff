// pkg/db/sqlite.go
package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// NewSQLiteDB opens an on-disk SQLite database for local development and tests.
// Transactions begin IMMEDIATE so that a transaction reading balances already
// holds the write lock; the pool is limited to one connection.
func NewSQLiteDB(path string) (*sqlx.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite database path is required")
	}
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_busy_timeout=5000&_foreign_keys=on", path)

	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
