// pkg/db/postgres.go
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// Dialect identifies the SQL backend behind a *sqlx.DB.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite3"
)

// Config holds database connection configuration.
type Config struct {
	Driver   Dialect
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	Path     string // SQLite database file
}

// Open connects to the backend selected by cfg.Driver.
func Open(cfg Config) (*sqlx.DB, error) {
	switch cfg.Driver {
	case DialectPostgres, "":
		return NewPostgresDB(cfg)
	case DialectSQLite:
		return NewSQLiteDB(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// NewPostgresDB initializes and returns a new PostgreSQL database connection.
// It uses sqlx for enhanced database operations.
func NewPostgresDB(cfg Config) (*sqlx.DB, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := sqlx.Connect("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	return db, nil
}

// LockClause is appended to a SELECT to take row locks for the rest of the transaction.
// SQLite has no row locks; its transactions begin IMMEDIATE instead, which admits a single writer.
func LockClause(d Dialect) string {
	if d == DialectSQLite {
		return ""
	}
	return " FOR UPDATE"
}
