// internal/repository/sqlstore/errors.go
package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// isUniqueViolation reports whether err is a unique constraint failure on either backend.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

// expectOneRow turns a zero rows-affected result into notFound.
func expectOneRow(result sql.Result, notFound error, op string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after %s: %w", op, err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
