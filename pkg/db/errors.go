package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// pg unique_violation, https://www.postgresql.org/docs/current/errcodes-appendix.html
const uniqueViolationCode = "23505"

// IsUniqueViolation reports whether err is a unique-index violation from the
// datastore. Postgres errors are unwrapped to their SQLSTATE; the sqlite
// driver used in dev/tests only exposes message text.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolationCode
	}

	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
