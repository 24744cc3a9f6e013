// Package repository holds the PostgreSQL data access layer. Repositories
// translate driver errors into the sentinels below so callers never inspect
// sql.ErrNoRows or *pq.Error themselves.
package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrNotFound is returned when the addressed row does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write collides with existing state, such as
// a duplicate email or a repeated like.
var ErrConflict = errors.New("conflict")

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

func pqCode(err error) (code string, constraint string) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint
	}
	return "", ""
}
