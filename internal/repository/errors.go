package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// ErrConflict marks unique constraint violations.
var ErrConflict = errors.New("record already exists")

const (
	uniqueViolation    = "23505"
	invalidTextForType = "22P02"
)

// ConflictError names the unique field a write collided on.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return "duplicate " + e.Field
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// Conflict field names shared by every store.
const (
	FieldEmail      = "email"
	FieldEmployeeID = "employeeId"
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	// ids arrive from URLs; a malformed uuid cannot name a row.
	if pgErr.Code == invalidTextForType {
		return ErrNotFound
	}
	if pgErr.Code == uniqueViolation {
		field := FieldEmail
		if strings.Contains(pgErr.ConstraintName, "employee_id") {
			field = FieldEmployeeID
		}
		return &ConflictError{Field: field}
	}
	return err
}
