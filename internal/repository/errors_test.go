package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/schedulo/internal/domain"
)

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil))
	assert.ErrorIs(t, mapError(fmt.Errorf("scan: %w", pgx.ErrNoRows)), ErrNotFound)
	assert.ErrorIs(t, mapError(&pgconn.PgError{Code: "22P02"}), ErrNotFound)

	err := mapError(&pgconn.PgError{Code: "23505", ConstraintName: "faculty_credentials_employee_id_key"})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, FieldEmployeeID, conflict.Field)
	assert.ErrorIs(t, err, ErrConflict)

	err = mapError(&pgconn.PgError{Code: "23505", ConstraintName: "admins_email_key"})
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, FieldEmail, conflict.Field)

	other := errors.New("connection reset")
	assert.Equal(t, other, mapError(other))
}

func TestTableForRole(t *testing.T) {
	table, err := TableForRole(domain.RoleHOD)
	require.NoError(t, err)
	assert.Equal(t, "hods", table)

	_, err = TableForRole(domain.Role("student"))
	assert.Error(t, err)
}
