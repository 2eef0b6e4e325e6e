package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/BradenHooton/formgate/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapPostgresError(t *testing.T) {
	assert.NoError(t, MapPostgresError(nil))
	assert.ErrorIs(t, MapPostgresError(pgx.ErrNoRows), models.ErrNotFound)
	assert.ErrorIs(t, MapPostgresError(fmt.Errorf("scan: %w", pgx.ErrNoRows)), models.ErrNotFound)

	assert.ErrorIs(t, MapPostgresError(&pgconn.PgError{Code: "23505"}), models.ErrConflict)
	assert.ErrorIs(t, MapPostgresError(&pgconn.PgError{Code: "23502", ConstraintName: "users_pkey"}), models.ErrBadRequest)

	connErr := errors.New("connection refused")
	mapped := MapPostgresError(connErr)
	assert.ErrorIs(t, mapped, models.ErrDataAccess)
	assert.ErrorIs(t, mapped, connErr)

	syntax := MapPostgresError(&pgconn.PgError{Code: "42601"})
	assert.ErrorIs(t, syntax, models.ErrDataAccess)
}
