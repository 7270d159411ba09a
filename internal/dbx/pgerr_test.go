package dbx

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestConstraintChecks(t *testing.T) {
	unique := fmt.Errorf("db error: %w", &pgconn.PgError{Code: "23505"})
	fk := fmt.Errorf("db error: %w", &pgconn.PgError{Code: "23503"})
	plain := errors.New("db down")

	assert.True(t, IsUniqueViolation(unique))
	assert.False(t, IsForeignKeyViolation(unique))

	assert.True(t, IsForeignKeyViolation(fk))
	assert.False(t, IsUniqueViolation(fk))

	assert.False(t, IsUniqueViolation(plain))
	assert.False(t, IsForeignKeyViolation(nil))
}
