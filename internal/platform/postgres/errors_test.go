package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	t.Run("detects unique violations", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: pgUniqueViolation}
		assert.True(t, isUniqueViolation(pgErr))
		assert.True(t, isUniqueViolation(fmt.Errorf("claim task: %w", pgErr)))
	})

	t.Run("ignores other errors", func(t *testing.T) {
		assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
		assert.False(t, isUniqueViolation(errors.New("connection refused")))
		assert.False(t, isUniqueViolation(nil))
	})
}
