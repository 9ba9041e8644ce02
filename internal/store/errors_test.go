// ABOUTME: Tests for driver error classification
// ABOUTME: Covers pgconn typed errors, SQLite message errors and passthrough

package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	plain := errors.New("syntax error near FROM")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"sqlite unique", errors.New("constraint failed: UNIQUE constraint failed: records.tb, records.id (1555)"), ErrConstraintViolation},
		{"postgres unique", &pgconn.PgError{Code: "23505"}, ErrConstraintViolation},
		{"postgres not null", fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "23502"}), ErrConstraintViolation},
		{"bad conn", driver.ErrBadConn, ErrConnection},
		{"sqlite busy", errors.New("database is locked (5) (SQLITE_BUSY)"), ErrConnection},
		{"closed db", errors.New("sql: database is closed"), ErrConnection},
		{"canceled", context.Canceled, context.Canceled},
		{"other", plain, plain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err, "original error must stay in the chain")
		})
	}

	assert.NoError(t, classify(nil))
}

func TestClassify_PostgresSyntaxErrorIsNotConstraint(t *testing.T) {
	err := classify(&pgconn.PgError{Code: "42601"})
	assert.NotErrorIs(t, err, ErrConstraintViolation)
	assert.NotErrorIs(t, err, ErrConnection)
}
