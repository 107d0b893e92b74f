package repository_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/maxviazov/author-feed-service/internal/model"
	"github.com/maxviazov/author-feed-service/internal/repository"
)

func TestMapPgError(t *testing.T) {
	boom := errors.New("boom")
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"unique", &pgconn.PgError{Code: pgerrcode.UniqueViolation}, repository.ErrAlreadyExists},
		{"fk", &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}, repository.ErrConflict},
		{"check", &pgconn.PgError{Code: pgerrcode.CheckViolation}, repository.ErrConflict},
		{"wrapped unique", fmt.Errorf("insert: %w", &pgconn.PgError{Code: pgerrcode.UniqueViolation}), repository.ErrAlreadyExists},
		{"bad text", &pgconn.PgError{Code: pgerrcode.InvalidTextRepresentation}, repository.ErrInvalidArgument},
		{"out of range", &pgconn.PgError{Code: pgerrcode.NumericValueOutOfRange}, repository.ErrInvalidArgument},
		{"passthrough", boom, boom},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, repository.MapPgError(tc.in))
		})
	}
}

func TestPageFor(t *testing.T) {
	q := model.DefaultListQuery()
	q.Page, q.Limit = 4, 25
	assert.Equal(t, repository.Page{Limit: 25, Offset: 75}, repository.PageFor(q))
}
