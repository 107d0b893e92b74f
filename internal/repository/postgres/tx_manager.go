package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxviazov/author-feed-service/internal/repository"
)

var errNilPool = errors.New("postgres: pool not configured")

// querier is what the repositories run SQL against: the pool, or the pgx.Tx of the
// unit of work carried by the context.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type unitKey struct{}

func unitFrom(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(unitKey{}).(pgx.Tx)
	return tx, ok && tx != nil
}

// conn picks the open unit of work when ctx carries one so follow toggles and
// post creation see their own writes.
func conn(ctx context.Context, pool *pgxpool.Pool) querier {
	if tx, ok := unitFrom(ctx); ok {
		return tx
	}
	return pool
}

func requirePool(pool *pgxpool.Pool) error {
	if pool == nil {
		return errNilPool
	}
	return nil
}

type txManager struct{ pool *pgxpool.Pool }

func NewTxManager(pool *pgxpool.Pool) repository.TxManager { return &txManager{pool: pool} }

var _ repository.TxManager = (*txManager)(nil)

// WithinTx opens one transaction per outermost call. A call made with a context that
// already carries a unit joins it, so the outer caller alone decides commit or rollback.
func (m *txManager) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	if _, ok := unitFrom(ctx); ok {
		return fn(ctx)
	}
	if err := requirePool(m.pool); err != nil {
		return err
	}
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return repository.MapPgError(err)
	}
	committed := false
	defer func() {
		if !committed {
			// the request context may already be gone
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	if err := fn(context.WithValue(ctx, unitKey{}, tx)); err != nil {
		return repository.MapPgError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return repository.MapPgError(err)
	}
	committed = true
	return nil
}
