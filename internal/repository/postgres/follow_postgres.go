package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxviazov/author-feed-service/internal/repository"
)

type followRepository struct{ pool *pgxpool.Pool }

func NewFollowRepository(pool *pgxpool.Pool) repository.FollowRepository {
	return &followRepository{pool: pool}
}

func (r *followRepository) Exists(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	if err := requirePool(r.pool); err != nil {
		return false, err
	}
	var exists bool
	exec := conn(ctx, r.pool)
	err := exec.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = $1 AND followee_id = $2)`,
		followerID, followeeID,
	).Scan(&exists)
	if err != nil {
		return false, repository.MapPgError(err)
	}
	return exists, nil
}

// Insert adds the edge; an existing edge is left untouched and reported as false.
func (r *followRepository) Insert(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	if err := requirePool(r.pool); err != nil {
		return false, err
	}
	exec := conn(ctx, r.pool)
	tag, err := exec.Exec(ctx,
		`INSERT INTO follows (follower_id, followee_id) VALUES ($1, $2)
		 ON CONFLICT (follower_id, followee_id) DO NOTHING`,
		followerID, followeeID,
	)
	if err != nil {
		return false, repository.MapPgError(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *followRepository) Delete(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	if err := requirePool(r.pool); err != nil {
		return false, err
	}
	exec := conn(ctx, r.pool)
	tag, err := exec.Exec(ctx,
		`DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`,
		followerID, followeeID,
	)
	if err != nil {
		return false, repository.MapPgError(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *followRepository) CountFollowers(ctx context.Context, followeeID uuid.UUID) (int, error) {
	if err := requirePool(r.pool); err != nil {
		return 0, err
	}
	var n int
	exec := conn(ctx, r.pool)
	if err := exec.QueryRow(ctx, `SELECT COUNT(*) FROM follows WHERE followee_id = $1`, followeeID).Scan(&n); err != nil {
		return 0, repository.MapPgError(err)
	}
	return n, nil
}

var _ repository.FollowRepository = (*followRepository)(nil)
