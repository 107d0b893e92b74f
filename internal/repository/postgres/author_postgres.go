package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxviazov/author-feed-service/internal/model"
	"github.com/maxviazov/author-feed-service/internal/repository"
)

// authorColumns selects an author with derived follow counts; alias a is required.
const authorColumns = `a.id, a.username, a.display_name, a.bio, a.created_at,
	(SELECT COUNT(*) FROM follows fc WHERE fc.followee_id = a.id) AS followers_count,
	(SELECT COUNT(*) FROM follows fc WHERE fc.follower_id = a.id) AS following_count`

type authorRepository struct{ pool *pgxpool.Pool }

func NewAuthorRepository(pool *pgxpool.Pool) repository.AuthorRepository {
	return &authorRepository{pool: pool}
}

func scanAuthor(row pgx.Row, extra ...any) (model.Author, error) {
	var out model.Author
	dest := []any{&out.ID, &out.Username, &out.DisplayName, &out.Bio, &out.CreatedAt, &out.FollowersCount, &out.FollowingCount}
	err := row.Scan(append(dest, extra...)...)
	return out, err
}

func (r *authorRepository) Create(ctx context.Context, a model.Author) (model.Author, error) {
	if err := requirePool(r.pool); err != nil {
		return model.Author{}, err
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	exec := conn(ctx, r.pool)
	row := exec.QueryRow(ctx,
		`INSERT INTO authors (id, username, display_name, bio) VALUES ($1, $2, $3, $4)
		 RETURNING id, username, display_name, bio, created_at`,
		a.ID, a.Username, a.DisplayName, a.Bio,
	)
	var out model.Author
	if err := row.Scan(&out.ID, &out.Username, &out.DisplayName, &out.Bio, &out.CreatedAt); err != nil {
		return model.Author{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *authorRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Author, error) {
	if err := requirePool(r.pool); err != nil {
		return model.Author{}, err
	}
	exec := conn(ctx, r.pool)
	out, err := scanAuthor(exec.QueryRow(ctx, `SELECT `+authorColumns+` FROM authors a WHERE a.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Author{}, repository.ErrNotFound
		}
		return model.Author{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *authorRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := requirePool(r.pool); err != nil {
		return false, err
	}
	var exists bool
	exec := conn(ctx, r.pool)
	if err := exec.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM authors WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, repository.MapPgError(err)
	}
	return exists, nil
}

func (r *authorRepository) ListFollowers(ctx context.Context, id uuid.UUID, p repository.Page) (repository.PageResult[model.Author], error) {
	return r.listEdge(ctx, id, p, "f.followee_id", "f.follower_id")
}

func (r *authorRepository) ListFollowing(ctx context.Context, id uuid.UUID, p repository.Page) (repository.PageResult[model.Author], error) {
	return r.listEdge(ctx, id, p, "f.follower_id", "f.followee_id")
}

// listEdge pages through one side of the follow graph. matchCol and joinCol are
// fixed column names, never user input.
func (r *authorRepository) listEdge(ctx context.Context, id uuid.UUID, p repository.Page, matchCol, joinCol string) (repository.PageResult[model.Author], error) {
	if err := requirePool(r.pool); err != nil {
		return repository.PageResult[model.Author]{}, err
	}
	limit, offset := clampPage(p.Limit, p.Offset)
	exec := conn(ctx, r.pool)
	rows, err := exec.Query(ctx,
		`SELECT `+authorColumns+`, COUNT(*) OVER() AS total
		 FROM follows f JOIN authors a ON a.id = `+joinCol+`
		 WHERE `+matchCol+` = $1
		 ORDER BY f.created_at DESC, a.id
		 LIMIT $2 OFFSET $3`,
		id, limit, offset,
	)
	if err != nil {
		return repository.PageResult[model.Author]{}, repository.MapPgError(err)
	}
	defer rows.Close()
	res := repository.PageResult[model.Author]{Items: make([]model.Author, 0, limit)}
	for rows.Next() {
		var total int
		it, err := scanAuthor(rows, &total)
		if err != nil {
			return repository.PageResult[model.Author]{}, repository.MapPgError(err)
		}
		res.Items = append(res.Items, it)
		res.Total = total
	}
	if err := rows.Err(); err != nil {
		return repository.PageResult[model.Author]{}, repository.MapPgError(err)
	}
	if len(res.Items) == 0 && offset > 0 {
		// window totals vanish past the last page; count separately
		if err := exec.QueryRow(ctx, `SELECT COUNT(*) FROM follows f WHERE `+matchCol+` = $1`, id).Scan(&res.Total); err != nil {
			return repository.PageResult[model.Author]{}, repository.MapPgError(err)
		}
	}
	return res, nil
}

var _ repository.AuthorRepository = (*authorRepository)(nil)
