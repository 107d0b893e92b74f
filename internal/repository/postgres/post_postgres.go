package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxviazov/author-feed-service/internal/model"
	"github.com/maxviazov/author-feed-service/internal/repository"
)

const postColumns = `p.id, p.author_id, p.title, p.excerpt, p.view_count, p.like_count, p.comment_count, p.hot_score, p.created_at, p.updated_at`

type postRepository struct{ pool *pgxpool.Pool }

func NewPostRepository(pool *pgxpool.Pool) repository.PostRepository {
	return &postRepository{pool: pool}
}

func scanPost(row pgx.Row, extra ...any) (model.Post, error) {
	var out model.Post
	dest := []any{&out.ID, &out.AuthorID, &out.Title, &out.Excerpt, &out.ViewCount, &out.LikeCount, &out.CommentCount, &out.HotScore, &out.CreatedAt, &out.UpdatedAt}
	err := row.Scan(append(dest, extra...)...)
	return out, err
}

func (r *postRepository) Create(ctx context.Context, p model.Post) (model.Post, error) {
	if err := requirePool(r.pool); err != nil {
		return model.Post{}, err
	}
	exec := conn(ctx, r.pool)
	row := exec.QueryRow(ctx,
		`INSERT INTO posts AS p (author_id, title, excerpt) VALUES ($1, $2, $3)
		 RETURNING `+postColumns,
		p.AuthorID, p.Title, p.Excerpt,
	)
	out, err := scanPost(row)
	if err != nil {
		return model.Post{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (model.Post, error) {
	if err := requirePool(r.pool); err != nil {
		return model.Post{}, err
	}
	exec := conn(ctx, r.pool)
	out, err := scanPost(exec.QueryRow(ctx, `SELECT `+postColumns+` FROM posts p WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Post{}, repository.ErrNotFound
		}
		return model.Post{}, repository.MapPgError(err)
	}
	return out, nil
}

// buildPostWhere renders the WHERE clause and its positional args for f.
func buildPostWhere(f repository.PostFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Since != nil {
		args = append(args, *f.Since)
		conds = append(conds, fmt.Sprintf("p.created_at >= $%d", len(args)))
	}
	if f.AuthorID != nil {
		args = append(args, *f.AuthorID)
		conds = append(conds, fmt.Sprintf("p.author_id = $%d", len(args)))
	}
	if f.FollowerID != nil {
		args = append(args, *f.FollowerID)
		conds = append(conds, fmt.Sprintf("p.author_id IN (SELECT followee_id FROM follows WHERE follower_id = $%d)", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// buildPostOrder maps the closed Filter/OrderBy enumerations onto SQL. Unknown
// values fall back to newest first, so nothing from the client reaches the query text.
func buildPostOrder(sort model.Filter, order model.OrderBy) string {
	dir := "DESC"
	if order == model.OrderAsc {
		dir = "ASC"
	}
	switch sort {
	case model.FilterHot:
		return fmt.Sprintf(" ORDER BY p.hot_score %[1]s, p.created_at %[1]s, p.id %[1]s", dir)
	default:
		return fmt.Sprintf(" ORDER BY p.created_at %[1]s, p.id %[1]s", dir)
	}
}

func (r *postRepository) List(ctx context.Context, f repository.PostFilter) (repository.PageResult[model.Post], error) {
	if err := requirePool(r.pool); err != nil {
		return repository.PageResult[model.Post]{}, err
	}
	limit, offset := clampPage(f.Page.Limit, f.Page.Offset)
	where, args := buildPostWhere(f)
	n := len(args)
	query := `SELECT ` + postColumns + `, COUNT(*) OVER() AS total FROM posts p` + where +
		buildPostOrder(f.Sort, f.Order) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2)

	exec := conn(ctx, r.pool)
	rows, err := exec.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return repository.PageResult[model.Post]{}, repository.MapPgError(err)
	}
	defer rows.Close()
	res := repository.PageResult[model.Post]{Items: make([]model.Post, 0, limit)}
	for rows.Next() {
		var total int
		it, err := scanPost(rows, &total)
		if err != nil {
			return repository.PageResult[model.Post]{}, repository.MapPgError(err)
		}
		res.Items = append(res.Items, it)
		res.Total = total
	}
	if err := rows.Err(); err != nil {
		return repository.PageResult[model.Post]{}, repository.MapPgError(err)
	}
	if len(res.Items) == 0 && offset > 0 {
		if err := exec.QueryRow(ctx, `SELECT COUNT(*) FROM posts p`+where, args...).Scan(&res.Total); err != nil {
			return repository.PageResult[model.Post]{}, repository.MapPgError(err)
		}
	}
	return res, nil
}

func (r *postRepository) AddViews(ctx context.Context, deltas map[int64]int64) error {
	if len(deltas) == 0 {
		return nil
	}
	if err := requirePool(r.pool); err != nil {
		return err
	}
	ids := make([]int64, 0, len(deltas))
	inc := make([]int64, 0, len(deltas))
	for id, d := range deltas {
		ids = append(ids, id)
		inc = append(inc, d)
	}
	exec := conn(ctx, r.pool)
	_, err := exec.Exec(ctx,
		`UPDATE posts p SET view_count = p.view_count + d.delta
		 FROM unnest($1::bigint[], $2::bigint[]) AS d(id, delta)
		 WHERE p.id = d.id`,
		ids, inc,
	)
	return repository.MapPgError(err)
}

func (r *postRepository) ListEngagement(ctx context.Context, since time.Time) ([]model.PostEngagement, error) {
	if err := requirePool(r.pool); err != nil {
		return nil, err
	}
	exec := conn(ctx, r.pool)
	rows, err := exec.Query(ctx,
		`SELECT id, view_count, like_count, comment_count, created_at
		 FROM posts WHERE created_at >= $1 ORDER BY id`, since,
	)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	defer rows.Close()
	res := make([]model.PostEngagement, 0, 64)
	for rows.Next() {
		var it model.PostEngagement
		if err := rows.Scan(&it.ID, &it.ViewCount, &it.LikeCount, &it.CommentCount, &it.CreatedAt); err != nil {
			return nil, repository.MapPgError(err)
		}
		res = append(res, it)
	}
	return res, repository.MapPgError(rows.Err())
}

func (r *postRepository) UpdateHotScores(ctx context.Context, scores map[int64]float64) error {
	if len(scores) == 0 {
		return nil
	}
	if err := requirePool(r.pool); err != nil {
		return err
	}
	ids := make([]int64, 0, len(scores))
	vals := make([]float64, 0, len(scores))
	for id, s := range scores {
		ids = append(ids, id)
		vals = append(vals, s)
	}
	exec := conn(ctx, r.pool)
	_, err := exec.Exec(ctx,
		`UPDATE posts p SET hot_score = s.score
		 FROM unnest($1::bigint[], $2::float8[]) AS s(id, score)
		 WHERE p.id = s.id`,
		ids, vals,
	)
	return repository.MapPgError(err)
}

var _ repository.PostRepository = (*postRepository)(nil)
