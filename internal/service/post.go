package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/maxviazov/author-feed-service/internal/cache"
	"github.com/maxviazov/author-feed-service/internal/model"
	"github.com/maxviazov/author-feed-service/internal/repository"
)

const (
	minTitleLen   = 3
	maxTitleLen   = 200
	maxExcerptLen = 1000
)

// postService holds post use-case logic: validation + orchestration, no transport / SQL details.
type postService struct {
	posts   repository.PostRepository
	authors repository.AuthorRepository
	cache   cache.Cache
	keys    cache.Keys
	policy  *bluemonday.Policy
	now     func() time.Time
	log     zerolog.Logger
}

func NewPostService(posts repository.PostRepository, authors repository.AuthorRepository, c cache.Cache, keys cache.Keys, logger zerolog.Logger) PostService {
	l := logger.With().Str("module", "service").Str("component", "post").Logger()
	return &postService{
		posts:   posts,
		authors: authors,
		cache:   c,
		keys:    keys,
		policy:  bluemonday.UGCPolicy(),
		now:     time.Now,
		log:     l,
	}
}

func (s *postService) List(ctx context.Context, q model.ListQuery, author *uuid.UUID) (model.ListResponse[model.Post], error) {
	q = normalizeQuery(q)
	if author != nil {
		if err := s.requireAuthor(ctx, *author); err != nil {
			return model.ListResponse[model.Post]{}, err
		}
	}
	return s.list(ctx, q, repository.PostFilter{AuthorID: author})
}

func (s *postService) Feed(ctx context.Context, viewer uuid.UUID, q model.ListQuery) (model.ListResponse[model.Post], error) {
	if viewer == uuid.Nil {
		return model.ListResponse[model.Post]{}, ErrUnauthenticated
	}
	return s.list(ctx, normalizeQuery(q), repository.PostFilter{FollowerID: &viewer})
}

func (s *postService) list(ctx context.Context, q model.ListQuery, f repository.PostFilter) (model.ListResponse[model.Post], error) {
	f.Page = repository.PageFor(q)
	f.Sort = q.Filter
	f.Order = q.Order
	if since, ok := q.Period.Since(s.now()); ok {
		f.Since = &since
	}
	res, err := s.posts.List(ctx, f)
	if err != nil {
		s.log.Error().Err(err).
			Int("page", q.Page).Int("limit", q.Limit).
			Str("period", string(q.Period)).Str("filter", string(q.Filter)).Str("order", string(q.Order)).
			Msg("list posts failed")
		return model.ListResponse[model.Post]{}, err
	}
	for i := range res.Items {
		res.Items[i].Excerpt = s.policy.Sanitize(res.Items[i].Excerpt)
	}
	return model.NewListResponse(res.Items, res.Total, q.Page, q.Limit), nil
}

// Get returns the post with the view it just received included in ViewCount.
// Views are buffered in the cache and flushed to storage by SyncViewCounts.
func (s *postService) Get(ctx context.Context, id int64) (model.Post, error) {
	if id <= 0 {
		return model.Post{}, newInvalidInput([]FieldError{{Field: "id", Message: "must be > 0"}})
	}
	p, err := s.posts.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Error().Err(err).Int64("post_id", id).Msg("get post failed")
		}
		return model.Post{}, err
	}
	pending, err := s.cache.Increment(ctx, s.keys.PostViews(id))
	if err != nil {
		s.log.Warn().Err(err).Int64("post_id", id).Msg("view counter increment failed")
	} else {
		p.ViewCount += pending
	}
	p.Excerpt = s.policy.Sanitize(p.Excerpt)
	return p, nil
}

func (s *postService) Create(ctx context.Context, author uuid.UUID, title, excerpt string) (model.Post, error) {
	if author == uuid.Nil {
		return model.Post{}, ErrUnauthenticated
	}
	start := time.Now()
	title = strings.TrimSpace(title)
	excerpt = strings.TrimSpace(s.policy.Sanitize(excerpt))

	var ferrs []FieldError
	if title == "" {
		ferrs = append(ferrs, FieldError{Field: "title", Message: "must not be empty"})
	} else if ln := len([]rune(title)); ln < minTitleLen || ln > maxTitleLen {
		ferrs = append(ferrs, FieldError{Field: "title", Message: "length must be between 3 and 200"})
	}
	if len([]rune(excerpt)) > maxExcerptLen {
		ferrs = append(ferrs, FieldError{Field: "excerpt", Message: "length must be at most 1000"})
	}
	if err := newInvalidInput(ferrs); err != nil {
		s.log.Debug().Interface("field_errors", ferrs).Msg("post validation failed")
		return model.Post{}, err
	}
	if err := s.requireAuthor(ctx, author); err != nil {
		return model.Post{}, err
	}

	out, err := s.posts.Create(ctx, model.Post{AuthorID: author, Title: title, Excerpt: excerpt})
	if err != nil {
		s.log.Error().Err(err).Str("author", author.String()).Msg("create post failed")
		return model.Post{}, err
	}
	s.log.Info().Dur("took", time.Since(start)).Int64("post_id", out.ID).Str("author", author.String()).Msg("post created")
	return out, nil
}

func (s *postService) requireAuthor(ctx context.Context, id uuid.UUID) error {
	ok, err := s.authors.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrNotFound
	}
	return nil
}
