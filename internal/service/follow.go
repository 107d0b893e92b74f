package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/maxviazov/author-feed-service/internal/cache"
	"github.com/maxviazov/author-feed-service/internal/i18n"
	"github.com/maxviazov/author-feed-service/internal/metrics"
	"github.com/maxviazov/author-feed-service/internal/model"
	"github.com/maxviazov/author-feed-service/internal/repository"
)

// followerCountTTL bounds how long a count filled on read may be served.
const followerCountTTL = 10 * time.Minute

type followOp string

const (
	opToggle   followOp = "toggle"
	opFollow   followOp = "follow"
	opUnfollow followOp = "unfollow"
)

// followService owns the follow graph use cases. Mutations for one viewer/author pair
// are funneled through a singleflight group so a double submit runs once.
type followService struct {
	authors repository.AuthorRepository
	follows repository.FollowRepository
	tx      repository.TxManager
	cache   cache.Cache
	keys    cache.Keys
	tr      *i18n.Translator
	log     zerolog.Logger

	group singleflight.Group

	mu       sync.Mutex
	inflight map[string]int
}

func NewFollowService(
	authors repository.AuthorRepository,
	follows repository.FollowRepository,
	tx repository.TxManager,
	c cache.Cache,
	keys cache.Keys,
	tr *i18n.Translator,
	logger zerolog.Logger,
) FollowService {
	l := logger.With().Str("module", "service").Str("component", "follow").Logger()
	return &followService{
		authors:  authors,
		follows:  follows,
		tx:       tx,
		cache:    c,
		keys:     keys,
		tr:       tr,
		log:      l,
		inflight: make(map[string]int),
	}
}

func pairKey(viewer, author uuid.UUID) string {
	return viewer.String() + ":" + author.String()
}

func validatePair(viewer, author uuid.UUID) error {
	if viewer == uuid.Nil {
		return ErrUnauthenticated
	}
	var ferrs []FieldError
	if author == uuid.Nil {
		ferrs = append(ferrs, FieldError{Field: "id", Message: "must be a valid author id"})
	} else if viewer == author {
		ferrs = append(ferrs, FieldError{Field: "id", Message: "cannot follow yourself"})
	}
	return newInvalidInput(ferrs)
}

func (s *followService) Toggle(ctx context.Context, viewer, author uuid.UUID) (model.FollowState, error) {
	return s.mutate(ctx, viewer, author, opToggle)
}

func (s *followService) Follow(ctx context.Context, viewer, author uuid.UUID) (model.FollowState, error) {
	return s.mutate(ctx, viewer, author, opFollow)
}

func (s *followService) Unfollow(ctx context.Context, viewer, author uuid.UUID) (model.FollowState, error) {
	return s.mutate(ctx, viewer, author, opUnfollow)
}

// mutate runs op for the pair, sharing the result with concurrent identical requests.
// The unit of work is detached from the caller's cancellation so an abandoned request
// still leaves the edge and the cached count consistent.
func (s *followService) mutate(ctx context.Context, viewer, author uuid.UUID, op followOp) (model.FollowState, error) {
	if err := validatePair(viewer, author); err != nil {
		return model.FollowState{}, err
	}
	pair := pairKey(viewer, author)
	s.enter(pair)
	defer s.leave(pair)

	start := time.Now()
	v, err, shared := s.group.Do(pair+":"+string(op), func() (any, error) {
		return s.apply(context.WithoutCancel(ctx), viewer, author, op)
	})
	if shared {
		metrics.FollowCoalesced.Inc()
	}
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Error().Err(err).Str("op", string(op)).Str("viewer", viewer.String()).Str("author", author.String()).Msg("follow mutation failed")
		}
		return model.FollowState{}, err
	}
	st := v.(model.FollowState)
	s.log.Info().
		Str("op", string(op)).
		Str("viewer", viewer.String()).
		Str("author", author.String()).
		Bool("following", st.Following).
		Bool("shared", shared).
		Dur("took", time.Since(start)).
		Msg("follow mutation applied")
	return st, nil
}

func (s *followService) apply(ctx context.Context, viewer, author uuid.UUID, op followOp) (model.FollowState, error) {
	state := model.FollowState{AuthorID: author}
	changed := false
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ok, err := s.authors.Exists(ctx, author)
		if err != nil {
			return err
		}
		if !ok {
			return repository.ErrNotFound
		}
		following, err := s.follows.Exists(ctx, viewer, author)
		if err != nil {
			return err
		}
		want := !following
		switch op {
		case opFollow:
			want = true
		case opUnfollow:
			want = false
		}
		if want {
			changed, err = s.follows.Insert(ctx, viewer, author)
		} else {
			changed, err = s.follows.Delete(ctx, viewer, author)
		}
		if err != nil {
			return err
		}
		state.Following = want
		if !changed {
			return nil
		}
		state.FollowersCount, err = s.follows.CountFollowers(ctx, author)
		return err
	})
	if err != nil {
		return model.FollowState{}, err
	}

	result := "unchanged"
	if changed {
		result = "unfollowed"
		if state.Following {
			result = "followed"
		}
		s.invalidateFollowerCount(ctx, author)
	} else {
		if state.FollowersCount, err = s.followerCount(ctx, author); err != nil {
			return model.FollowState{}, err
		}
	}
	metrics.FollowMutations.WithLabelValues(string(op), result).Inc()
	return state, nil
}

// followerCount reads through the cache.
func (s *followService) followerCount(ctx context.Context, author uuid.UUID) (int, error) {
	key := s.keys.Followers(author)
	if raw, err := s.cache.Get(ctx, key); err == nil && raw != "" {
		if n, convErr := strconv.Atoi(raw); convErr == nil {
			return n, nil
		}
	} else if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("follower count cache read failed")
	}
	n, err := s.follows.CountFollowers(ctx, author)
	if err != nil {
		return 0, err
	}
	s.storeFollowerCount(ctx, author, n)
	return n, nil
}

func (s *followService) storeFollowerCount(ctx context.Context, author uuid.UUID, n int) {
	key := s.keys.Followers(author)
	if err := s.cache.Set(ctx, key, n, followerCountTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("follower count cache write failed")
	}
}

// invalidateFollowerCount drops the cached count after a change. Writing the fresh
// count instead would let a slower concurrent writer overwrite it with an older value.
func (s *followService) invalidateFollowerCount(ctx context.Context, author uuid.UUID) {
	key := s.keys.Followers(author)
	if err := s.cache.Delete(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("follower count cache invalidation failed")
	}
}

func (s *followService) enter(pair string) {
	s.mu.Lock()
	s.inflight[pair]++
	s.mu.Unlock()
}

func (s *followService) leave(pair string) {
	s.mu.Lock()
	if s.inflight[pair] <= 1 {
		delete(s.inflight, pair)
	} else {
		s.inflight[pair]--
	}
	s.mu.Unlock()
}

func (s *followService) busy(pair string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight[pair] > 0
}

func (s *followService) Button(ctx context.Context, viewer *uuid.UUID, author uuid.UUID, locale string) (model.FollowButton, error) {
	if author == uuid.Nil {
		return model.FollowButton{}, newInvalidInput([]FieldError{{Field: "id", Message: "must be a valid author id"}})
	}
	ok, err := s.authors.Exists(ctx, author)
	if err != nil {
		return model.FollowButton{}, err
	}
	if !ok {
		return model.FollowButton{}, repository.ErrNotFound
	}

	btn := model.FollowButton{AuthorID: author, Locale: locale}
	if viewer != nil && *viewer != uuid.Nil && *viewer != author {
		if btn.Following, err = s.follows.Exists(ctx, *viewer, author); err != nil {
			return model.FollowButton{}, err
		}
		btn.Busy = s.busy(pairKey(*viewer, author))
	}
	btn.Label = s.tr.FollowLabel(locale, btn.Following)
	return btn, nil
}

func (s *followService) Followers(ctx context.Context, author uuid.UUID, q model.ListQuery) (model.ListResponse[model.Author], error) {
	return s.listEdge(ctx, author, q, s.authors.ListFollowers, "followers")
}

func (s *followService) Following(ctx context.Context, author uuid.UUID, q model.ListQuery) (model.ListResponse[model.Author], error) {
	return s.listEdge(ctx, author, q, s.authors.ListFollowing, "following")
}

type edgeLister func(ctx context.Context, id uuid.UUID, p repository.Page) (repository.PageResult[model.Author], error)

func (s *followService) listEdge(ctx context.Context, author uuid.UUID, q model.ListQuery, list edgeLister, what string) (model.ListResponse[model.Author], error) {
	q = normalizeQuery(q)
	ok, err := s.authors.Exists(ctx, author)
	if err != nil {
		return model.ListResponse[model.Author]{}, err
	}
	if !ok {
		return model.ListResponse[model.Author]{}, repository.ErrNotFound
	}
	res, err := list(ctx, author, repository.PageFor(q))
	if err != nil {
		s.log.Error().Err(err).Str("author", author.String()).Str("list", what).Msg("list follow edges failed")
		return model.ListResponse[model.Author]{}, err
	}
	return model.NewListResponse(res.Items, res.Total, q.Page, q.Limit), nil
}
