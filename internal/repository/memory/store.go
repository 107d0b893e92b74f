// Package memory is an in-process implementation of the repository contracts.
// It backs unit tests and local runs without Postgres; it is not meant for production load.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/maxviazov/author-feed-service/internal/model"
	"github.com/maxviazov/author-feed-service/internal/repository"
)

type edge struct{ follower, followee uuid.UUID }

type state struct {
	authors    map[uuid.UUID]model.Author
	usernames  map[string]uuid.UUID
	follows    map[edge]time.Time
	posts      map[int64]model.Post
	nextPostID int64
}

// Store holds all tables behind one mutex.
type Store struct {
	mu  sync.RWMutex
	st  *state
	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		st: &state{
			authors:   map[uuid.UUID]model.Author{},
			usernames: map[string]uuid.UUID{},
			follows:   map[edge]time.Time{},
			posts:     map[int64]model.Post{},
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source used for created_at values.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

func (s *Store) Authors() repository.AuthorRepository { return authorRepo{s} }
func (s *Store) Follows() repository.FollowRepository { return followRepo{s} }
func (s *Store) Posts() repository.PostRepository     { return postRepo{s} }
func (s *Store) Tx() repository.TxManager             { return txManager{s} }

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

// SetEngagement overwrites like and comment counters. Those counters are fed by
// services outside this one, so tests and seeds set them directly.
func (s *Store) SetEngagement(id int64, likes, comments int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.st.posts[id]; ok {
		p.LikeCount, p.CommentCount = likes, comments
		s.st.posts[id] = p
	}
}

// SetCreatedAt backdates a post.
func (s *Store) SetCreatedAt(id int64, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.st.posts[id]; ok {
		p.CreatedAt = at
		s.st.posts[id] = p
	}
}

func (s *Store) withCounts(a model.Author) model.Author {
	a.FollowersCount, a.FollowingCount = 0, 0
	for e := range s.st.follows {
		if e.followee == a.ID {
			a.FollowersCount++
		}
		if e.follower == a.ID {
			a.FollowingCount++
		}
	}
	return a
}

type txKey struct{}

// txLog holds the undo steps of one unit of work. It is only touched with Store.mu held.
type txLog struct {
	undo []func(st *state)
}

type txManager struct{ s *Store }

// WithinTx records the writes fn makes and reverts exactly those when fn fails.
// Writes committed by other callers meanwhile are left alone. Nested calls join the outer unit.
func (m txManager) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	if _, ok := ctx.Value(txKey{}).(*txLog); ok {
		return fn(ctx)
	}
	log := &txLog{}
	if err := fn(context.WithValue(ctx, txKey{}, log)); err != nil {
		m.s.mu.Lock()
		for i := len(log.undo) - 1; i >= 0; i-- {
			log.undo[i](m.s.st)
		}
		m.s.mu.Unlock()
		return err
	}
	return nil
}

// record registers an undo step for the write just applied. Callers hold s.mu.
func (s *Store) record(ctx context.Context, undo func(st *state)) {
	if log, ok := ctx.Value(txKey{}).(*txLog); ok {
		log.undo = append(log.undo, undo)
	}
}

type authorRepo struct{ s *Store }

func (r authorRepo) Create(ctx context.Context, a model.Author) (model.Author, error) {
	if err := ctx.Err(); err != nil {
		return model.Author{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, taken := r.s.st.usernames[a.Username]; taken {
		return model.Author{}, repository.ErrAlreadyExists
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if _, taken := r.s.st.authors[a.ID]; taken {
		return model.Author{}, repository.ErrAlreadyExists
	}
	a.CreatedAt = r.s.now()
	a.FollowersCount, a.FollowingCount = 0, 0
	r.s.st.authors[a.ID] = a
	r.s.st.usernames[a.Username] = a.ID
	r.s.record(ctx, func(st *state) {
		delete(st.authors, a.ID)
		if st.usernames[a.Username] == a.ID {
			delete(st.usernames, a.Username)
		}
		for e := range st.follows {
			if e.follower == a.ID || e.followee == a.ID {
				delete(st.follows, e)
			}
		}
	})
	return a, nil
}

func (r authorRepo) GetByID(ctx context.Context, id uuid.UUID) (model.Author, error) {
	if err := ctx.Err(); err != nil {
		return model.Author{}, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.st.authors[id]
	if !ok {
		return model.Author{}, repository.ErrNotFound
	}
	return r.s.withCounts(a), nil
}

func (r authorRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.st.authors[id]
	return ok, nil
}

func (r authorRepo) ListFollowers(ctx context.Context, id uuid.UUID, p repository.Page) (repository.PageResult[model.Author], error) {
	return r.listEdge(ctx, p, func(e edge) (uuid.UUID, bool) { return e.follower, e.followee == id })
}

func (r authorRepo) ListFollowing(ctx context.Context, id uuid.UUID, p repository.Page) (repository.PageResult[model.Author], error) {
	return r.listEdge(ctx, p, func(e edge) (uuid.UUID, bool) { return e.followee, e.follower == id })
}

func (r authorRepo) listEdge(ctx context.Context, p repository.Page, pick func(edge) (uuid.UUID, bool)) (repository.PageResult[model.Author], error) {
	if err := ctx.Err(); err != nil {
		return repository.PageResult[model.Author]{}, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	type hit struct {
		id uuid.UUID
		at time.Time
	}
	hits := make([]hit, 0)
	for e, at := range r.s.st.follows {
		if other, ok := pick(e); ok {
			hits = append(hits, hit{other, at})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if !hits[i].at.Equal(hits[j].at) {
			return hits[i].at.After(hits[j].at)
		}
		return hits[i].id.String() < hits[j].id.String()
	})
	lo, hi := window(len(hits), p)
	res := repository.PageResult[model.Author]{Items: make([]model.Author, 0, hi-lo), Total: len(hits)}
	for _, h := range hits[lo:hi] {
		res.Items = append(res.Items, r.s.withCounts(r.s.st.authors[h.id]))
	}
	return res, nil
}

type followRepo struct{ s *Store }

func (r followRepo) Exists(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.st.follows[edge{followerID, followeeID}]
	return ok, nil
}

func (r followRepo) Insert(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if followerID == followeeID {
		return false, repository.ErrConflict
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, okA := r.s.st.authors[followerID]
	_, okB := r.s.st.authors[followeeID]
	if !okA || !okB {
		return false, repository.ErrConflict
	}
	e := edge{followerID, followeeID}
	if _, ok := r.s.st.follows[e]; ok {
		return false, nil
	}
	r.s.st.follows[e] = r.s.now()
	r.s.record(ctx, func(st *state) { delete(st.follows, e) })
	return true, nil
}

func (r followRepo) Delete(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e := edge{followerID, followeeID}
	at, ok := r.s.st.follows[e]
	if !ok {
		return false, nil
	}
	delete(r.s.st.follows, e)
	r.s.record(ctx, func(st *state) {
		_, okA := st.authors[followerID]
		_, okB := st.authors[followeeID]
		if okA && okB {
			st.follows[e] = at
		}
	})
	return true, nil
}

func (r followRepo) CountFollowers(ctx context.Context, followeeID uuid.UUID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for e := range r.s.st.follows {
		if e.followee == followeeID {
			n++
		}
	}
	return n, nil
}

type postRepo struct{ s *Store }

func (r postRepo) Create(ctx context.Context, p model.Post) (model.Post, error) {
	if err := ctx.Err(); err != nil {
		return model.Post{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.authors[p.AuthorID]; !ok {
		return model.Post{}, repository.ErrConflict
	}
	r.s.st.nextPostID++
	now := r.s.now()
	out := model.Post{
		ID:        r.s.st.nextPostID,
		AuthorID:  p.AuthorID,
		Title:     p.Title,
		Excerpt:   p.Excerpt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.s.st.posts[out.ID] = out
	r.s.record(ctx, func(st *state) { delete(st.posts, out.ID) })
	return out, nil
}

func (r postRepo) GetByID(ctx context.Context, id int64) (model.Post, error) {
	if err := ctx.Err(); err != nil {
		return model.Post{}, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.st.posts[id]
	if !ok {
		return model.Post{}, repository.ErrNotFound
	}
	return p, nil
}

func (r postRepo) List(ctx context.Context, f repository.PostFilter) (repository.PageResult[model.Post], error) {
	if err := ctx.Err(); err != nil {
		return repository.PageResult[model.Post]{}, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	matched := make([]model.Post, 0)
	for _, p := range r.s.st.posts {
		if f.Since != nil && p.CreatedAt.Before(*f.Since) {
			continue
		}
		if f.AuthorID != nil && p.AuthorID != *f.AuthorID {
			continue
		}
		if f.FollowerID != nil {
			if _, ok := r.s.st.follows[edge{*f.FollowerID, p.AuthorID}]; !ok {
				continue
			}
		}
		matched = append(matched, p)
	}
	asc := f.Order == model.OrderAsc
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if f.Sort == model.FilterHot && a.HotScore != b.HotScore {
			return (a.HotScore < b.HotScore) == asc
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt) == asc
		}
		return (a.ID < b.ID) == asc
	})
	lo, hi := window(len(matched), f.Page)
	items := make([]model.Post, hi-lo)
	copy(items, matched[lo:hi])
	return repository.PageResult[model.Post]{Items: items, Total: len(matched)}, nil
}

func (r postRepo) AddViews(ctx context.Context, deltas map[int64]int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	applied := make(map[int64]int64, len(deltas))
	for id, d := range deltas {
		if p, ok := r.s.st.posts[id]; ok {
			p.ViewCount += d
			r.s.st.posts[id] = p
			applied[id] = d
		}
	}
	r.s.record(ctx, func(st *state) {
		for id, d := range applied {
			if p, ok := st.posts[id]; ok {
				p.ViewCount -= d
				st.posts[id] = p
			}
		}
	})
	return nil
}

func (r postRepo) ListEngagement(ctx context.Context, since time.Time) ([]model.PostEngagement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]model.PostEngagement, 0, len(r.s.st.posts))
	for _, p := range r.s.st.posts {
		if p.CreatedAt.Before(since) {
			continue
		}
		out = append(out, model.PostEngagement{
			ID: p.ID, ViewCount: p.ViewCount, LikeCount: p.LikeCount,
			CommentCount: p.CommentCount, CreatedAt: p.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r postRepo) UpdateHotScores(ctx context.Context, scores map[int64]float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prev := make(map[int64]float64, len(scores))
	for id, sc := range scores {
		if p, ok := r.s.st.posts[id]; ok {
			prev[id] = p.HotScore
			p.HotScore = sc
			r.s.st.posts[id] = p
		}
	}
	r.s.record(ctx, func(st *state) {
		for id, sc := range prev {
			if p, ok := st.posts[id]; ok {
				p.HotScore = sc
				st.posts[id] = p
			}
		}
	})
	return nil
}

// window clamps a page to [0,n) using the same limit rules as the Postgres backend.
func window(n int, p repository.Page) (int, int) {
	limit, offset := p.Limit, p.Offset
	if limit <= 0 {
		limit = model.DefaultLimit
	}
	if limit > model.MaxLimit {
		limit = model.MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	if offset > n {
		offset = n
	}
	end := offset + limit
	if end > n {
		end = n
	}
	return offset, end
}

var (
	_ repository.AuthorRepository = authorRepo{}
	_ repository.FollowRepository = followRepo{}
	_ repository.PostRepository   = postRepo{}
	_ repository.TxManager        = txManager{}
	_ repository.Pinger           = (*Store)(nil)
)
