package service_test

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/author-feed-service/internal/cache"
	"github.com/maxviazov/author-feed-service/internal/i18n"
	"github.com/maxviazov/author-feed-service/internal/model"
	"github.com/maxviazov/author-feed-service/internal/repository"
	"github.com/maxviazov/author-feed-service/internal/repository/memory"
	"github.com/maxviazov/author-feed-service/internal/service"
)

type followFixture struct {
	store *memory.Store
	cache *cache.Memory
	keys  cache.Keys
	svc   service.FollowService
}

func newFollowFixture(t *testing.T) *followFixture {
	t.Helper()
	tr, err := i18n.New(validator.New())
	require.NoError(t, err)
	store := memory.NewStore()
	c := cache.NewMemory(0)
	t.Cleanup(c.Close)
	keys := cache.Keys{Prefix: "test:"}
	svc := service.NewFollowService(store.Authors(), store.Follows(), store.Tx(), c, keys, tr, zerolog.New(io.Discard))
	return &followFixture{store: store, cache: c, keys: keys, svc: svc}
}

func (f *followFixture) author(t *testing.T, name string) uuid.UUID {
	t.Helper()
	a, err := f.store.Authors().Create(context.Background(), model.Author{Username: name})
	require.NoError(t, err)
	return a.ID
}

func TestFollowService_ToggleFlipsAndReturns(t *testing.T) {
	f := newFollowFixture(t)
	ctx := context.Background()
	viewer, author := f.author(t, "viewer"), f.author(t, "author")

	st, err := f.svc.Toggle(ctx, viewer, author)
	require.NoError(t, err)
	assert.True(t, st.Following)
	assert.Equal(t, 1, st.FollowersCount)
	assert.Equal(t, author, st.AuthorID)

	st, err = f.svc.Toggle(ctx, viewer, author)
	require.NoError(t, err)
	assert.False(t, st.Following)
	assert.Equal(t, 0, st.FollowersCount)

	ok, err := f.store.Follows().Exists(ctx, viewer, author)
	require.NoError(t, err)
	assert.False(t, ok, "two toggles must restore the original state")
}

func TestFollowService_ExplicitOpsAreIdempotent(t *testing.T) {
	f := newFollowFixture(t)
	ctx := context.Background()
	viewer, author := f.author(t, "viewer"), f.author(t, "author")

	for i := 0; i < 2; i++ {
		st, err := f.svc.Follow(ctx, viewer, author)
		require.NoError(t, err)
		assert.True(t, st.Following)
		assert.Equal(t, 1, st.FollowersCount)
	}
	for i := 0; i < 2; i++ {
		st, err := f.svc.Unfollow(ctx, viewer, author)
		require.NoError(t, err)
		assert.False(t, st.Following)
		assert.Equal(t, 0, st.FollowersCount)
	}
}

func TestFollowService_InvalidatesCachedFollowerCount(t *testing.T) {
	f := newFollowFixture(t)
	ctx := context.Background()
	author := f.author(t, "author")
	fans := make([]uuid.UUID, 3)
	for i := range fans {
		fans[i] = f.author(t, fmt.Sprintf("fan%d", i))
		_, err := f.svc.Follow(ctx, fans[i], author)
		require.NoError(t, err)
	}
	raw, err := f.cache.Get(ctx, f.keys.Followers(author))
	require.NoError(t, err)
	assert.Empty(t, raw, "changes drop the cached count")

	// a no-op follow reads through and fills the cache
	st, err := f.svc.Follow(ctx, fans[0], author)
	require.NoError(t, err)
	assert.Equal(t, 3, st.FollowersCount)
	raw, err = f.cache.Get(ctx, f.keys.Followers(author))
	require.NoError(t, err)
	assert.Equal(t, "3", raw)

	_, err = f.svc.Unfollow(ctx, fans[1], author)
	require.NoError(t, err)
	raw, err = f.cache.Get(ctx, f.keys.Followers(author))
	require.NoError(t, err)
	assert.Empty(t, raw)
}

// slowSetCache holds back the first Set issued while hold is on until release is closed.
type slowSetCache struct {
	cache.Cache
	hold    atomic.Bool
	used    atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (c *slowSetCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c.hold.Load() && c.used.CompareAndSwap(false, true) {
		close(c.entered)
		<-c.release
	}
	return c.Cache.Set(ctx, key, value, ttl)
}

func TestFollowService_ConcurrentFollowsKeepCountFresh(t *testing.T) {
	tr, err := i18n.New(validator.New())
	require.NoError(t, err)
	store := memory.NewStore()
	mem := cache.NewMemory(0)
	t.Cleanup(mem.Close)
	slow := &slowSetCache{Cache: mem, entered: make(chan struct{}), release: make(chan struct{})}
	slow.hold.Store(true)
	svc := service.NewFollowService(store.Authors(), store.Follows(), store.Tx(), slow, cache.Keys{Prefix: "test:"}, tr, zerolog.New(io.Discard))

	ctx := context.Background()
	mk := func(name string) uuid.UUID {
		a, err := store.Authors().Create(ctx, model.Author{Username: name})
		require.NoError(t, err)
		return a.ID
	}
	author, fanA, fanB := mk("author"), mk("fan-a"), mk("fan-b")

	doneA := make(chan error, 1)
	go func() {
		_, err := svc.Follow(ctx, fanA, author)
		doneA <- err
	}()
	// either A finished or its cache write is parked behind B
	select {
	case err := <-doneA:
		require.NoError(t, err)
		doneA <- nil
	case <-slow.entered:
	}

	_, err = svc.Follow(ctx, fanB, author)
	require.NoError(t, err)

	slow.hold.Store(false)
	close(slow.release)
	require.NoError(t, <-doneA)

	st, err := svc.Follow(ctx, fanA, author)
	require.NoError(t, err)
	assert.True(t, st.Following)
	assert.Equal(t, 2, st.FollowersCount)
}

func TestFollowService_Errors(t *testing.T) {
	f := newFollowFixture(t)
	ctx := context.Background()
	viewer := f.author(t, "viewer")

	t.Run("anonymous", func(t *testing.T) {
		_, err := f.svc.Toggle(ctx, uuid.Nil, viewer)
		assert.ErrorIs(t, err, service.ErrUnauthenticated)
	})
	t.Run("self follow", func(t *testing.T) {
		_, err := f.svc.Toggle(ctx, viewer, viewer)
		require.ErrorIs(t, err, service.ErrInvalidInput)
		fes := service.FieldErrors(err)
		require.Len(t, fes, 1)
		assert.Equal(t, "id", fes[0].Field)
	})
	t.Run("missing author", func(t *testing.T) {
		_, err := f.svc.Toggle(ctx, viewer, uuid.New())
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
	t.Run("nil author", func(t *testing.T) {
		_, err := f.svc.Follow(ctx, viewer, uuid.Nil)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})
}

func TestFollowService_Button(t *testing.T) {
	f := newFollowFixture(t)
	ctx := context.Background()
	viewer, author := f.author(t, "viewer"), f.author(t, "author")

	btn, err := f.svc.Button(ctx, &viewer, author, "en")
	require.NoError(t, err)
	assert.False(t, btn.Following)
	assert.False(t, btn.Busy)
	assert.Equal(t, "FOLLOW", btn.Label)
	assert.Equal(t, "en", btn.Locale)

	_, err = f.svc.Toggle(ctx, viewer, author)
	require.NoError(t, err)

	btn, err = f.svc.Button(ctx, &viewer, author, "ru")
	require.NoError(t, err)
	assert.True(t, btn.Following)
	assert.Equal(t, "ОТПИСАТЬСЯ", btn.Label)

	anon, err := f.svc.Button(ctx, nil, author, "en")
	require.NoError(t, err)
	assert.False(t, anon.Following)
	assert.Equal(t, "FOLLOW", anon.Label)

	_, err = f.svc.Button(ctx, &viewer, uuid.New(), "en")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFollowService_FollowerAndFollowingLists(t *testing.T) {
	f := newFollowFixture(t)
	ctx := context.Background()
	star := f.author(t, "star")
	for i := 0; i < 12; i++ {
		_, err := f.svc.Follow(ctx, f.author(t, fmt.Sprintf("fan%02d", i)), star)
		require.NoError(t, err)
	}

	q := model.DefaultListQuery()
	q.Page, q.Limit = 2, 5
	res, err := f.svc.Followers(ctx, star, q)
	require.NoError(t, err)
	assert.Equal(t, 12, res.Total)
	assert.Equal(t, 3, res.TotalPages)
	assert.Equal(t, 2, res.Page)
	assert.Len(t, res.Data, 5)

	q.Page = 3
	res, err = f.svc.Followers(ctx, star, q)
	require.NoError(t, err)
	assert.Len(t, res.Data, 2)

	following, err := f.svc.Following(ctx, star, model.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 0, following.Total)
	assert.NotNil(t, following.Data)
	assert.Equal(t, model.DefaultLimit, following.Limit)

	_, err = f.svc.Followers(ctx, uuid.New(), q)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
