package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/author-feed-service/internal/model"
	"github.com/maxviazov/author-feed-service/internal/repository/contract"
)

func makeStore(t *testing.T) (contract.Store, func()) {
	s := NewStore()
	return contract.Store{
		Authors: s.Authors(),
		Follows: s.Follows(),
		Posts:   s.Posts(),
		Tx:      s.Tx(),
		Pinger:  s,
	}, func() {}
}

func TestRepositories_MemoryContract(t *testing.T) {
	contract.RunAll(t, makeStore)
}

func TestWithinTx_RollbackRevertsOnlyOwnWrites(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a, err := s.Authors().Create(ctx, model.Author{Username: "ada"})
	require.NoError(t, err)
	b, err := s.Authors().Create(ctx, model.Author{Username: "grace"})
	require.NoError(t, err)
	post, err := s.Posts().Create(ctx, model.Post{AuthorID: a.ID, Title: "hello"})
	require.NoError(t, err)
	_, err = s.Follows().Insert(ctx, a.ID, b.ID)
	require.NoError(t, err)

	errBoom := errors.New("boom")
	err = s.Tx().WithinTx(ctx, func(txCtx context.Context) error {
		_, err := s.Follows().Delete(txCtx, a.ID, b.ID)
		require.NoError(t, err)
		require.NoError(t, s.Posts().AddViews(txCtx, map[int64]int64{post.ID: 5}))
		require.NoError(t, s.Posts().UpdateHotScores(txCtx, map[int64]float64{post.ID: 9}))
		// a concurrent request commits on its own context
		require.NoError(t, s.Posts().AddViews(ctx, map[int64]int64{post.ID: 2}))
		_, err = s.Follows().Insert(ctx, b.ID, a.ID)
		require.NoError(t, err)
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	got, err := s.Posts().GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ViewCount)
	assert.Zero(t, got.HotScore)

	ok, err := s.Follows().Exists(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok, "deleted follow restored")
	ok, err = s.Follows().Exists(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, ok, "outside follow kept")
}
