// Package contract holds behavior suites every repository implementation must pass.
// Backends wire them up with a factory that returns a clean repository.
package contract

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/maxviazov/author-feed-service/internal/model"
	"github.com/maxviazov/author-feed-service/internal/repository"
)

// Store bundles the repositories a suite needs from one backend.
type Store struct {
	Authors repository.AuthorRepository
	Follows repository.FollowRepository
	Posts   repository.PostRepository
	Tx      repository.TxManager
	Pinger  repository.Pinger
}

// StoreFactory returns an empty store and a cleanup func.
type StoreFactory func(t *testing.T) (Store, func())

func seedAuthor(t *testing.T, ctx context.Context, s Store, username string) model.Author {
	t.Helper()
	a, err := s.Authors.Create(ctx, model.Author{Username: username, DisplayName: username})
	if err != nil {
		t.Fatalf("seed author %s: %v", username, err)
	}
	return a
}

func RunAuthorRepositoryContract(t *testing.T, makeStore StoreFactory) {
	t.Helper()

	t.Run("create_and_get", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		created := seedAuthor(t, ctx, s, "ada")
		if created.ID == uuid.Nil {
			t.Fatalf("expected generated id")
		}
		got, err := s.Authors.GetByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.ID != created.ID || got.Username != "ada" {
			t.Fatalf("mismatch: %+v", got)
		}
		if got.FollowersCount != 0 || got.FollowingCount != 0 {
			t.Fatalf("expected zero counts, got %+v", got)
		}
	})

	t.Run("get_not_found", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		_, err := s.Authors.GetByID(context.Background(), uuid.New())
		if err != repository.ErrNotFound {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("duplicate_username", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		seedAuthor(t, ctx, s, "dup")
		_, err := s.Authors.Create(ctx, model.Author{Username: "dup"})
		if err != repository.ErrAlreadyExists {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("exists", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		a := seedAuthor(t, ctx, s, "here")
		ok, err := s.Authors.Exists(ctx, a.ID)
		if err != nil || !ok {
			t.Fatalf("expected exists, got %v %v", ok, err)
		}
		ok, err = s.Authors.Exists(ctx, uuid.New())
		if err != nil || ok {
			t.Fatalf("expected missing, got %v %v", ok, err)
		}
	})

	t.Run("followers_and_following_pages", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		star := seedAuthor(t, ctx, s, "star")
		for i := 0; i < 5; i++ {
			fan := seedAuthor(t, ctx, s, fmt.Sprintf("fan-%d", i))
			if _, err := s.Follows.Insert(ctx, fan.ID, star.ID); err != nil {
				t.Fatalf("follow: %v", err)
			}
		}
		res, err := s.Authors.ListFollowers(ctx, star.ID, repository.Page{Limit: 2, Offset: 0})
		if err != nil {
			t.Fatalf("list followers: %v", err)
		}
		if len(res.Items) != 2 || res.Total != 5 {
			t.Fatalf("unexpected page: len=%d total=%d", len(res.Items), res.Total)
		}
		last, err := s.Authors.ListFollowers(ctx, star.ID, repository.Page{Limit: 2, Offset: 4})
		if err != nil {
			t.Fatalf("last page: %v", err)
		}
		if len(last.Items) != 1 || last.Total != 5 {
			t.Fatalf("unexpected last page: len=%d total=%d", len(last.Items), last.Total)
		}
		past, err := s.Authors.ListFollowers(ctx, star.ID, repository.Page{Limit: 2, Offset: 10})
		if err != nil {
			t.Fatalf("past page: %v", err)
		}
		if len(past.Items) != 0 || past.Total != 5 {
			t.Fatalf("past-the-end page should keep total: len=%d total=%d", len(past.Items), past.Total)
		}
		following, err := s.Authors.ListFollowing(ctx, res.Items[0].ID, repository.Page{Limit: 10})
		if err != nil {
			t.Fatalf("list following: %v", err)
		}
		if following.Total != 1 || following.Items[0].ID != star.ID {
			t.Fatalf("unexpected following: %+v", following)
		}
		got, err := s.Authors.GetByID(ctx, star.ID)
		if err != nil {
			t.Fatalf("get star: %v", err)
		}
		if got.FollowersCount != 5 {
			t.Fatalf("expected 5 followers, got %d", got.FollowersCount)
		}
	})
}

func RunFollowRepositoryContract(t *testing.T, makeStore StoreFactory) {
	t.Helper()

	t.Run("insert_is_idempotent", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		a, b := seedAuthor(t, ctx, s, "a"), seedAuthor(t, ctx, s, "b")
		created, err := s.Follows.Insert(ctx, a.ID, b.ID)
		if err != nil || !created {
			t.Fatalf("first insert: created=%v err=%v", created, err)
		}
		created, err = s.Follows.Insert(ctx, a.ID, b.ID)
		if err != nil || created {
			t.Fatalf("second insert should be a no-op: created=%v err=%v", created, err)
		}
		n, err := s.Follows.CountFollowers(ctx, b.ID)
		if err != nil || n != 1 {
			t.Fatalf("expected 1 follower, got %d (%v)", n, err)
		}
	})

	t.Run("delete_is_idempotent", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		a, b := seedAuthor(t, ctx, s, "a"), seedAuthor(t, ctx, s, "b")
		if _, err := s.Follows.Insert(ctx, a.ID, b.ID); err != nil {
			t.Fatalf("insert: %v", err)
		}
		deleted, err := s.Follows.Delete(ctx, a.ID, b.ID)
		if err != nil || !deleted {
			t.Fatalf("delete: deleted=%v err=%v", deleted, err)
		}
		deleted, err = s.Follows.Delete(ctx, a.ID, b.ID)
		if err != nil || deleted {
			t.Fatalf("second delete should be a no-op: deleted=%v err=%v", deleted, err)
		}
		ok, err := s.Follows.Exists(ctx, a.ID, b.ID)
		if err != nil || ok {
			t.Fatalf("edge should be gone: %v %v", ok, err)
		}
	})

	t.Run("direction_matters", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		a, b := seedAuthor(t, ctx, s, "a"), seedAuthor(t, ctx, s, "b")
		if _, err := s.Follows.Insert(ctx, a.ID, b.ID); err != nil {
			t.Fatalf("insert: %v", err)
		}
		ok, err := s.Follows.Exists(ctx, b.ID, a.ID)
		if err != nil || ok {
			t.Fatalf("reverse edge must not exist: %v %v", ok, err)
		}
	})

	t.Run("self_follow_rejected", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		a := seedAuthor(t, ctx, s, "narcissus")
		if _, err := s.Follows.Insert(ctx, a.ID, a.ID); err != repository.ErrConflict {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("unknown_author_conflict", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		a := seedAuthor(t, ctx, s, "a")
		if _, err := s.Follows.Insert(ctx, a.ID, uuid.New()); err != repository.ErrConflict {
			t.Fatalf("expected ErrConflict on FK violation, got %v", err)
		}
	})
}

func RunPostRepositoryContract(t *testing.T, makeStore StoreFactory) {
	t.Helper()

	seedPosts := func(t *testing.T, ctx context.Context, s Store, author model.Author, n int) []model.Post {
		t.Helper()
		out := make([]model.Post, 0, n)
		for i := 0; i < n; i++ {
			p, err := s.Posts.Create(ctx, model.Post{AuthorID: author.ID, Title: fmt.Sprintf("post %d", i)})
			if err != nil {
				t.Fatalf("seed post %d: %v", i, err)
			}
			out = append(out, p)
		}
		return out
	}

	t.Run("create_get", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		a := seedAuthor(t, ctx, s, "writer")
		p, err := s.Posts.Create(ctx, model.Post{AuthorID: a.ID, Title: "Hello", Excerpt: "<p>hi</p>"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		got, err := s.Posts.GetByID(ctx, p.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Title != "Hello" || got.AuthorID != a.ID || got.CreatedAt.IsZero() {
			t.Fatalf("mismatch: %+v", got)
		}
		if _, err := s.Posts.GetByID(ctx, p.ID+1000); err != repository.ErrNotFound {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("list_pagination_and_order", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		a := seedAuthor(t, ctx, s, "writer")
		posts := seedPosts(t, ctx, s, a, 7)

		res, err := s.Posts.List(ctx, repository.PostFilter{Page: repository.Page{Limit: 3}, Sort: model.FilterLasted, Order: model.OrderDesc})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(res.Items) != 3 || res.Total != 7 {
			t.Fatalf("unexpected page: len=%d total=%d", len(res.Items), res.Total)
		}
		if res.Items[0].ID != posts[6].ID {
			t.Fatalf("expected newest first, got id=%d", res.Items[0].ID)
		}
		asc, err := s.Posts.List(ctx, repository.PostFilter{Page: repository.Page{Limit: 3}, Sort: model.FilterLasted, Order: model.OrderAsc})
		if err != nil {
			t.Fatalf("list asc: %v", err)
		}
		if asc.Items[0].ID != posts[0].ID {
			t.Fatalf("expected oldest first, got id=%d", asc.Items[0].ID)
		}
	})

	t.Run("hot_sort_uses_scores", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		a := seedAuthor(t, ctx, s, "writer")
		posts := seedPosts(t, ctx, s, a, 3)
		if err := s.Posts.UpdateHotScores(ctx, map[int64]float64{posts[0].ID: 9, posts[1].ID: 1, posts[2].ID: 5}); err != nil {
			t.Fatalf("update scores: %v", err)
		}
		res, err := s.Posts.List(ctx, repository.PostFilter{Page: repository.Page{Limit: 10}, Sort: model.FilterHot, Order: model.OrderDesc})
		if err != nil {
			t.Fatalf("list hot: %v", err)
		}
		if res.Items[0].ID != posts[0].ID || res.Items[2].ID != posts[1].ID {
			t.Fatalf("unexpected hot order: %d %d %d", res.Items[0].ID, res.Items[1].ID, res.Items[2].ID)
		}
	})

	t.Run("author_and_feed_filters", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		a, b, reader := seedAuthor(t, ctx, s, "a"), seedAuthor(t, ctx, s, "b"), seedAuthor(t, ctx, s, "reader")
		seedPosts(t, ctx, s, a, 2)
		seedPosts(t, ctx, s, b, 3)
		if _, err := s.Follows.Insert(ctx, reader.ID, b.ID); err != nil {
			t.Fatalf("follow: %v", err)
		}
		byA, err := s.Posts.List(ctx, repository.PostFilter{Page: repository.Page{Limit: 10}, AuthorID: &a.ID})
		if err != nil || byA.Total != 2 {
			t.Fatalf("author filter: total=%d err=%v", byA.Total, err)
		}
		feed, err := s.Posts.List(ctx, repository.PostFilter{Page: repository.Page{Limit: 10}, FollowerID: &reader.ID})
		if err != nil || feed.Total != 3 {
			t.Fatalf("feed filter: total=%d err=%v", feed.Total, err)
		}
		for _, p := range feed.Items {
			if p.AuthorID != b.ID {
				t.Fatalf("feed leaked post from %s", p.AuthorID)
			}
		}
	})

	t.Run("since_filter", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		a := seedAuthor(t, ctx, s, "writer")
		seedPosts(t, ctx, s, a, 2)
		future := time.Now().Add(time.Hour)
		res, err := s.Posts.List(ctx, repository.PostFilter{Page: repository.Page{Limit: 10}, Since: &future})
		if err != nil || res.Total != 0 || len(res.Items) != 0 {
			t.Fatalf("expected nothing after future bound: total=%d err=%v", res.Total, err)
		}
	})

	t.Run("add_views_and_engagement", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		a := seedAuthor(t, ctx, s, "writer")
		posts := seedPosts(t, ctx, s, a, 2)
		if err := s.Posts.AddViews(ctx, map[int64]int64{posts[0].ID: 4, posts[1].ID: 1}); err != nil {
			t.Fatalf("add views: %v", err)
		}
		if err := s.Posts.AddViews(ctx, map[int64]int64{posts[0].ID: 2}); err != nil {
			t.Fatalf("add views 2: %v", err)
		}
		got, err := s.Posts.GetByID(ctx, posts[0].ID)
		if err != nil || got.ViewCount != 6 {
			t.Fatalf("expected 6 views, got %d (%v)", got.ViewCount, err)
		}
		eng, err := s.Posts.ListEngagement(ctx, time.Now().Add(-time.Hour))
		if err != nil || len(eng) != 2 {
			t.Fatalf("engagement: len=%d err=%v", len(eng), err)
		}
	})
}

func RunTxManagerContract(t *testing.T, makeStore StoreFactory) {
	t.Helper()

	t.Run("commit_on_nil_error", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		var createdID uuid.UUID
		err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
			out, err := s.Authors.Create(ctx, model.Author{Username: "tx-commit"})
			if err != nil {
				return err
			}
			createdID = out.ID
			return nil
		})
		if err != nil {
			t.Fatalf("WithinTx: %v", err)
		}
		if _, err := s.Authors.GetByID(ctx, createdID); err != nil {
			t.Fatalf("expected committed row visible, got err=%v", err)
		}
	})

	t.Run("rollback_on_error", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		var createdID uuid.UUID
		errMarker := errors.New("boom")
		err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
			out, err := s.Authors.Create(ctx, model.Author{Username: "tx-rollback"})
			if err != nil {
				return err
			}
			createdID = out.ID
			return errMarker
		})
		if !errors.Is(err, errMarker) {
			t.Fatalf("expected marker error, got %v", err)
		}
		if _, err := s.Authors.GetByID(ctx, createdID); err != repository.ErrNotFound {
			t.Fatalf("expected ErrNotFound after rollback, got %v", err)
		}
	})

	t.Run("nested_call_joins_outer_unit", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		var innerID uuid.UUID
		errMarker := errors.New("boom")
		err := s.Tx.WithinTx(ctx, func(outer context.Context) error {
			if err := s.Tx.WithinTx(outer, func(inner context.Context) error {
				out, err := s.Authors.Create(inner, model.Author{Username: "tx-nested"})
				innerID = out.ID
				return err
			}); err != nil {
				return err
			}
			// the inner write is visible to the outer unit before it commits
			if _, err := s.Authors.GetByID(outer, innerID); err != nil {
				return err
			}
			return errMarker
		})
		if !errors.Is(err, errMarker) {
			t.Fatalf("expected marker error, got %v", err)
		}
		if _, err := s.Authors.GetByID(ctx, innerID); err != repository.ErrNotFound {
			t.Fatalf("inner write committed on its own, got err=%v", err)
		}
	})

	t.Run("rollback_keeps_writes_outside_tx", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		a := seedAuthor(t, ctx, s, "tx-a")
		b := seedAuthor(t, ctx, s, "tx-b")
		var bystander model.Author
		errMarker := errors.New("boom")
		err := s.Tx.WithinTx(ctx, func(txCtx context.Context) error {
			var err error
			// committed on its own, not part of this unit
			bystander, err = s.Authors.Create(ctx, model.Author{Username: "tx-bystander"})
			if err != nil {
				return err
			}
			if _, err := s.Follows.Insert(ctx, b.ID, a.ID); err != nil {
				return err
			}
			if _, err := s.Follows.Insert(txCtx, a.ID, b.ID); err != nil {
				return err
			}
			return errMarker
		})
		if !errors.Is(err, errMarker) {
			t.Fatalf("expected marker error, got %v", err)
		}
		if _, err := s.Authors.GetByID(ctx, bystander.ID); err != nil {
			t.Fatalf("bystander author lost on rollback: %v", err)
		}
		if ok, _ := s.Follows.Exists(ctx, b.ID, a.ID); !ok {
			t.Fatalf("follow committed outside the unit was rolled back")
		}
		if ok, _ := s.Follows.Exists(ctx, a.ID, b.ID); ok {
			t.Fatalf("follow made inside the unit survived rollback")
		}
	})
}

func RunPingerContract(t *testing.T, makeStore StoreFactory) {
	t.Helper()
	t.Run("ping_ok", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		if err := s.Pinger.Ping(context.Background()); err != nil {
			t.Fatalf("expected ping ok, got %v", err)
		}
	})
}

// RunAll runs every suite against one backend.
func RunAll(t *testing.T, makeStore StoreFactory) {
	t.Run("authors", func(t *testing.T) { RunAuthorRepositoryContract(t, makeStore) })
	t.Run("follows", func(t *testing.T) { RunFollowRepositoryContract(t, makeStore) })
	t.Run("posts", func(t *testing.T) { RunPostRepositoryContract(t, makeStore) })
	t.Run("tx", func(t *testing.T) { RunTxManagerContract(t, makeStore) })
	t.Run("pinger", func(t *testing.T) { RunPingerContract(t, makeStore) })
}
