package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/maxviazov/author-feed-service/internal/model"
)

// Pinger represents a minimal readiness probe capability.
// I use it to decouple health checks from storage implementation details.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TxFunc is the unit of work executed within a transaction boundary.
// I pass context through so nested calls can honor cancellations and deadlines.
type TxFunc func(ctx context.Context) error

// TxManager abstracts transactional execution for repositories that support it.
// I prefer a single entry point to keep transaction boundaries explicit and testable.
type TxManager interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}

// AuthorRepository declares persistence operations for authors.
// Returned authors carry derived follower/following counts.
type AuthorRepository interface {
	Create(ctx context.Context, a model.Author) (model.Author, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.Author, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// ListFollowers returns authors following id, newest follow first.
	ListFollowers(ctx context.Context, id uuid.UUID, p Page) (PageResult[model.Author], error)
	// ListFollowing returns authors followed by id, newest follow first.
	ListFollowing(ctx context.Context, id uuid.UUID, p Page) (PageResult[model.Author], error)
}

// FollowRepository declares operations on the follow edge table.
// Insert and Delete are idempotent and report whether they changed anything.
type FollowRepository interface {
	Exists(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)
	Insert(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)
	Delete(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)
	CountFollowers(ctx context.Context, followeeID uuid.UUID) (int, error)
}

// PostFilter narrows and orders a post listing.
type PostFilter struct {
	Page  Page
	Since *time.Time
	Sort  model.Filter
	Order model.OrderBy
	// AuthorID restricts to one author's posts.
	AuthorID *uuid.UUID
	// FollowerID restricts to posts by authors FollowerID follows.
	FollowerID *uuid.UUID
}

// PostRepository declares persistence operations for posts.
type PostRepository interface {
	Create(ctx context.Context, p model.Post) (model.Post, error)
	GetByID(ctx context.Context, id int64) (model.Post, error)
	List(ctx context.Context, f PostFilter) (PageResult[model.Post], error)
	// AddViews increments view counters by the given deltas in one round trip.
	AddViews(ctx context.Context, deltas map[int64]int64) error
	// ListEngagement returns the hot score inputs of posts created at or after since.
	ListEngagement(ctx context.Context, since time.Time) ([]model.PostEngagement, error)
	UpdateHotScores(ctx context.Context, scores map[int64]float64) error
}
