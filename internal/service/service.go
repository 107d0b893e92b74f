// Package service holds business logic orchestration across repositories and handlers.
// Kept intentionally lean: only use-case coordination, validation and domain error shaping.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/maxviazov/author-feed-service/internal/model"
)

// ErrInvalidInput is the marker error for aggregated validation failures (maps to HTTP 400).
// Field-level details are retrieved via FieldErrors(err).
var ErrInvalidInput = errors.New("invalid input")

// ErrUnauthenticated is returned when a use case needs a viewer and none was supplied (HTTP 401).
var ErrUnauthenticated = errors.New("authentication required")

// FieldError describes a single invalid field in a client request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// invalidInputError aggregates multiple FieldError instances and unwraps to ErrInvalidInput.
type invalidInputError struct {
	fields []FieldError
}

func (e *invalidInputError) Error() string        { return ErrInvalidInput.Error() }
func (e *invalidInputError) Unwrap() error        { return ErrInvalidInput }
func (e *invalidInputError) Fields() []FieldError { return e.fields }

// newInvalidInput builds an aggregated validation error if any field errors are present.
func newInvalidInput(fe []FieldError) error {
	if len(fe) == 0 { // protective case
		return nil
	}
	return &invalidInputError{fields: fe}
}

// InvalidInput wraps field errors produced outside this package, such as request binding.
func InvalidInput(fe ...FieldError) error {
	if len(fe) == 0 {
		return ErrInvalidInput
	}
	return newInvalidInput(fe)
}

// FieldErrors extracts field errors from an aggregated validation error.
func FieldErrors(err error) []FieldError {
	if err == nil {
		return nil
	}
	var v interface{ Fields() []FieldError }
	if errors.As(err, &v) && errors.Is(err, ErrInvalidInput) {
		return v.Fields()
	}
	return nil
}

// FollowService drives the follow control: toggle, explicit follow/unfollow and button state.
type FollowService interface {
	// Toggle flips the viewer's follow of author and returns the new state.
	// Concurrent toggles for the same pair collapse into one.
	Toggle(ctx context.Context, viewer, author uuid.UUID) (model.FollowState, error)
	Follow(ctx context.Context, viewer, author uuid.UUID) (model.FollowState, error)
	Unfollow(ctx context.Context, viewer, author uuid.UUID) (model.FollowState, error)
	// Button reports how the follow control renders for viewer (nil when anonymous).
	Button(ctx context.Context, viewer *uuid.UUID, author uuid.UUID, locale string) (model.FollowButton, error)
	Followers(ctx context.Context, author uuid.UUID, q model.ListQuery) (model.ListResponse[model.Author], error)
	Following(ctx context.Context, author uuid.UUID, q model.ListQuery) (model.ListResponse[model.Author], error)
}

// PostService defines post listing and publishing use cases.
type PostService interface {
	// List returns posts, optionally restricted to one author.
	List(ctx context.Context, q model.ListQuery, author *uuid.UUID) (model.ListResponse[model.Post], error)
	// Feed returns posts by authors the viewer follows.
	Feed(ctx context.Context, viewer uuid.UUID, q model.ListQuery) (model.ListResponse[model.Post], error)
	// Get returns one post and counts a view.
	Get(ctx context.Context, id int64) (model.Post, error)
	Create(ctx context.Context, author uuid.UUID, title, excerpt string) (model.Post, error)
}

// AuthorService defines author lookups.
type AuthorService interface {
	Get(ctx context.Context, id uuid.UUID) (model.Author, error)
}

// EngagementService maintains the derived post counters the background jobs own.
type EngagementService interface {
	// SyncViewCounts moves buffered views from the cache into storage and returns
	// how many posts were updated.
	SyncViewCounts(ctx context.Context) (int, error)
	// RefreshHotScores rescored posts created within window and returns how many.
	RefreshHotScores(ctx context.Context, window time.Duration) (int, error)
}
