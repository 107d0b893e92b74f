// Package model contains domain entities and DTOs used across layers.
// I keep it lean and focused on data shapes without behavior.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Author is a user who publishes posts and can be followed.
// Follower and following counts are derived, never stored on the row.
type Author struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	DisplayName    string    `json:"display_name"`
	Bio            string    `json:"bio"`
	FollowersCount int       `json:"followers_count"`
	FollowingCount int       `json:"following_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// Post is a published article. Excerpt may carry HTML and is sanitized before it leaves the API.
type Post struct {
	ID           int64     `json:"id"`
	AuthorID     uuid.UUID `json:"author_id"`
	Title        string    `json:"title"`
	Excerpt      string    `json:"excerpt"`
	ViewCount    int64     `json:"view_count"`
	LikeCount    int64     `json:"like_count"`
	CommentCount int64     `json:"comment_count"`
	HotScore     float64   `json:"hot_score"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Follow is a directed edge of the social graph: FollowerID follows FolloweeID.
type Follow struct {
	FollowerID uuid.UUID `json:"follower_id"`
	FolloweeID uuid.UUID `json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// FollowState is what a follow mutation reports back to the caller.
type FollowState struct {
	AuthorID       uuid.UUID `json:"author_id"`
	Following      bool      `json:"following"`
	FollowersCount int       `json:"followers_count"`
}

// FollowButton describes how a client should render the follow control for one author.
// Busy is true while a toggle for the same viewer/author pair is still being applied.
type FollowButton struct {
	AuthorID  uuid.UUID `json:"author_id"`
	Following bool      `json:"following"`
	Busy      bool      `json:"busy"`
	Label     string    `json:"label"`
	Locale    string    `json:"locale"`
}

// PostEngagement is the input of the hot score calculation.
type PostEngagement struct {
	ID           int64
	ViewCount    int64
	LikeCount    int64
	CommentCount int64
	CreatedAt    time.Time
}
