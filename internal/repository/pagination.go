package repository

import "github.com/maxviazov/author-feed-service/internal/model"

// Page represents a simple limit/offset window for listing operations.
// I keep it intentionally small; filtering and sorting travel separately in PostFilter.
type Page struct {
	Limit  int
	Offset int
}

// PageFor translates a client-facing page/limit pair into a limit/offset window.
func PageFor(q model.ListQuery) Page {
	return Page{Limit: q.Limit, Offset: q.Offset()}
}

// PageResult carries a slice of items and the total count matching the query.
// I return the total so clients can compute pagination without an extra round trip.
type PageResult[T any] struct {
	Items []T
	Total int
}
