package model

import (
	"time"
)

// Listing defaults shared by every paginated endpoint.
const (
	DefaultLimit = 10
	DefaultPage  = 1
	MaxLimit     = 100
)

// Period is the time window a listing is restricted to.
type Period string

const (
	PeriodThisWeek  Period = "week"
	PeriodThisMonth Period = "month"
	PeriodThisYear  Period = "year"
	PeriodInfinity  Period = "infinity"
)

// Periods lists every accepted Period in display order.
var Periods = []Period{PeriodThisWeek, PeriodThisMonth, PeriodThisYear, PeriodInfinity}

// Valid reports whether p is one of the declared periods.
func (p Period) Valid() bool {
	switch p {
	case PeriodThisWeek, PeriodThisMonth, PeriodThisYear, PeriodInfinity:
		return true
	default:
		return false
	}
}

// Since returns the lower creation bound for the period relative to now.
// The second value is false for PeriodInfinity, which has no bound.
func (p Period) Since(now time.Time) (time.Time, bool) {
	switch p {
	case PeriodThisWeek:
		return now.AddDate(0, 0, -7), true
	case PeriodThisMonth:
		return now.AddDate(0, -1, 0), true
	case PeriodThisYear:
		return now.AddDate(-1, 0, 0), true
	default:
		return time.Time{}, false
	}
}

// Filter selects the sort criterion of a listing.
type Filter string

const (
	// FilterLasted orders by creation time. The spelling is part of the public contract.
	FilterLasted Filter = "lasted"
	FilterHot    Filter = "hot"
)

// Filters lists every accepted Filter.
var Filters = []Filter{FilterLasted, FilterHot}

// Valid reports whether f is one of the declared filters.
func (f Filter) Valid() bool {
	return f == FilterLasted || f == FilterHot
}

// OrderBy is the sort direction.
type OrderBy string

const (
	OrderAsc  OrderBy = "asc"
	OrderDesc OrderBy = "desc"
)

// Valid reports whether o is asc or desc.
func (o OrderBy) Valid() bool {
	return o == OrderAsc || o == OrderDesc
}

// ListResponse is the envelope every paginated endpoint returns.
// Build it with NewListResponse so TotalPages and the Data length stay consistent.
type ListResponse[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
	Limit      int `json:"limit"`
}

// NewListResponse normalizes page and limit, trims data to limit and computes TotalPages
// as ceil(total/limit). Data is never nil so it encodes as [] instead of null.
func NewListResponse[T any](data []T, total, page, limit int) ListResponse[T] {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if total < 0 {
		total = 0
	}
	if len(data) > limit {
		data = data[:limit]
	}
	if data == nil {
		data = []T{}
	}
	return ListResponse[T]{
		Data:       data,
		Total:      total,
		Page:       page,
		TotalPages: TotalPages(total, limit),
		Limit:      limit,
	}
}

// TotalPages returns ceil(total/limit), or 0 when limit is not positive.
func TotalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// ListQuery is the normalized form of a listing request.
type ListQuery struct {
	Page   int
	Limit  int
	Period Period
	Filter Filter
	Order  OrderBy
}

// DefaultListQuery returns the query used when a client sends no parameters.
func DefaultListQuery() ListQuery {
	return ListQuery{
		Page:   DefaultPage,
		Limit:  DefaultLimit,
		Period: PeriodInfinity,
		Filter: FilterLasted,
		Order:  OrderDesc,
	}
}

// Offset is the number of rows to skip for the query's page.
func (q ListQuery) Offset() int {
	if q.Page < 1 || q.Limit < 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

// ActionResult is the outcome of a mutation: Data on success, Error on failure.
// Use ActionOK and ActionFailed so exactly one of them is set.
type ActionResult[T any] struct {
	Data  *T  `json:"data,omitempty"`
	Error any `json:"error,omitempty"`
}

// ActionOK wraps a successful result.
func ActionOK[T any](v T) ActionResult[T] {
	return ActionResult[T]{Data: &v}
}

// ActionFailed wraps a failure. A nil err is replaced by a generic marker so the
// result never ends up with neither field set.
func ActionFailed[T any](err any) ActionResult[T] {
	if err == nil {
		err = "unknown_error"
	}
	return ActionResult[T]{Error: err}
}

// OK reports whether the action succeeded.
func (r ActionResult[T]) OK() bool { return r.Data != nil && r.Error == nil }
