package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/maxviazov/author-feed-service/internal/model"
)

// RawListQuery carries listing parameters exactly as the client sent them.
type RawListQuery struct {
	Page   string
	Limit  string
	Period string
	Filter string
	Order  string
}

// ParseListQuery validates raw parameters and fills defaults for the missing ones.
// A limit above model.MaxLimit is clamped rather than rejected.
func ParseListQuery(raw RawListQuery) (model.ListQuery, error) {
	q := model.DefaultListQuery()
	var ferrs []FieldError

	if s := strings.TrimSpace(raw.Page); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			ferrs = append(ferrs, FieldError{Field: "page", Message: "must be an integer >= 1"})
		} else {
			q.Page = n
		}
	}
	if s := strings.TrimSpace(raw.Limit); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			ferrs = append(ferrs, FieldError{Field: "limit", Message: "must be an integer >= 1"})
		} else {
			q.Limit = min(n, model.MaxLimit)
		}
	}
	if s := strings.ToLower(strings.TrimSpace(raw.Period)); s != "" {
		if p := model.Period(s); p.Valid() {
			q.Period = p
		} else {
			ferrs = append(ferrs, FieldError{Field: "period", Message: fmt.Sprintf("must be one of %v", model.Periods)})
		}
	}
	if s := strings.ToLower(strings.TrimSpace(raw.Filter)); s != "" {
		if f := model.Filter(s); f.Valid() {
			q.Filter = f
		} else {
			ferrs = append(ferrs, FieldError{Field: "filter", Message: fmt.Sprintf("must be one of %v", model.Filters)})
		}
	}
	if s := strings.ToLower(strings.TrimSpace(raw.Order)); s != "" {
		if o := model.OrderBy(s); o.Valid() {
			q.Order = o
		} else {
			ferrs = append(ferrs, FieldError{Field: "order", Message: "must be asc or desc"})
		}
	}
	if err := newInvalidInput(ferrs); err != nil {
		return model.ListQuery{}, err
	}
	return q, nil
}

// normalizeQuery fills zero values of a programmatically built query with defaults.
func normalizeQuery(q model.ListQuery) model.ListQuery {
	d := model.DefaultListQuery()
	if q.Page < 1 {
		q.Page = d.Page
	}
	if q.Limit < 1 {
		q.Limit = d.Limit
	}
	if q.Limit > model.MaxLimit {
		q.Limit = model.MaxLimit
	}
	if !q.Period.Valid() {
		q.Period = d.Period
	}
	if !q.Filter.Valid() {
		q.Filter = d.Filter
	}
	if !q.Order.Valid() {
		q.Order = d.Order
	}
	return q
}

// ParseAuthorID parses a path parameter as an author id.
func ParseAuthorID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, newInvalidInput([]FieldError{{Field: "id", Message: "must be a valid author id"}})
	}
	return id, nil
}

// ParsePostID parses a path parameter as a post id.
func ParsePostID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, newInvalidInput([]FieldError{{Field: "id", Message: "must be > 0"}})
	}
	return id, nil
}
