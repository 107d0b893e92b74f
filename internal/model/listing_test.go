package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/author-feed-service/internal/model"
)

func TestNewListResponse_Invariants(t *testing.T) {
	cases := []struct {
		name      string
		items     int
		total     int
		page      int
		limit     int
		wantPages int
		wantLen   int
		wantPage  int
		wantLimit int
	}{
		{"exact multiple", 10, 30, 1, 10, 3, 10, 1, 10},
		{"remainder rounds up", 1, 31, 4, 10, 4, 1, 4, 10},
		{"empty", 0, 0, 1, 10, 0, 0, 1, 10},
		{"data trimmed to limit", 12, 12, 1, 5, 3, 5, 1, 5},
		{"page zero normalized", 3, 3, 0, 10, 1, 3, 1, 10},
		{"limit zero uses default", 3, 25, 1, 0, 3, 3, 1, model.DefaultLimit},
		{"single item", 1, 1, 1, 1, 1, 1, 1, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := make([]int, tc.items)
			res := model.NewListResponse(data, tc.total, tc.page, tc.limit)
			assert.Equal(t, tc.wantPages, res.TotalPages)
			assert.Len(t, res.Data, tc.wantLen)
			assert.Equal(t, tc.wantPage, res.Page)
			assert.Equal(t, tc.wantLimit, res.Limit)
			assert.LessOrEqual(t, len(res.Data), res.Limit)
			assert.GreaterOrEqual(t, res.Page, 1)
		})
	}
}

func TestTotalPages_MatchesCeil(t *testing.T) {
	for total := 0; total <= 57; total++ {
		for limit := 1; limit <= 13; limit++ {
			want := total / limit
			if total%limit != 0 {
				want++
			}
			if got := model.TotalPages(total, limit); got != want {
				t.Fatalf("TotalPages(%d,%d)=%d want %d", total, limit, got, want)
			}
		}
	}
}

func TestListResponse_EmptyDataEncodesAsArray(t *testing.T) {
	res := model.NewListResponse[model.Post](nil, 0, 1, 10)
	raw, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[],"total":0,"page":1,"totalPages":0,"limit":10}`, string(raw))
}

func TestPeriod_Since(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

	since, ok := model.PeriodThisWeek.Since(now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC), since)

	since, ok = model.PeriodThisMonth.Since(now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 2, 15, 12, 0, 0, 0, time.UTC), since)

	since, ok = model.PeriodThisYear.Since(now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC), since)

	_, ok = model.PeriodInfinity.Since(now)
	assert.False(t, ok)
}

func TestEnumerations_Valid(t *testing.T) {
	for _, p := range model.Periods {
		assert.True(t, p.Valid(), string(p))
	}
	for _, f := range model.Filters {
		assert.True(t, f.Valid(), string(f))
	}
	assert.False(t, model.Period("day").Valid())
	assert.False(t, model.Filter("trending").Valid())
	assert.False(t, model.OrderBy("random").Valid())
	assert.True(t, model.OrderAsc.Valid())
	assert.True(t, model.OrderDesc.Valid())
}

func TestListQuery_Offset(t *testing.T) {
	q := model.DefaultListQuery()
	assert.Equal(t, 0, q.Offset())
	q.Page, q.Limit = 3, 20
	assert.Equal(t, 40, q.Offset())
	q.Page = 0
	assert.Equal(t, 0, q.Offset())
}

func TestActionResult_ExactlyOneSide(t *testing.T) {
	ok := model.ActionOK(model.FollowState{Following: true})
	assert.True(t, ok.OK())
	assert.Nil(t, ok.Error)

	failed := model.ActionFailed[model.FollowState](nil)
	assert.False(t, failed.OK())
	assert.Nil(t, failed.Data)
	assert.NotNil(t, failed.Error)

	raw, err := json.Marshal(ok)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"error"`)
}
