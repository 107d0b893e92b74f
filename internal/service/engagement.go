package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/maxviazov/author-feed-service/internal/cache"
	"github.com/maxviazov/author-feed-service/internal/metrics"
	"github.com/maxviazov/author-feed-service/internal/model"
	"github.com/maxviazov/author-feed-service/internal/repository"
)

// Hot score weights.
const (
	likeWeight    = 3.0
	commentWeight = 2.0
	viewWeight    = 0.1
	ageOffsetHrs  = 2.0
	gravity       = 1.5
)

// HotScore ranks a post by engagement decayed by age:
// (likes*3 + comments*2 + views*0.1) / (age_hours + 2)^1.5.
func HotScore(e model.PostEngagement, now time.Time) float64 {
	age := now.Sub(e.CreatedAt).Hours()
	if age < 0 {
		age = 0
	}
	points := float64(e.LikeCount)*likeWeight + float64(e.CommentCount)*commentWeight + float64(e.ViewCount)*viewWeight
	return points / math.Pow(age+ageOffsetHrs, gravity)
}

type engagementService struct {
	posts repository.PostRepository
	cache cache.Cache
	keys  cache.Keys
	now   func() time.Time
	log   zerolog.Logger
}

func NewEngagementService(posts repository.PostRepository, c cache.Cache, keys cache.Keys, logger zerolog.Logger) EngagementService {
	l := logger.With().Str("module", "service").Str("component", "engagement").Logger()
	return &engagementService{posts: posts, cache: c, keys: keys, now: time.Now, log: l}
}

func (s *engagementService) SyncViewCounts(ctx context.Context) (int, error) {
	keys, err := s.cache.Scan(ctx, s.keys.PostViewsPattern())
	if err != nil {
		return 0, fmt.Errorf("scan view counters: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	counts, err := s.cache.GetAndDeleteMany(ctx, keys)
	if err != nil {
		return 0, fmt.Errorf("drain view counters: %w", err)
	}

	deltas := make(map[int64]int64, len(counts))
	var total int64
	for key, n := range counts {
		id, ok := s.keys.PostIDFromViews(key)
		if !ok || n <= 0 {
			s.log.Warn().Str("key", key).Int64("value", n).Msg("skipping malformed view counter")
			continue
		}
		deltas[id] += n
		total += n
	}
	if len(deltas) == 0 {
		return 0, nil
	}

	if err := s.posts.AddViews(ctx, deltas); err != nil {
		s.restoreViews(ctx, deltas)
		return 0, fmt.Errorf("apply view counters: %w", err)
	}
	metrics.ViewsSynced.Add(float64(total))
	s.log.Info().Int("posts", len(deltas)).Int64("views", total).Msg("view counters synced")
	return len(deltas), nil
}

// restoreViews puts drained counts back so the next run retries them.
func (s *engagementService) restoreViews(ctx context.Context, deltas map[int64]int64) {
	ctx = context.WithoutCancel(ctx)
	for id, n := range deltas {
		if _, err := s.cache.IncrementBy(ctx, s.keys.PostViews(id), n); err != nil {
			s.log.Error().Err(err).Int64("post_id", id).Int64("views", n).Msg("lost view counts after failed sync")
		}
	}
}

func (s *engagementService) RefreshHotScores(ctx context.Context, window time.Duration) (int, error) {
	now := s.now()
	rows, err := s.posts.ListEngagement(ctx, now.Add(-window))
	if err != nil {
		return 0, fmt.Errorf("load engagement: %w", err)
	}
	if len(rows) == 0 {
		metrics.HotScoresUpdated.Set(0)
		return 0, nil
	}
	scores := make(map[int64]float64, len(rows))
	for _, r := range rows {
		scores[r.ID] = HotScore(r, now)
	}
	if err := s.posts.UpdateHotScores(ctx, scores); err != nil {
		return 0, fmt.Errorf("store hot scores: %w", err)
	}
	metrics.HotScoresUpdated.Set(float64(len(scores)))
	s.log.Info().Int("posts", len(scores)).Dur("window", window).Msg("hot scores refreshed")
	return len(scores), nil
}
