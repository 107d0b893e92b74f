// Package task runs the periodic maintenance jobs on a cron scheduler.
package task

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/maxviazov/author-feed-service/internal/metrics"
	"github.com/maxviazov/author-feed-service/internal/service"
)

// Job is compatible with cron.Job and carries a stable name for logs and metrics.
type Job interface {
	Run()
	Name() string
}

// jobTimeout bounds one run so a stuck database call cannot hold the slot forever.
const jobTimeout = 30 * time.Second

func observe(name string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.JobRuns.WithLabelValues(name, status).Inc()
	metrics.JobDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}

// SyncViewCountsJob drains the buffered view counters into posts.view_count.
type SyncViewCountsJob struct {
	svc service.EngagementService
	log zerolog.Logger
}

func NewSyncViewCountsJob(svc service.EngagementService, log zerolog.Logger) *SyncViewCountsJob {
	return &SyncViewCountsJob{svc: svc, log: log}
}

func (j *SyncViewCountsJob) Name() string { return "sync_view_counts" }

func (j *SyncViewCountsJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	n, err := j.svc.SyncViewCounts(ctx)
	observe(j.Name(), start, err)
	if err != nil {
		j.log.Error().Err(err).Str("job", j.Name()).Msg("view sync failed")
		return
	}
	if n == 0 {
		j.log.Debug().Str("job", j.Name()).Msg("no pending views")
		return
	}
	j.log.Info().Str("job", j.Name()).Int("posts", n).Msg("view counts synced")
}

// RefreshHotScoresJob rescores posts created within the window.
type RefreshHotScoresJob struct {
	svc    service.EngagementService
	window time.Duration
	log    zerolog.Logger
}

func NewRefreshHotScoresJob(svc service.EngagementService, window time.Duration, log zerolog.Logger) *RefreshHotScoresJob {
	return &RefreshHotScoresJob{svc: svc, window: window, log: log}
}

func (j *RefreshHotScoresJob) Name() string { return "refresh_hot_scores" }

func (j *RefreshHotScoresJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	n, err := j.svc.RefreshHotScores(ctx, j.window)
	observe(j.Name(), start, err)
	if err != nil {
		j.log.Error().Err(err).Str("job", j.Name()).Msg("hot score refresh failed")
		return
	}
	j.log.Info().Str("job", j.Name()).Int("posts", n).Dur("window", j.window).Msg("hot scores refreshed")
}
