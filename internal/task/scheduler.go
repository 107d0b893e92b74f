package task

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/maxviazov/author-feed-service/internal/config"
	"github.com/maxviazov/author-feed-service/internal/service"
)

// Scheduler owns the cron instance and the jobs registered on it.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
	jobs []string
}

// NewScheduler builds a seconds-aware cron with panic recovery, run logging and
// no overlapping runs of the same job.
func NewScheduler(log zerolog.Logger) *Scheduler {
	log = log.With().Str("component", "scheduler").Logger()
	cl := cronLogger{log: log}
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLogger(cl),
		cron.WithChain(
			NewPanicRecoveryWrapper(log),
			NewLoggingWrapper(log),
			cron.DelayIfStillRunning(cl),
		),
	)
	return &Scheduler{cron: c, log: log}
}

// Add registers job under a six-field cron spec.
func (s *Scheduler) Add(spec string, job Job) error {
	if _, err := s.cron.AddJob(spec, job); err != nil {
		return fmt.Errorf("register %s (%q): %w", job.Name(), spec, err)
	}
	s.jobs = append(s.jobs, job.Name())
	s.log.Info().Str("job", job.Name()).Str("schedule", spec).Msg("job registered")
	return nil
}

// Jobs lists registered job names in registration order.
func (s *Scheduler) Jobs() []string {
	out := make([]string, len(s.jobs))
	copy(out, s.jobs)
	return out
}

// RegisterEngagementJobs wires the view sync and hot score jobs from configuration.
func (s *Scheduler) RegisterEngagementJobs(cfg config.SchedulerConfig, svc service.EngagementService) error {
	if err := s.Add(cfg.SyncViewsSpec, NewSyncViewCountsJob(svc, s.log)); err != nil {
		return err
	}
	window := time.Duration(cfg.HotScoreWindowDays) * 24 * time.Hour
	return s.Add(cfg.HotScoreSpec, NewRefreshHotScoresJob(svc, window, s.log))
}

// Run starts the scheduler, blocks until ctx is done, then waits for running jobs.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	s.log.Info().Strs("jobs", s.jobs).Msg("scheduler started")
	<-ctx.Done()
	s.Stop()
	return nil
}

// Stop halts scheduling and waits for in-flight jobs to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}
