// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "author_feed"

var (
	// --- HTTP ---
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status code",
	}, []string{"route", "method", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and method",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	RateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_rate_limited_total",
		Help:      "Requests rejected by the per-client rate limiter",
	})

	// --- follow graph ---
	// result: followed, unfollowed, unchanged
	FollowMutations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "follow_mutations_total",
		Help:      "Follow mutations by operation and result",
	}, []string{"op", "result"})

	// Concurrent duplicate toggles that joined an in-flight one.
	FollowCoalesced = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "follow_toggles_coalesced_total",
		Help:      "Follow toggles answered by an already running toggle for the same pair",
	})

	// --- background jobs ---
	JobRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "job_runs_total",
		Help:      "Scheduled job runs by job and status",
	}, []string{"job", "status"})

	JobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "job_duration_seconds",
		Help:      "Scheduled job duration",
		Buckets:   []float64{.01, .05, .1, .5, 1, 5, 15, 60},
	}, []string{"job"})

	ViewsSynced = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "post_views_synced_total",
		Help:      "Post views moved from the cache into the database",
	})

	HotScoresUpdated = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "post_hot_scores_last_updated",
		Help:      "Posts rescored by the last hot score refresh",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequests, HTTPDuration, RateLimited,
		FollowMutations, FollowCoalesced,
		JobRuns, JobDuration, ViewsSynced, HotScoresUpdated,
	)
}
