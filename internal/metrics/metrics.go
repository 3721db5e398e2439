package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "match_predictor"

// Cache lookup results
const (
	CacheHit        = "hit"
	CacheMiss       = "miss"
	CacheExpired    = "expired"
	CacheError      = "error"
	CacheUnroutable = "unroutable"
)

// Reasons a raw match is dropped during extraction
const (
	DropDecode       = "decode"
	DropTeams        = "teams"
	DropCommenceTime = "commence_time"
	DropIncomplete   = "incomplete_odds"
)

// Metrics holds the counters of one prediction run. Each instance owns its
// registry so a batch run can push exactly what it recorded.
type Metrics struct {
	registry *prometheus.Registry

	CacheLookups     *prometheus.CounterVec
	CacheWriteErrors prometheus.Counter
	FetchFailures    *prometheus.CounterVec
	LeaguesSkipped   prometheus.Counter
	MatchesDropped   *prometheus.CounterVec
	MatchesExtracted prometheus.Counter
	SinkFailures     *prometheus.CounterVec
	RunDuration      prometheus.Gauge
	LastRunSuccess   prometheus.Gauge
}

// New creates the run metrics on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by result.",
		}, []string{"result"}),
		CacheWriteErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_write_errors_total",
			Help:      "Failed cache writes.",
		}),
		FetchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Failed odds API fetches by kind.",
		}, []string{"kind"}),
		LeaguesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leagues_skipped_total",
			Help:      "Leagues with no usable payload.",
		}),
		MatchesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_dropped_total",
			Help:      "Raw matches dropped during extraction by reason.",
		}, []string{"reason"}),
		MatchesExtracted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_extracted_total",
			Help:      "Normalized matches inside the window.",
		}),
		SinkFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_failures_total",
			Help:      "Report sinks that failed to emit.",
		}, []string{"sink"}),
		RunDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last prediction run.",
		}),
		LastRunSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
	}
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Push sends every metric to a Prometheus Pushgateway under the given job
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}
