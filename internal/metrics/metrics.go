// Package metrics provides Prometheus metrics for snapshot runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors for snapshot run outcomes. It implements the
// invoker Reporter contract, so it can be fanned in next to the log
// reporter.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal      *prometheus.CounterVec
	RecordsWritten *prometheus.CounterVec
	RunDuration    *prometheus.HistogramVec
}

// New creates and registers all snapshot metrics on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snapforge_runs_total",
				Help: "Total number of snapshot runs by outcome",
			},
			[]string{"rule", "outcome"},
		),
		RecordsWritten: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snapforge_records_written_total",
				Help: "Total number of target records persisted (live runs only)",
			},
			[]string{"rule"},
		),
		RunDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "snapforge_run_duration_seconds",
				Help:    "Duration of snapshot runs in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"rule"},
		),
	}
}

// RunCompleted records a finished run. Dry runs count as their own outcome
// and do not add to RecordsWritten, since their writes were rolled back.
func (m *Metrics) RunCompleted(ruleID string, records int, dryRun bool, elapsed time.Duration) {
	outcome := "live"
	if dryRun {
		outcome = "dry_run"
	} else {
		m.RecordsWritten.WithLabelValues(ruleID).Add(float64(records))
	}
	m.RunsTotal.WithLabelValues(ruleID, outcome).Inc()
	m.RunDuration.WithLabelValues(ruleID).Observe(elapsed.Seconds())
}

// RunFailed records a failed run.
func (m *Metrics) RunFailed(ruleID string, err error, elapsed time.Duration) {
	m.RunsTotal.WithLabelValues(ruleID, "error").Inc()
	m.RunDuration.WithLabelValues(ruleID).Observe(elapsed.Seconds())
}

// Handler returns the HTTP handler serving this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
