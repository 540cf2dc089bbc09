package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lfti/trustindex/pkg/trust"
)

// Metrics tracks scoring activity for the dashboard server. Each instance
// carries its own registry so repeated construction never collides.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal         prometheus.Counter
	sourcesScored     *prometheus.CounterVec
	insufficientTotal prometheus.Counter
	runDuration       prometheus.Histogram
	composite         prometheus.Histogram
}

// New creates and registers the scoring metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trustindex_runs_total",
			Help: "Total scoring runs completed",
		}),
		sourcesScored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trustindex_sources_scored_total",
			Help: "Total sources scored, by assigned grade",
		}, []string{"grade"}),
		insufficientTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trustindex_sources_insufficient_total",
			Help: "Total sources with no usable data at scoring time",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustindex_run_duration_seconds",
			Help:    "Scoring run duration",
			Buckets: prometheus.DefBuckets,
		}),
		composite: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustindex_composite_score",
			Help:    "Distribution of composite scores",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
	}

	m.registry.MustRegister(
		m.runsTotal,
		m.sourcesScored,
		m.insufficientTotal,
		m.runDuration,
		m.composite,
	)
	return m
}

// RecordRun folds one completed scoring run into the counters.
func (m *Metrics) RecordRun(scores []trust.CompositeScore, duration time.Duration) {
	m.runsTotal.Inc()
	m.runDuration.Observe(duration.Seconds())

	for _, cs := range scores {
		m.sourcesScored.WithLabelValues(string(cs.Grade)).Inc()
		if cs.Insufficient {
			m.insufficientTotal.Inc()
			continue
		}
		m.composite.Observe(cs.Composite)
	}
}

// Handler serves this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
