// Package metrics holds the prometheus collectors of the ingest pipeline
// and the http api.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "covid_trends"

type Metrics struct {
	FragmentsRead  *prometheus.CounterVec // labels: source
	SourceErrors   *prometheus.CounterVec // labels: source
	SeriesMerged   prometheus.Counter
	MergeErrors    prometheus.Counter
	IngestDuration prometheus.Histogram
	CachedSeries   prometheus.Gauge

	RequestDuration *prometheus.HistogramVec // labels: method, route, status
}

func newMetrics() *Metrics {
	return &Metrics{
		FragmentsRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fragments_read_total",
			Help:      "Raw observations read per source.",
		}, []string{"source"}),
		SourceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_errors_total",
			Help:      "Source reads that failed and were skipped.",
		}, []string{"source"}),
		SeriesMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "series_merged_total",
			Help:      "Series merged and saved by the ingest pipeline.",
		}),
		MergeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merge_errors_total",
			Help:      "Series keys whose merge failed.",
		}),
		IngestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_duration_seconds",
			Help:      "Duration of a complete ingest run.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		CachedSeries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cached_series",
			Help:      "Series held by the in-memory cache.",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request duration by route and status.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route", "status"}),
	}
}

// NewMetrics creates the collectors and registers them with the default
// prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FragmentsRead,
		m.SourceErrors,
		m.SeriesMerged,
		m.MergeErrors,
		m.IngestDuration,
		m.CachedSeries,
		m.RequestDuration,
	)
	return m
}

// NewMetricsForTesting creates unregistered collectors so tests can build
// as many as they need.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
