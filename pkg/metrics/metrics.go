// Package metrics defines the Prometheus metric collectors used across the
// service and the server that exposes them for scraping.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	ScoreRequestsTotal   *prometheus.CounterVec
	OverlapScores        prometheus.Histogram
	KeywordSetSize       *prometheus.HistogramVec
	ScoringDuration      prometheus.Histogram
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	DocumentsExtracted   *prometheus.CounterVec
	AnalysesStoredTotal  *prometheus.CounterVec
	EventsDroppedTotal   prometheus.Counter
}

// New creates all collectors and registers them with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates all collectors and registers them with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		ScoreRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "score_requests_total",
				Help: "Keyword overlap computations by result: ok, degenerate, invalid or error.",
			},
			[]string{"result"},
		),
		OverlapScores: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "overlap_score_percent",
				Help:    "Distribution of keyword overlap scores.",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
		),
		KeywordSetSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "keyword_set_size",
				Help:    "Number of unique keywords per document side.",
				Buckets: []float64{0, 5, 10, 25, 50, 100, 250, 500, 1000},
			},
			[]string{"side"},
		),
		ScoringDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "scoring_duration_seconds",
				Help:    "Time spent normalising and comparing two documents.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of score cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of score cache misses.",
			},
		),
		DocumentsExtracted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "documents_extracted_total",
				Help: "Text extractions by document type and status.",
			},
			[]string{"type", "status"},
		),
		AnalysesStoredTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analyses_stored_total",
				Help: "Analysis persistence attempts by status.",
			},
			[]string{"status"},
		),
		EventsDroppedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "analytics_events_dropped_total",
				Help: "Analytics events dropped because the buffer was full.",
			},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.ScoreRequestsTotal,
		m.OverlapScores,
		m.KeywordSetSize,
		m.ScoringDuration,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.DocumentsExtracted,
		m.AnalysesStoredTotal,
		m.EventsDroppedTotal,
	)

	return m
}

