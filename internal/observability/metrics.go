package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// anomaly ingestion service.
type Metrics struct {
	ReportsIngested  prometheus.Counter
	ReportsPublished prometheus.Counter
	PublishFailures  prometheus.Counter
	IngestFailures   *prometheus.CounterVec   // labels: stage={decode,anomaly,address,merge,persist}
	BranchDuration   *prometheus.HistogramVec // labels: branch={anomaly,address}

	// Model call metrics.
	ModelRequests *prometheus.CounterVec   // labels: op={describe,structure_anomaly,structure_address,extract_streets,compose_answer}, outcome={success,error}
	ModelDuration *prometheus.HistogramVec // labels: op

	// Geocoding metrics.
	GeocodeRequests *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache    *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeDuration prometheus.Histogram

	// Matcher and session metrics.
	MatcherQueries  prometheus.Counter
	MatcherMatches  prometheus.Histogram
	SessionsCreated prometheus.Counter
	ActiveSessions  prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ReportsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "city_anomaly",
			Name:      "reports_ingested_total",
			Help:      "Total anomaly reports assembled and persisted.",
		}),
		ReportsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "city_anomaly",
			Name:      "reports_published_total",
			Help:      "Total reports published to the Kafka feed topic.",
		}),
		PublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "city_anomaly",
			Name:      "publish_failures_total",
			Help:      "Total failed publishes to the Kafka feed topic.",
		}),
		IngestFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "city_anomaly",
			Name:      "ingest_failures_total",
			Help:      "Ingestion failures by pipeline stage.",
		}, []string{"stage"}),
		BranchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "city_anomaly",
			Name:      "branch_duration_seconds",
			Help:      "Duration of the concurrent structuring branches.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"branch"}),
		ModelRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "city_anomaly",
			Name:      "model_requests_total",
			Help:      "Gemini API requests by operation and outcome.",
		}, []string{"op", "outcome"}),
		ModelDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "city_anomaly",
			Name:      "model_request_duration_seconds",
			Help:      "Gemini API request duration in seconds.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"op"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "city_anomaly",
			Name:      "geocode_requests_total",
			Help:      "Reverse geocoding requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "city_anomaly",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "city_anomaly",
			Name:      "geocode_duration_seconds",
			Help:      "Reverse geocoding request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		MatcherQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "city_anomaly",
			Name:      "matcher_queries_total",
			Help:      "Total historical match queries.",
		}),
		MatcherMatches: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "city_anomaly",
			Name:      "matcher_matches",
			Help:      "De-duplicated matches returned per query.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
		SessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "city_anomaly",
			Name:      "sessions_created_total",
			Help:      "Total conversation sessions created.",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "city_anomaly",
			Name:      "active_sessions",
			Help:      "Conversation sessions currently held in memory.",
		}),
	}

	prometheus.MustRegister(
		m.ReportsIngested,
		m.ReportsPublished,
		m.PublishFailures,
		m.IngestFailures,
		m.BranchDuration,
		m.ModelRequests,
		m.ModelDuration,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeDuration,
		m.MatcherQueries,
		m.MatcherMatches,
		m.SessionsCreated,
		m.ActiveSessions,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ReportsIngested:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "city_anomaly", Name: "reports_ingested_total"}),
		ReportsPublished: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "city_anomaly", Name: "reports_published_total"}),
		PublishFailures:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "city_anomaly", Name: "publish_failures_total"}),
		IngestFailures:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "city_anomaly", Name: "ingest_failures_total"}, []string{"stage"}),
		BranchDuration:   prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "city_anomaly", Name: "branch_duration_seconds"}, []string{"branch"}),
		ModelRequests:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "city_anomaly", Name: "model_requests_total"}, []string{"op", "outcome"}),
		ModelDuration:    prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "city_anomaly", Name: "model_request_duration_seconds"}, []string{"op"}),
		GeocodeRequests:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "city_anomaly", Name: "geocode_requests_total"}, []string{"outcome"}),
		GeocodeCache:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "city_anomaly", Name: "geocode_cache_total"}, []string{"result"}),
		GeocodeDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "city_anomaly", Name: "geocode_duration_seconds"}),
		MatcherQueries:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "city_anomaly", Name: "matcher_queries_total"}),
		MatcherMatches:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "city_anomaly", Name: "matcher_matches"}),
		SessionsCreated:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "city_anomaly", Name: "sessions_created_total"}),
		ActiveSessions:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "city_anomaly", Name: "active_sessions"}),
	}
}
