// Package metrics declares the Prometheus collectors shared across cinerec.
//
// Collectors register on the default registry; `cinerec serve` exposes them
// at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SimilarityBuildDuration tracks how long a full matrix build takes.
	SimilarityBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cinerec_similarity_build_duration_seconds",
			Help:    "Duration of similarity matrix builds in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	// RecommendationsTotal counts ranker queries by outcome (ok, not_found).
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinerec_recommendations_total",
			Help: "Total number of recommendation queries",
		},
		[]string{"outcome"},
	)

	// TMDbRequestsTotal counts TMDb API calls by endpoint and result.
	TMDbRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinerec_tmdb_requests_total",
			Help: "Total number of TMDb API requests",
		},
		[]string{"endpoint", "result"},
	)

	// TMDbRequestDuration tracks TMDb round-trip latency.
	TMDbRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinerec_tmdb_request_duration_seconds",
			Help:    "Duration of TMDb API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// CircuitBreakerState is 0 closed, 1 half-open, 2 open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cinerec_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// CacheRequestsTotal counts response cache lookups by backend and result (hit, miss).
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinerec_cache_requests_total",
			Help: "Total number of response cache lookups",
		},
		[]string{"backend", "result"},
	)

	// ReviewsScrapedTotal counts review page fetches by result.
	ReviewsScrapedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinerec_reviews_scraped_total",
			Help: "Total number of review page fetches",
		},
		[]string{"result"},
	)

	// SentimentTotal counts classified reviews by label and classifier.
	SentimentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinerec_sentiment_total",
			Help: "Total number of classified reviews",
		},
		[]string{"label", "classifier"},
	)

	// HTTPRequestsTotal counts API requests by route pattern and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinerec_http_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"route", "code"},
	)

	// HTTPRequestDuration tracks API handler latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinerec_http_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)
