package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ── HTTP request metrics (RED method) ──────────────────────────────────

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "defiboard",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status_code"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "defiboard",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "defiboard",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being processed.",
	})
)

// ── Upstream fetch metrics ─────────────────────────────────────────────

var (
	UpstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "defiboard",
		Subsystem: "upstream",
		Name:      "requests_total",
		Help:      "Total upstream API requests per dataset.",
	}, []string{"dataset", "status"})

	UpstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "defiboard",
		Subsystem: "upstream",
		Name:      "request_duration_seconds",
		Help:      "Upstream API request latency per dataset in seconds.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"dataset"})
)

// ── Cache metrics ──────────────────────────────────────────────────────

var (
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "defiboard",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Cache hits per key.",
	}, []string{"key"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "defiboard",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Cache misses per key.",
	}, []string{"key"})
)

// ── Board / reputation metrics ─────────────────────────────────────────

var (
	CardsBuiltTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "defiboard",
		Subsystem: "board",
		Name:      "cards_built_total",
		Help:      "Cards produced per entity kind.",
	}, []string{"kind"})

	CardsDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "defiboard",
		Subsystem: "board",
		Name:      "cards_dropped_total",
		Help:      "Entities dropped during aggregation per reason.",
	}, []string{"kind", "reason"})

	ReputationLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "defiboard",
		Subsystem: "reputation",
		Name:      "lookups_total",
		Help:      "Reputation score lookups per outcome.",
	}, []string{"outcome"})
)
