// Package metrics exposes Prometheus collectors for the reachability search
// engine: query latency, cells finalized, terrain intersection checks, and
// tile cache hit rate.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector registered by the service.
type Metrics struct {
	SearchDuration       prometheus.Histogram
	SearchCellsFinalized prometheus.Histogram
	SearchErrors         *prometheus.CounterVec

	IntersectionChecks prometheus.Counter
	NeighborUpdates    *prometheus.CounterVec

	TileCacheHits    prometheus.Counter
	TileCacheMisses  prometheus.Counter
	TileCacheEvicted prometheus.Counter

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

var (
	global     *Metrics
	globalOnce sync.Once
)

// Get returns the process-wide Metrics instance, registering its
// collectors with the default Prometheus registry on first call.
func Get() *Metrics {
	globalOnce.Do(func() {
		global = newMetrics()
	})
	return global
}

func newMetrics() *Metrics {
	m := &Metrics{}

	m.SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "glidecone",
		Subsystem: "search",
		Name:      "duration_seconds",
		Help:      "Wall-clock duration of a reachability search.",
		Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	})

	m.SearchCellsFinalized = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "glidecone",
		Subsystem: "search",
		Name:      "cells_finalized",
		Help:      "Number of grid cells popped from the frontier and finalized per search.",
		Buckets:   prometheus.ExponentialBuckets(64, 2, 14),
	})

	m.SearchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "glidecone",
		Subsystem: "search",
		Name:      "errors_total",
		Help:      "Total search failures by cause.",
	}, []string{"reason"})

	m.IntersectionChecks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "glidecone",
		Subsystem: "search",
		Name:      "intersection_checks_total",
		Help:      "Total terrain line-of-sight intersection probes performed.",
	})

	m.NeighborUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "glidecone",
		Subsystem: "search",
		Name:      "neighbor_updates_total",
		Help:      "Total neighbor relaxations by arity (single, two, three).",
	}, []string{"kind"})

	m.TileCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "glidecone",
		Subsystem: "tile_cache",
		Name:      "hits_total",
		Help:      "Total tile cache hits.",
	})
	m.TileCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "glidecone",
		Subsystem: "tile_cache",
		Name:      "misses_total",
		Help:      "Total tile cache misses requiring a disk load.",
	})
	m.TileCacheEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "glidecone",
		Subsystem: "tile_cache",
		Name:      "evicted_total",
		Help:      "Total tiles evicted under LRU pressure.",
	})

	m.HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "glidecone",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests by route and status class.",
	}, []string{"route", "status"})

	m.HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "glidecone",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"route"})

	return m
}

// Handler returns the HTTP handler serving the /metrics scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware wraps next with request-count and duration instrumentation,
// labeling by route rather than raw path to keep cardinality bounded.
func (m *Metrics) Middleware(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		m.HTTPRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		m.HTTPRequestsTotal.WithLabelValues(route, statusClass(rec.status)).Inc()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
