// Package metrics exposes prometheus instruments for the client layers.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts outbound requests by method and status class.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voltswap",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Outbound HTTP requests.",
	}, []string{"method", "status"})

	// HTTPDuration observes outbound request latency.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "voltswap",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Outbound HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	// CacheHits counts query reads served from fresh cache entries.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "voltswap",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Query reads served from cache.",
	})

	// CacheMisses counts query reads that went to the network.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "voltswap",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Query reads that fetched from the backend.",
	})

	// CacheInvalidations counts keys marked stale by mutations.
	CacheInvalidations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "voltswap",
		Subsystem: "cache",
		Name:      "invalidations_total",
		Help:      "Cache keys invalidated by mutations or events.",
	})
)

// StatusLabel renders an HTTP status for the requests counter. Zero means no
// response was received.
func StatusLabel(status int) string {
	if status == 0 {
		return "unreachable"
	}
	return strconv.Itoa(status)
}
