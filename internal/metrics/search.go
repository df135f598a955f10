package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Search pipeline Prometheus metrics.
var (
	CacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "schooldex",
			Name:      "cache_requests_total",
			Help:      "Result cache lookups by request kind and outcome",
		},
		[]string{"kind", "result"}, // result: "hit" / "miss"
	)

	CacheSetErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "schooldex",
			Name:      "cache_set_errors_total",
			Help:      "Result cache writes that failed and were skipped",
		},
		[]string{"kind"},
	)

	CacheInvalidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "schooldex",
			Name:      "cache_invalidations_total",
			Help:      "Result cache invalidations by type",
		},
		[]string{"type"}, // "tag" / "clear"
	)

	StoreQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "schooldex",
			Name:      "store_query_duration_seconds",
			Help:      "Entity store query duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"op", "status"},
	)

	QueryRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "schooldex",
			Name:      "query_requests_total",
			Help:      "Façade requests by kind and outcome",
		},
		[]string{"kind", "status"},
	)
)

var registerSearchOnce sync.Once

// RegisterSearchMetrics registers the search pipeline metrics. Safe to call more than once.
func RegisterSearchMetrics() {
	registerSearchOnce.Do(func() {
		prometheus.MustRegister(
			CacheRequestsTotal,
			CacheSetErrorsTotal,
			CacheInvalidationsTotal,
			StoreQueryDuration,
			QueryRequestsTotal,
		)
	})
}
