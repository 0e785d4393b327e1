package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(cacheInvalidationsTotal) }

var cacheInvalidationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cache_invalidations_total",
		Help: "Cache invalidation attempts by result.",
	},
	[]string{"result"}, // ok|error
)

func IncCacheInvalidation(result string) {
	cacheInvalidationsTotal.WithLabelValues(norm(result)).Inc()
}
