package callcache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cacheHits tracks memoized-call hits by operation
	cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vsphere_cache_hits_total",
			Help: "Total number of memoized call cache hits",
		},
		[]string{"operation"},
	)

	// cacheMisses tracks misses (including expired entries) by operation
	cacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vsphere_cache_misses_total",
			Help: "Total number of memoized call cache misses",
		},
		[]string{"operation"},
	)

	// cacheFetchErrors tracks underlying call failures by operation
	cacheFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vsphere_cache_fetch_errors_total",
			Help: "Total number of underlying call failures on cache miss",
		},
		[]string{"operation"},
	)

	// cacheInvalidations tracks manual full invalidations
	cacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vsphere_cache_invalidations_total",
			Help: "Total number of manual cache invalidations",
		},
	)

	// cacheEntries tracks the current number of stored entries per cache
	// instance. Labeled so two caches in one process do not overwrite each
	// other's value.
	cacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vsphere_cache_entries",
			Help: "Current number of entries in the memoized call cache",
		},
		[]string{"cache"},
	)
)
