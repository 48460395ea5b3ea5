// Package metrics provides the Prometheus registry and HTTP handler for the
// vSphere client cache. All metrics are defined in their respective packages
// (callcache, vsphere) to maintain modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Call Cache Metrics (pkg/callcache):
//   - vsphere_cache_hits_total{operation} (Counter): Memoized call hits by operation
//   - vsphere_cache_misses_total{operation} (Counter): Misses, including expired entries
//   - vsphere_cache_fetch_errors_total{operation} (Counter): Underlying call failures on miss
//   - vsphere_cache_invalidations_total (Counter): Manual full invalidations
//   - vsphere_cache_entries (Gauge): Current number of stored entries, by cache instance
//
// Request Metrics (pkg/vsphere):
//   - vsphere_requests_total{operation, status} (Counter): vCenter calls by operation and status
//   - vsphere_request_duration_seconds{operation} (Histogram): Call duration by operation
//
// Retry Metrics (pkg/vsphere):
//   - vsphere_retries_total{error_class} (Counter): Retry attempts by error class
//   - vsphere_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - vsphere_retry_exhausted_total{error_class} (Counter): Calls that exhausted max retries
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(vsphere_cache_hits_total[5m])) /
//   (sum(rate(vsphere_cache_hits_total[5m])) + sum(rate(vsphere_cache_misses_total[5m])))
//
//   # Remote Calls Avoided Per Second
//   sum(rate(vsphere_cache_hits_total[5m]))
//
//   # P95 Call Latency
//   histogram_quantile(0.95, rate(vsphere_request_duration_seconds_bucket[5m]))
//
//   # Retry Pressure
//   rate(vsphere_retries_total[5m])
