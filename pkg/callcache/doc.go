// Package callcache memoizes the results of expensive, idempotent vSphere
// API calls within a single process.
//
// The cache stores the result of a call keyed by the operation name and a
// canonical representation of its arguments, with the following features:
//
// - Deterministic, collision-resistant key derivation (SHA-256 over canonical JSON)
// - A single shared TTL; freshness is always evaluated at read time
// - Failures are never cached; they propagate to the caller unchanged
// - Total manual invalidation for use after mutations
// - Concurrent misses for the same key collapse into one underlying call
// - Prometheus metrics for observability
//
// # Basic Usage
//
//	c := callcache.New(callcache.Options{
//		Enabled: true,
//		TTL:     15 * time.Second,
//	})
//
//	key := callcache.CallKey{
//		Operation: "vsphere.vm_info",
//		Args:      []any{session, "vm-42"},
//	}
//
//	value, err := c.Do(ctx, key, func(ctx context.Context) (any, error) {
//		// Expensive remote call, only runs on a miss.
//		return fetchVMProperties(ctx, "vm-42")
//	})
//
// # Typed Call Sites
//
//	info, err := callcache.Fetch(ctx, c, key, func(ctx context.Context) (*VMInfo, error) {
//		return fetchVMProperties(ctx, "vm-42")
//	})
//
// # Argument Canonicalization
//
// Every argument in CallKey.Args must have a stable, value-based JSON
// representation. Stateful handles (connections, sessions) must not be used
// directly; pass a small summary of the fields that influence call results
// instead, such as vsphere.SessionIdentity (target host plus authenticated
// principal). An argument that cannot be canonicalized is a contract
// violation and surfaces as an error from Do rather than a silent miss.
//
// # Invalidation
//
// Callers that mutate remote state the key scheme cannot express must call
// InvalidateAll afterwards; otherwise a later lookup with identical
// arguments would replay the pre-mutation result for up to one TTL window.
//
// # Consistency Model
//
// Results may be stale for up to the configured TTL. The cache assumes the
// wrapped call is a pure function of its arguments within that window and
// makes no attempt to detect remote state changes. Each process owns an
// independent cache; there is no cross-process sharing or persistence.
//
// # Metrics
//
// The cache exports Prometheus metrics:
//
//   - vsphere_cache_hits_total{operation} - Cache hits
//   - vsphere_cache_misses_total{operation} - Cache misses
//   - vsphere_cache_fetch_errors_total{operation} - Underlying call failures
//   - vsphere_cache_invalidations_total - Manual full invalidations
//   - vsphere_cache_entries - Current number of cached entries, by cache instance
package callcache
