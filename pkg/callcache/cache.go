package callcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is the freshness window used when none is configured.
const DefaultTTL = 15 * time.Second

// ErrNilFetch is returned when Do is called without a fetch function.
var ErrNilFetch = errors.New("fetch function cannot be nil")

// FetchFunc performs the underlying (possibly remote) call on a cache miss.
type FetchFunc func(ctx context.Context) (any, error)

// Options holds cache configuration.
type Options struct {
	// Enabled toggles memoization. When false, Do is a pure pass-through:
	// every call runs the underlying fetch and the cache is never read or
	// written. Default: false.
	Enabled bool

	// TTL is the freshness window for stored entries.
	// Zero or negative falls back to DefaultTTL.
	TTL time.Duration

	// Name distinguishes this instance in the entries gauge when a process
	// runs more than one cache. Empty means "default".
	Name string
}

// Cache memoizes results of idempotent remote calls for the lifetime of the
// process. One instance is shared by all callers in a process; construct it
// once and pass it down rather than reaching for package-level state.
type Cache struct {
	mu      sync.Mutex
	entries map[string]Entry
	ttl     time.Duration
	enabled bool
	name    string

	group  singleflight.Group
	logger zerolog.Logger
}

// New creates a cache. The zero Options value matches the hosting
// environment's defaults: caching disabled, 15 second TTL.
func New(opts Options) *Cache {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	name := opts.Name
	if name == "" {
		name = "default"
	}

	return &Cache{
		entries: make(map[string]Entry),
		ttl:     ttl,
		enabled: opts.Enabled,
		name:    name,
		logger:  log.With().Str("component", "callcache").Str("cache", name).Logger(),
	}
}

// Do returns the memoized result for key if one is present and fresh;
// otherwise it runs fetch, stores the result on success, and returns it.
//
// A failed fetch is never stored: the error propagates unchanged and the
// next call with the same key retries the underlying operation. Concurrent
// misses for the same key share a single fetch.
func (c *Cache) Do(ctx context.Context, key CallKey, fetch FetchFunc) (any, error) {
	if fetch == nil {
		return nil, ErrNilFetch
	}

	if !c.Enabled() {
		return fetch(ctx)
	}

	id, err := key.String()
	if err != nil {
		// Caller contract violation: surface it rather than silently
		// degrading to always-miss.
		return nil, fmt.Errorf("callcache: %w", err)
	}

	if value, ok := c.lookup(id); ok {
		cacheHits.WithLabelValues(key.Operation).Inc()
		c.logger.Debug().
			Str("operation", key.Operation).
			Bool("cache_hit", true).
			Msg("Cache hit")
		return value, nil
	}

	value, err, _ := c.group.Do(id, func() (any, error) {
		// Another flight may have stored the entry while we waited.
		if value, ok := c.lookup(id); ok {
			cacheHits.WithLabelValues(key.Operation).Inc()
			return value, nil
		}

		cacheMisses.WithLabelValues(key.Operation).Inc()
		c.logger.Debug().
			Str("operation", key.Operation).
			Bool("cache_hit", false).
			Msg("Cache miss")

		result, fetchErr := fetch(ctx)
		if fetchErr != nil {
			cacheFetchErrors.WithLabelValues(key.Operation).Inc()
			return nil, fetchErr
		}

		c.store(id, result)
		return result, nil
	})
	if err != nil {
		return nil, err
	}

	return value, nil
}

// InvalidateAll unconditionally drops every entry and returns how many were
// dropped. Idempotent: invalidating an empty cache is a no-op. Call it after
// a mutation whose effects the key scheme cannot express as an argument
// difference.
func (c *Cache) InvalidateAll() int {
	c.mu.Lock()
	n := len(c.entries)
	c.entries = make(map[string]Entry)
	c.mu.Unlock()

	cacheInvalidations.Inc()
	cacheEntries.WithLabelValues(c.name).Set(0)
	c.logger.Info().Int("dropped", n).Msg("Cache invalidated")

	return n
}

// Configure updates the freshness window. Safe to call before first use.
// The ttl is a single shared value: entries already stored are evaluated
// against the new window on their next read.
func (c *Cache) Configure(ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c.mu.Lock()
	c.ttl = ttl
	c.mu.Unlock()
}

// SetEnabled toggles memoization at runtime. Disabling does not drop stored
// entries; they simply stop being read until re-enabled (and then still
// expire on the usual now - created_at > ttl rule).
func (c *Cache) SetEnabled(enabled bool) {
	c.mu.Lock()
	c.enabled = enabled
	c.mu.Unlock()
}

// Enabled reports whether memoization is active.
func (c *Cache) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// TTL returns the freshness window currently in effect.
func (c *Cache) TTL() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttl
}

// Len returns the number of stored entries, fresh or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// lookup returns the stored value for id if present and fresh. Expired
// entries are treated as absent and evicted lazily. Freshness is re-checked
// here, under the lock, on every read.
func (c *Cache) lookup(id string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[id]
	if !ok {
		return nil, false
	}

	if !entry.Fresh(time.Now(), c.ttl) {
		delete(c.entries, id)
		cacheEntries.WithLabelValues(c.name).Set(float64(len(c.entries)))
		return nil, false
	}

	return entry.Value, true
}

func (c *Cache) store(id string, value any) {
	c.mu.Lock()
	c.entries[id] = Entry{
		Value:     value,
		CreatedAt: time.Now(),
	}
	cacheEntries.WithLabelValues(c.name).Set(float64(len(c.entries)))
	c.mu.Unlock()
}

// Fetch is a typed convenience wrapper around Cache.Do.
func Fetch[T any](ctx context.Context, c *Cache, key CallKey, fetch func(ctx context.Context) (T, error)) (T, error) {
	value, err := c.Do(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}

	typed, ok := value.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("callcache: cached value for %q is %T, not %T", key.Operation, value, zero)
	}

	return typed, nil
}
