package callcache

import "time"

// Entry is a single memoized call result.
type Entry struct {
	// Value is the stored result of the underlying call.
	Value any

	// CreatedAt is when the result was stored.
	CreatedAt time.Time
}

// Fresh reports whether the entry is still inside the ttl window at now.
// Freshness is evaluated at read time against the cache-wide ttl in effect
// for that read, so ttl changes apply to already-stored entries too.
func (e Entry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.CreatedAt) <= ttl
}

// Age returns how long ago the entry was stored.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}
