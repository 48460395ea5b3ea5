// Package testutil provides testing utilities for the vSphere client cache.
package testutil

import (
	"context"
	"sync"
)

// CountingFetcher is a fetch-function stand-in that records how many times
// the underlying call ran. Use it to assert cache hit/miss behavior.
type CountingFetcher struct {
	mu    sync.Mutex
	calls int
	value any
	err   error
}

// NewCountingFetcher creates a fetcher that returns value on every call.
func NewCountingFetcher(value any) *CountingFetcher {
	return &CountingFetcher{value: value}
}

// Fetch satisfies callcache.FetchFunc.
func (f *CountingFetcher) Fetch(_ context.Context) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.value, nil
}

// Calls returns how many times Fetch ran.
func (f *CountingFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Fail makes subsequent fetches return err.
func (f *CountingFetcher) Fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

// Succeed makes subsequent fetches return value again.
func (f *CountingFetcher) Succeed(value any) {
	f.mu.Lock()
	f.value = value
	f.err = nil
	f.mu.Unlock()
}
