// Package batch provides bounded-concurrency fan-out for bulk inventory lookups
package batch

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds batch fetcher configuration
type Config struct {
	// MaxConcurrency is the maximum number of parallel lookups.
	// Keep modest: vCenter sessions throttle poorly under heavy fan-out.
	MaxConcurrency int
	// Timeout per lookup
	Timeout time.Duration
}

// DefaultConfig returns safe default configuration
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 5,
		Timeout:        30 * time.Second,
	}
}

// LookupFunc resolves a single identifier
type LookupFunc func(ctx context.Context, id string) (any, error)

// Result represents the outcome of one lookup
type Result struct {
	ID    string
	Value any
	Err   error
}

// Fetcher handles parallel resolution of many identifiers
type Fetcher struct {
	lookup LookupFunc
	config Config
}

// NewFetcher creates a batch fetcher. Zero config fields fall back to defaults.
func NewFetcher(lookup LookupFunc, config Config) *Fetcher {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = DefaultConfig().MaxConcurrency
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	return &Fetcher{
		lookup: lookup,
		config: config,
	}
}

// FetchAll resolves all identifiers in parallel, bounded by MaxConcurrency.
// Results are returned in input order; per-identifier failures land in the
// corresponding Result rather than aborting the batch.
func (f *Fetcher) FetchAll(ctx context.Context, ids []string) []Result {
	results := make([]Result, len(ids))
	sem := make(chan struct{}, f.config.MaxConcurrency)

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[i] = Result{ID: id, Err: ctx.Err()}
				return
			}
			defer func() { <-sem }()

			lookupCtx, cancel := context.WithTimeout(ctx, f.config.Timeout)
			defer cancel()

			value, err := f.lookup(lookupCtx, id)
			if err != nil {
				log.Debug().
					Err(err).
					Str("id", id).
					Msg("Batch lookup failed")
			}
			results[i] = Result{ID: id, Value: value, Err: err}
		}(i, id)
	}
	wg.Wait()

	return results
}
