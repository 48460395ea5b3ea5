// Package vsphere provides a vCenter client whose read operations are
// memoized through the process-wide call cache.
package vsphere

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/vmware/govmomi"
	"github.com/vmware/govmomi/find"
	"github.com/vmware/govmomi/object"
	"github.com/vmware/govmomi/vim25/soap"

	"github.com/vsphere-tools/vsphere-client-cache/pkg/callcache"
)

// Prometheus metrics for vCenter calls.
var (
	vsphereRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vsphere_requests_total",
		Help: "Total vCenter calls by operation and status",
	}, []string{"operation", "status"})

	vsphereRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vsphere_request_duration_seconds",
		Help:    "vCenter call duration in seconds by operation",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"operation"})
)

// SessionIdentity is the canonical cache-key summary of a vCenter session:
// only the fields that influence call results. Socket state, cookies and
// timestamps never belong here; two sessions against the same host with the
// same principal are interchangeable for caching purposes.
type SessionIdentity struct {
	Host     string `json:"host"`
	Username string `json:"username"`
}

// Config holds the client configuration.
type Config struct {
	// URL is the vCenter SDK endpoint (e.g. "https://vcenter01.example.com/sdk").
	// A bare hostname is accepted and normalized.
	URL string

	// Username and Password authenticate the session. They may be omitted
	// when URL embeds userinfo.
	Username string
	Password string

	// Insecure skips TLS certificate verification.
	Insecure bool

	// Datacenter selects the datacenter lookups operate in.
	// Empty means the default (sole) datacenter.
	Datacenter string

	// CacheEnabled toggles memoization of read operations. Default: false.
	CacheEnabled bool

	// CacheTTL is the freshness window for memoized results.
	CacheTTL time.Duration

	// Retry controls backoff on transient faults.
	Retry RetryConfig
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(rawURL, username, password string) Config {
	return Config{
		URL:      rawURL,
		Username: username,
		Password: password,
		CacheTTL: callcache.DefaultTTL,
		Retry:    DefaultRetryConfig(),
	}
}

// Client is a vCenter client with memoized lookups.
type Client struct {
	vim      *govmomi.Client
	finder   *find.Finder
	cache    *callcache.Cache
	identity SessionIdentity
	retry    RetryConfig
	logger   zerolog.Logger
}

// New connects and authenticates to vCenter and creates a client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("vcenter url is required")
	}

	u, err := soap.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse vcenter url: %w", err)
	}

	if cfg.Username != "" {
		u.User = url.UserPassword(cfg.Username, cfg.Password)
	}
	// soap.ParseURL backfills empty userinfo for URLs without credentials,
	// so check the username rather than u.User being set at all.
	if u.User.Username() == "" {
		return nil, fmt.Errorf("credentials are required (username/password or url userinfo)")
	}

	vim, err := govmomi.NewClient(ctx, u, cfg.Insecure)
	if err != nil {
		return nil, &ClientError{Op: "login", Class: classify(err), Err: err}
	}

	finder := find.NewFinder(vim.Client, true)

	var dc *object.Datacenter
	if cfg.Datacenter != "" {
		dc, err = finder.Datacenter(ctx, cfg.Datacenter)
	} else {
		dc, err = finder.DefaultDatacenter(ctx)
	}
	if err != nil {
		_ = vim.Logout(ctx)
		return nil, &ClientError{Op: "datacenter_lookup", Class: classify(err), Err: err}
	}
	finder.SetDatacenter(dc)

	username := cfg.Username
	if username == "" {
		username = u.User.Username()
	}

	retry := cfg.Retry
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryConfig()
	}

	logger := log.With().
		Str("component", "vsphere-client").
		Str("host", u.Host).
		Logger()

	c := &Client{
		vim:    vim,
		finder: finder,
		cache: callcache.New(callcache.Options{
			Enabled: cfg.CacheEnabled,
			TTL:     cfg.CacheTTL,
			Name:    "vsphere",
		}),
		identity: SessionIdentity{Host: u.Host, Username: username},
		retry:    retry,
		logger:   logger,
	}

	logger.Info().
		Str("username", username).
		Bool("cache_enabled", cfg.CacheEnabled).
		Msg("Connected to vCenter")

	return c, nil
}

// SessionIdentity returns the canonical cache-key summary of this session.
func (c *Client) SessionIdentity() SessionIdentity {
	return c.identity
}

// Cache returns the client's memoized call cache, for configuration and
// manual invalidation.
func (c *Client) Cache() *callcache.Cache {
	return c.cache
}

// Logout terminates the vCenter session.
func (c *Client) Logout(ctx context.Context) error {
	return c.vim.Logout(ctx)
}

// call runs a vCenter operation with retry and records request metrics.
func (c *Client) call(ctx context.Context, op string, fn func() error) error {
	start := time.Now()
	err := retryWithBackoff(ctx, c.retry, op, fn)
	vsphereRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	status := "ok"
	if err != nil {
		status = string(classify(err))
		c.logger.Warn().
			Err(err).
			Str("operation", op).
			Str("error_class", status).
			Msg("vCenter call failed")
	}
	vsphereRequestsTotal.WithLabelValues(op, status).Inc()

	return err
}
