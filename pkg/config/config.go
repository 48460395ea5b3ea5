// Package config loads client and cache settings from the hosting
// environment.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	// envPrefix is prepended to every environment variable name, so the
	// recognized variables are VSPHERE_CACHE_ENABLE, VSPHERE_CACHE_TTL,
	// VSPHERE_URL, VSPHERE_USERNAME, VSPHERE_PASSWORD, VSPHERE_INSECURE
	// and VSPHERE_PORT.
	envPrefix = "VSPHERE"

	// DefaultTTLSeconds is the cache freshness window when unset.
	DefaultTTLSeconds = 15

	// DefaultPort is the proxy listen port when unset.
	DefaultPort = "8080"
)

// Settings holds the externally supplied configuration.
type Settings struct {
	// CacheEnable toggles the memoized call cache. Default: false.
	CacheEnable bool `mapstructure:"cache_enable"`

	// CacheTTL is the cache freshness window in seconds. Default: 15.
	CacheTTL int `mapstructure:"cache_ttl"`

	// URL is the vCenter server URL (e.g. "https://vcenter01.example.com/sdk").
	URL string `mapstructure:"url"`

	// Username is the authenticated principal. May be omitted when the URL
	// embeds credentials.
	Username string `mapstructure:"username"`

	// Password for Username.
	Password string `mapstructure:"password"`

	// Insecure skips TLS certificate verification.
	Insecure bool `mapstructure:"insecure"`

	// Port is the proxy listen port.
	Port string `mapstructure:"port"`
}

// Load reads settings from the environment and validates them.
func Load() (*Settings, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault("cache_enable", false)
	v.SetDefault("cache_ttl", DefaultTTLSeconds)
	v.SetDefault("insecure", false)
	v.SetDefault("port", DefaultPort)

	// Keys without defaults must be bound explicitly or AutomaticEnv will
	// not surface them through Unmarshal.
	for _, key := range []string{"url", "username", "password"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if s.CacheTTL <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive (got %d)", s.CacheTTL)
	}
	if s.Port == "" {
		return nil, fmt.Errorf("port cannot be empty")
	}

	return &s, nil
}

// TTL returns the cache freshness window as a duration.
func (s *Settings) TTL() time.Duration {
	return time.Duration(s.CacheTTL) * time.Second
}
