// Package config loads and validates worldctl configuration from a TOML
// file, with environment variables and CLI flags layered on top.
package config

import (
	"fmt"
	"time"

	"github.com/tidegate/worldctl/internal/gql"
)

// Default values for configuration options. These are "layer 0" of the
// override chain (defaults -> config file -> environment -> CLI flags)
// and work without any config file present.
const (
	defaultEndpoint      = "https://api.tidegate.dev/graphql"
	defaultServiceBundle = "worlds-admin"
	defaultLogLevel      = "info"
	defaultRefreshAfter  = "25m"

	defaultRetryMaxAttempts    = 3
	defaultRetryInitialDelayMs = 500
	defaultRetryMaxDelayMs     = 5000
	defaultRetryBackoffFactor  = 2.0
)

// RetryConfig is the [retry] section. It maps directly onto gql.Policy.
type RetryConfig struct {
	MaxAttempts    int     `toml:"max_attempts"`
	InitialDelayMs int     `toml:"initial_delay_ms"`
	MaxDelayMs     int     `toml:"max_delay_ms"`
	BackoffFactor  float64 `toml:"backoff_factor"`
}

// Config is the full worldctl configuration.
type Config struct {
	Endpoint      string `toml:"endpoint"`
	ServiceBundle string `toml:"service_bundle"`
	LogLevel      string `toml:"log_level"`
	// RefreshAfter is the delay from token issuance to the scheduled
	// refresh, as a Go duration string. The backend issues 30m tokens, so
	// the default refreshes 5 minutes before expiry.
	RefreshAfter string `toml:"refresh_after"`
	TokenPath    string `toml:"token_path"`
	CachePath    string `toml:"cache_path"`

	Retry RetryConfig `toml:"retry"`
}

// DefaultConfig returns a Config populated with all default values. Used
// both as the starting point for TOML decoding (so unset fields retain
// defaults) and as the fallback when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Endpoint:      defaultEndpoint,
		ServiceBundle: defaultServiceBundle,
		LogLevel:      defaultLogLevel,
		RefreshAfter:  defaultRefreshAfter,
		TokenPath:     DefaultTokenPath(),
		CachePath:     DefaultCachePath(),
		Retry: RetryConfig{
			MaxAttempts:    defaultRetryMaxAttempts,
			InitialDelayMs: defaultRetryInitialDelayMs,
			MaxDelayMs:     defaultRetryMaxDelayMs,
			BackoffFactor:  defaultRetryBackoffFactor,
		},
	}
}

// RetryPolicy converts the [retry] section into the transport's policy.
func (c *Config) RetryPolicy() gql.Policy {
	return gql.Policy{
		MaxAttempts:  c.Retry.MaxAttempts,
		InitialDelay: time.Duration(c.Retry.InitialDelayMs) * time.Millisecond,
		MaxDelay:     time.Duration(c.Retry.MaxDelayMs) * time.Millisecond,
		Factor:       c.Retry.BackoffFactor,
	}
}

// RefreshAfterDuration parses the refresh_after setting. Validate rejects
// unparseable values, so errors only occur on configs that bypassed
// validation.
func (c *Config) RefreshAfterDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.RefreshAfter)
	if err != nil {
		return 0, fmt.Errorf("config: parsing refresh_after %q: %w", c.RefreshAfter, err)
	}

	return d, nil
}

// Validate checks the full configuration.
func Validate(c *Config) error {
	if c.Endpoint == "" {
		return fmt.Errorf("config: endpoint must not be empty")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: invalid log_level %q (want debug, info, warn, or error)", c.LogLevel)
	}

	d, err := c.RefreshAfterDuration()
	if err != nil {
		return err
	}

	if d <= 0 {
		return fmt.Errorf("config: refresh_after must be positive, got %s", c.RefreshAfter)
	}

	if err := c.RetryPolicy().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	return nil
}
