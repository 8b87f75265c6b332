package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, Validate(DefaultConfig()))
}

func TestRetryPolicyConversion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Retry = RetryConfig{
		MaxAttempts:    5,
		InitialDelayMs: 250,
		MaxDelayMs:     10000,
		BackoffFactor:  1.5,
	}

	p := cfg.RetryPolicy()
	assert.Equal(t, 5, p.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, p.InitialDelay)
	assert.Equal(t, 10*time.Second, p.MaxDelay)
	assert.InDelta(t, 1.5, p.Factor, 0.0001)
}

func TestRefreshAfterDuration(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RefreshAfter = "10m30s"

	d, err := cfg.RefreshAfterDuration()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute+30*time.Second, d)
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty endpoint", func(c *Config) { c.Endpoint = "" }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"unparseable refresh_after", func(c *Config) { c.RefreshAfter = "soon" }},
		{"negative refresh_after", func(c *Config) { c.RefreshAfter = "-5m" }},
		{"zero retry attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }},
		{"zero initial delay", func(c *Config) { c.Retry.InitialDelayMs = 0 }},
		{"max delay below initial", func(c *Config) { c.Retry.MaxDelayMs = 1; c.Retry.InitialDelayMs = 100 }},
		{"backoff factor one", func(c *Config) { c.Retry.BackoffFactor = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}
