package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_Defaults verifies the defaults with only the required key set.
func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HELIUS_API_KEY", "test-key")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "test-key", cfg.HeliusAPIKey)
	assert.Equal(t, "https://api.helius.xyz/v0", cfg.HeliusBaseURL)
	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 100, cfg.DefaultFetchLimit)
	assert.Equal(t, 30*time.Second, cfg.ResultCacheTTL)
	assert.True(t, cfg.ConversionRate.Equal(decimal.NewFromInt(1)))
}

// TestLoad_MissingAPIKey verifies fail-fast behavior.
func TestLoad_MissingAPIKey(t *testing.T) {
	t.Setenv("HELIUS_API_KEY", "")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "HELIUS_API_KEY")
}

// TestLoad_Overrides verifies environment overrides are honored.
func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HELIUS_API_KEY", "test-key")
	t.Setenv("HELIUS_BASE_URL", "http://localhost:9999/v0")
	t.Setenv("DEFAULT_FETCH_LIMIT", "250")
	t.Setenv("RESULT_CACHE_TTL", "1m")
	t.Setenv("CONVERSION_RATE", "0.25")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9999/v0", cfg.HeliusBaseURL)
	assert.Equal(t, 250, cfg.DefaultFetchLimit)
	assert.Equal(t, time.Minute, cfg.ResultCacheTTL)
	assert.True(t, cfg.ConversionRate.Equal(decimal.RequireFromString("0.25")))
}

// TestLoad_InvalidValues verifies malformed values are rejected.
func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("HELIUS_API_KEY", "test-key")
	t.Setenv("DEFAULT_FETCH_LIMIT", "lots")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEFAULT_FETCH_LIMIT")
}

// TestValidate_LimitBounds verifies the fetch limit bounds.
func TestValidate_LimitBounds(t *testing.T) {
	cfg := &Config{
		HeliusAPIKey:      "k",
		HeliusBaseURL:     "https://api.helius.xyz/v0",
		HTTPTimeout:       30 * time.Second,
		DefaultFetchLimit: 0,
		ConversionRate:    decimal.NewFromInt(1),
	}

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "DefaultFetchLimit")

	cfg.DefaultFetchLimit = 1001
	require.Error(t, cfg.Validate())

	cfg.DefaultFetchLimit = 1000
	require.NoError(t, cfg.Validate())
}

// TestValidate_NegativeConversionRate rejects negative rates.
func TestValidate_NegativeConversionRate(t *testing.T) {
	cfg := &Config{
		HeliusAPIKey:      "k",
		HeliusBaseURL:     "https://api.helius.xyz/v0",
		HTTPTimeout:       30 * time.Second,
		DefaultFetchLimit: 100,
		ConversionRate:    decimal.RequireFromString("-1"),
	}

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ConversionRate")
}
