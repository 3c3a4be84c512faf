package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration loaded from environment variables.
// All required fields are validated at startup to ensure fail-fast behavior.
// The struct is passed explicitly to components; there is no ambient global.
type Config struct {
	// Server configuration
	ServerAddr string
	LogLevel   string

	// Helius API configuration
	HeliusAPIKey  string
	HeliusBaseURL string
	HTTPTimeout   time.Duration

	// Query configuration
	DefaultFetchLimit int
	ResultCacheTTL    time.Duration

	// ConversionRate is the placeholder token->SOL rate used when
	// deriving total values. It stands in for a real price source.
	ConversionRate decimal.Decimal
}

// Load reads configuration from environment variables and validates all required fields.
// Returns an error if any required configuration is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}
	var errs []error

	// Server configuration
	cfg.ServerAddr = getEnvOrDefault("SERVER_ADDR", ":8080")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	// Helius configuration
	cfg.HeliusAPIKey = os.Getenv("HELIUS_API_KEY")
	if cfg.HeliusAPIKey == "" {
		errs = append(errs, fmt.Errorf("HELIUS_API_KEY is required"))
	}
	cfg.HeliusBaseURL = getEnvOrDefault("HELIUS_BASE_URL", "https://api.helius.xyz/v0")

	timeout, err := parseDuration("HTTP_TIMEOUT", "30s")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.HTTPTimeout = timeout
	}

	// Query configuration
	limit, err := parseInt("DEFAULT_FETCH_LIMIT", 100)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.DefaultFetchLimit = limit
	}

	cacheTTL, err := parseDuration("RESULT_CACHE_TTL", "30s")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.ResultCacheTTL = cacheTTL
	}

	rate, err := parseDecimal("CONVERSION_RATE", "1")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.ConversionRate = rate
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %v", errs)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MustLoad is like Load but panics if configuration is invalid.
// Useful for server initialization where misconfiguration should halt startup.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks if the configuration is valid.
// This is useful for testing configuration without loading from env.
func (c *Config) Validate() error {
	var errs []error

	if c.HeliusAPIKey == "" {
		errs = append(errs, fmt.Errorf("HeliusAPIKey is required"))
	}

	if c.HeliusBaseURL == "" {
		errs = append(errs, fmt.Errorf("HeliusBaseURL is required"))
	}

	if c.DefaultFetchLimit < 1 || c.DefaultFetchLimit > 1000 {
		errs = append(errs, fmt.Errorf("DefaultFetchLimit must be in [1, 1000], got %d", c.DefaultFetchLimit))
	}

	if c.HTTPTimeout < time.Second {
		errs = append(errs, fmt.Errorf("HTTPTimeout must be at least 1 second"))
	}

	if c.ResultCacheTTL < 0 {
		errs = append(errs, fmt.Errorf("ResultCacheTTL cannot be negative"))
	}

	if c.ConversionRate.IsNegative() {
		errs = append(errs, fmt.Errorf("ConversionRate cannot be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

// getEnvOrDefault returns the environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration from an environment variable or uses a default.
func parseDuration(key, defaultValue string) (time.Duration, error) {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return duration, nil
}

// parseInt parses an integer from an environment variable or uses a default.
func parseInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, value, err)
	}
	return result, nil
}

// parseDecimal parses a decimal from an environment variable or uses a default.
func parseDecimal(key, defaultValue string) (decimal.Decimal, error) {
	value := getEnvOrDefault(key, defaultValue)
	result, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s: invalid decimal %q: %w", key, value, err)
	}
	return result, nil
}
