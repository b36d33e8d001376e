package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/utafrali/storefront/pkg/config"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"STOREFRONT_HTTP_PORT" envDefault:"8010"`

	// Catalog service
	CatalogServiceURL   string `env:"CATALOG_SERVICE_URL" envDefault:"http://localhost:8001/api/v1"`
	CatalogTimeoutMs    int    `env:"CATALOG_TIMEOUT_MS" envDefault:"5000"`
	CatalogMaxRetries   int    `env:"CATALOG_MAX_RETRIES" envDefault:"2"`
	CatalogCacheTTLSecs int    `env:"CATALOG_CACHE_TTL_SECONDS" envDefault:"30"`

	// Circuit breaker settings for catalog calls
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"15"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// Redis. Selections are kept in memory when disabled.
	RedisEnabled  bool   `env:"REDIS_ENABLED" envDefault:"true"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass     string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
	RedisSlowMs   int    `env:"REDIS_SLOW_COMMAND_MS" envDefault:"50"`

	// Remembered selections TTL in hours (default: 30 days)
	SelectionTTLHours int `env:"SELECTION_TTL_HOURS" envDefault:"720"`

	// Open views are evicted after this many idle minutes.
	ViewIdleTTLMins  int `env:"VIEW_IDLE_TTL_MINUTES" envDefault:"30"`
	ViewSweepSeconds int `env:"VIEW_SWEEP_INTERVAL_SECONDS" envDefault:"60"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"true"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Rate limiting of the storefront API, per client IP
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"50"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"100"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration invariants. pkgconfig.Load calls it.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.CatalogServiceURL == "" {
		return fmt.Errorf("CATALOG_SERVICE_URL is required")
	}
	if _, err := url.ParseRequestURI(c.CatalogServiceURL); err != nil {
		return fmt.Errorf("invalid CATALOG_SERVICE_URL %q: %w", c.CatalogServiceURL, err)
	}
	if c.CatalogTimeoutMs <= 0 {
		return fmt.Errorf("CATALOG_TIMEOUT_MS must be positive, got %d", c.CatalogTimeoutMs)
	}
	if c.CatalogMaxRetries < 0 {
		return fmt.Errorf("CATALOG_MAX_RETRIES must not be negative, got %d", c.CatalogMaxRetries)
	}
	if c.CatalogCacheTTLSecs < 0 {
		return fmt.Errorf("CATALOG_CACHE_TTL_SECONDS must not be negative, got %d", c.CatalogCacheTTLSecs)
	}
	if c.CBFailureRatio <= 0 || c.CBFailureRatio > 1.0 {
		return fmt.Errorf("CB_FAILURE_RATIO must be in (0.0, 1.0], got %f", c.CBFailureRatio)
	}
	if c.SelectionTTLHours <= 0 {
		return fmt.Errorf("SELECTION_TTL_HOURS must be positive, got %d", c.SelectionTTLHours)
	}
	if c.ViewIdleTTLMins <= 0 {
		return fmt.Errorf("VIEW_IDLE_TTL_MINUTES must be positive, got %d", c.ViewIdleTTLMins)
	}
	if c.ViewSweepSeconds <= 0 {
		return fmt.Errorf("VIEW_SWEEP_INTERVAL_SECONDS must be positive, got %d", c.ViewSweepSeconds)
	}
	if c.RedisEnabled && c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required when REDIS_ENABLED is set")
	}
	if c.RedisPoolSize < 0 {
		return fmt.Errorf("REDIS_POOL_SIZE must not be negative, got %d", c.RedisPoolSize)
	}
	if c.RedisSlowMs < 0 {
		return fmt.Errorf("REDIS_SLOW_COMMAND_MS must not be negative, got %d", c.RedisSlowMs)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %f", c.RateLimitRPS)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1, got %d", c.RateLimitBurst)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// CatalogTimeout returns the per-request catalog timeout.
func (c *Config) CatalogTimeout() time.Duration {
	return time.Duration(c.CatalogTimeoutMs) * time.Millisecond
}

// CatalogCacheTTL returns how long catalog products are cached. Zero
// disables the cache.
func (c *Config) CatalogCacheTTL() time.Duration {
	return time.Duration(c.CatalogCacheTTLSecs) * time.Second
}

// RedisSlowCommand returns the duration at which a Redis command is logged
// as slow. Zero disables the warning.
func (c *Config) RedisSlowCommand() time.Duration {
	return time.Duration(c.RedisSlowMs) * time.Millisecond
}

// SelectionTTL returns how long a remembered selection lives.
func (c *Config) SelectionTTL() time.Duration {
	return time.Duration(c.SelectionTTLHours) * time.Hour
}

// ViewIdleTTL returns how long an untouched view stays open.
func (c *Config) ViewIdleTTL() time.Duration {
	return time.Duration(c.ViewIdleTTLMins) * time.Minute
}

// ViewSweepInterval returns how often idle views are evicted.
func (c *Config) ViewSweepInterval() time.Duration {
	return time.Duration(c.ViewSweepSeconds) * time.Second
}
