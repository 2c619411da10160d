package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	// Server
	Port            string        `env:"PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limit per client IP on the API routes
	RateLimit float64 `env:"RATE_LIMIT" envDefault:"20"`
	RateBurst int     `env:"RATE_BURST" envDefault:"40"`

	// Database. Empty keeps configs in memory.
	DatabaseURL string `env:"DATABASE_URL"`

	// Database queried by database fields. Empty rejects configs that use them.
	QueryDatabaseURL string        `env:"QUERY_DATABASE_URL"`
	QueryTimeout     time.Duration `env:"QUERY_TIMEOUT" envDefault:"5s"`

	// NATS. Empty with NATS_EMBEDDED=false disables change fan-out.
	NatsURL      string `env:"NATS_URL"`
	NatsEmbedded bool   `env:"NATS_EMBEDDED" envDefault:"false"`
	NatsStoreDir string `env:"NATS_STORE_DIR" envDefault:"./data/nats"`

	// Data cache. Empty REDIS_URL uses an in-process cache.
	RedisURL     string        `env:"REDIS_URL"`
	RedisPrefix  string        `env:"REDIS_PREFIX" envDefault:"compass:data:"`
	DataCacheTTL time.Duration `env:"DATA_CACHE_TTL" envDefault:"5m"`

	// Config files loaded (and watched) at startup
	ConfigDir string `env:"CONFIG_DIR"`

	// Upstream data APIs
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"10s"`
	UpstreamRate    float64       `env:"UPSTREAM_RATE" envDefault:"50"`
	UpstreamBurst   int           `env:"UPSTREAM_BURST" envDefault:"100"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	LogFile   string `env:"LOG_FILE"`

	// CORS
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173"`
}

// NatsEnabled reports whether config change events are published.
func (c *Config) NatsEnabled() bool {
	return c.NatsEmbedded || c.NatsURL != ""
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if cfg.DataCacheTTL < 0 {
		return nil, fmt.Errorf("DATA_CACHE_TTL must not be negative, got %s", cfg.DataCacheTTL)
	}
	if cfg.QueryTimeout <= 0 {
		return nil, fmt.Errorf("QUERY_TIMEOUT must be positive, got %s", cfg.QueryTimeout)
	}
	if cfg.UpstreamRate <= 0 {
		return nil, fmt.Errorf("UPSTREAM_RATE must be positive, got %v", cfg.UpstreamRate)
	}
	return cfg, nil
}
