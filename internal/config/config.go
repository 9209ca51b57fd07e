package config

import (
	"fmt"
	"net/url"

	pkgconfig "github.com/gabrielnakaema/desafio01-hook-carrinho/pkg/config"
)

// Store drivers.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config holds all configuration for the cart service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort           int      `env:"CART_HTTP_PORT" envDefault:"8003"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Durable store
	StoreKey    string `env:"CART_STORE_KEY" envDefault:"@RocketShoes:cart"`
	StoreDriver string `env:"STORE_DRIVER" envDefault:"sqlite"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"cart.db"`

	// Redis
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass     string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"10"`

	// Cart TTL in hours, 0 keeps the cart forever (redis only)
	CartTTL int `env:"CART_TTL_HOURS" envDefault:"0"`

	// Inventory
	InventoryURL        string `env:"INVENTORY_URL" envDefault:"http://localhost:3333"`
	InventoryTimeout    int    `env:"INVENTORY_TIMEOUT_SECONDS" envDefault:"5"`
	InventoryMaxRetries int    `env:"INVENTORY_MAX_RETRIES" envDefault:"2"`

	// Circuit breaker settings for inventory calls
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Notifications kept for GET /api/v1/cart/notifications
	NotificationFeedSize int `env:"NOTIFICATION_FEED_SIZE" envDefault:"50"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load cart config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.StoreKey == "" {
		return fmt.Errorf("CART_STORE_KEY is required")
	}
	switch c.StoreDriver {
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q: must be sqlite, redis or memory", c.StoreDriver)
	}
	if c.CartTTL < 0 {
		return fmt.Errorf("CART_TTL_HOURS must not be negative, got %d", c.CartTTL)
	}
	if c.InventoryURL == "" {
		return fmt.Errorf("INVENTORY_URL is required")
	}
	if _, err := url.ParseRequestURI(c.InventoryURL); err != nil {
		return fmt.Errorf("invalid INVENTORY_URL %q: %w", c.InventoryURL, err)
	}
	if c.InventoryTimeout < 0 {
		return fmt.Errorf("INVENTORY_TIMEOUT_SECONDS must not be negative, got %d", c.InventoryTimeout)
	}
	if c.InventoryMaxRetries < 0 {
		return fmt.Errorf("INVENTORY_MAX_RETRIES must not be negative, got %d", c.InventoryMaxRetries)
	}
	if c.CBFailureRatio <= 0 || c.CBFailureRatio > 1.0 {
		return fmt.Errorf("CB_FAILURE_RATIO must be in (0.0, 1.0], got %f", c.CBFailureRatio)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	if c.NotificationFeedSize < 1 {
		return fmt.Errorf("NOTIFICATION_FEED_SIZE must be at least 1, got %d", c.NotificationFeedSize)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}
