// Package config reads process configuration from the environment. A .env
// file in the working directory is loaded first when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/imrishuroy/vg-orderflow/internal/validation"
)

// Backends an order store can run on.
const (
	BackendFile     = "file"
	BackendDynamoDB = "dynamodb"
	BackendRedis    = "redis"
)

// Config is the validated process configuration.
type Config struct {
	RunLocal bool
	Port     string `validate:"required,numeric"`

	Backend     string        `validate:"required,oneof=file dynamodb redis"`
	StorePath   string        `validate:"required_if=Backend file"`
	OrdersTable string        `validate:"required_if=Backend dynamodb"`
	RedisAddr   string        `validate:"required_if=Backend redis"`
	KVRetention time.Duration `validate:"gt=10m"`

	QueueURL         string
	MetricsNamespace string
	PricingTablePath string
	POSCatalogPath   string

	AWSRegion    string
	AWSEndpoint  string
	OTLPEndpoint string

	LogLevel       string `validate:"omitempty,oneof=debug info warn error"`
	LogDevelopment bool
}

// Load reads and validates the configuration.
func Load() (Config, error) {
	cfg := Config{
		RunLocal:         getenvBool("RUN_LOCAL", false),
		Port:             getenvDefault("PORT", "8787"),
		Backend:          os.Getenv("ORDER_BACKEND"),
		StorePath:        getenvDefault("ORDERS_STORE_PATH", "orders.store.json"),
		OrdersTable:      getenvDefault("ORDERS_TABLE", "orders"),
		RedisAddr:        getenvDefault("REDIS_ADDR", "localhost:6379"),
		QueueURL:         os.Getenv("ORDERS_QUEUE_URL"),
		MetricsNamespace: os.Getenv("METRICS_NAMESPACE"),
		PricingTablePath: os.Getenv("PRICING_TABLE_PATH"),
		POSCatalogPath:   os.Getenv("POS_CATALOG_PATH"),
		AWSRegion:        getenvDefault("AWS_REGION", "us-east-1"),
		AWSEndpoint:      os.Getenv("AWS_ENDPOINT_OVERRIDE"),
		OTLPEndpoint:     os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		LogLevel:         getenvDefault("LOG_LEVEL", "info"),
		LogDevelopment:   getenvBool("LOG_DEVELOPMENT", false),
	}

	// Lambda has no writable working directory, so only local runs fall back to the file store.
	if cfg.Backend == "" && cfg.RunLocal {
		cfg.Backend = BackendFile
	}

	retention, err := time.ParseDuration(getenvDefault("KV_RETENTION", "24h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse KV_RETENTION: %w", err)
	}
	cfg.KVRetention = retention

	if err := validation.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %v", validation.ErrorsToMap(err))
	}
	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
