package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store driver names accepted in STORE_DRIVER.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	StoreDriver string
	PostgresDSN string

	// Audit feed configuration. Enabled defaults to true when brokers are set.
	KafkaBrokers      []string
	KafkaAuditTopic   string
	KafkaAuditEnabled bool
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is honored for local runs.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := time.ParseDuration(envOrDefault("SHUTDOWN_TIMEOUT", "10s"))
	if err != nil || shutdownTimeout <= 0 {
		return nil, errors.New("invalid SHUTDOWN_TIMEOUT")
	}

	storeDriver := envOrDefault("STORE_DRIVER", StoreMemory)
	if storeDriver != StoreMemory && storeDriver != StorePostgres {
		return nil, errors.New("invalid STORE_DRIVER: must be memory or postgres")
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	auditEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_AUDIT_ENABLED"); v != "" {
		auditEnabled = v == "true" && len(brokers) > 0
	}

	return &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		StoreDriver: storeDriver,
		PostgresDSN: envOrDefault("POSTGRES_DSN", "postgres://localhost/epicsa?sslmode=disable"),

		KafkaBrokers:      brokers,
		KafkaAuditTopic:   envOrDefault("KAFKA_AUDIT_TOPIC", "climate-record-events"),
		KafkaAuditEnabled: auditEnabled,
	}, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBrokers(raw string) []string {
	if raw == "" {
		return nil
	}
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
