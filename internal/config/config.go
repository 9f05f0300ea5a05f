package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv              string
	Port                string
	DatabaseURL         string
	RedisURL            string
	CORSAllowedOrigins  []string
	CatalogCacheTTL     time.Duration
	CatalogBreakerOpen  time.Duration
	CheckoutRateLimit   string
	AdminAPIKeyHash     string
	MigrateOnStart      bool
	ReceiptColumns      int
	ReceiptPrintEnabled bool
	ReceiptQueue        string
	ReceiptMaxRetry     int
	WorkerConcurrency   int
	DBMaxConns          int
}

// Load reads configuration from environment variables and optional .env files.
// DATABASE_URL and REDIS_URL are optional: without a database the catalog is
// served from memory, and without Redis prices are not cached and receipts
// are not printed in the background.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:              valueOrDefault(k.String("APP_ENV"), "development"),
		Port:                valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:         strings.TrimSpace(k.String("DATABASE_URL")),
		RedisURL:            strings.TrimSpace(k.String("REDIS_URL")),
		CORSAllowedOrigins:  splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		CatalogCacheTTL:     parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		CatalogBreakerOpen:  parseDuration(k.String("CATALOG_BREAKER_OPEN_FOR"), "30s"),
		CheckoutRateLimit:   strings.TrimSpace(valueOrDefault(k.String("CHECKOUT_RATE_LIMIT"), "120-M")),
		AdminAPIKeyHash:     strings.TrimSpace(k.String("ADMIN_API_KEY_HASH")),
		MigrateOnStart:      parseBool(k.String("MIGRATE_ON_START")),
		ReceiptPrintEnabled: parseBool(k.String("RECEIPT_PRINT_ENABLED")),
		ReceiptQueue:        valueOrDefault(k.String("RECEIPT_QUEUE"), "receipts"),
	}

	var err error
	if cfg.ReceiptColumns, err = parseInt(k.String("RECEIPT_COLUMNS"), 40); err != nil {
		return nil, fmt.Errorf("RECEIPT_COLUMNS: %w", err)
	}
	if cfg.ReceiptMaxRetry, err = parseInt(k.String("RECEIPT_MAX_RETRY"), 5); err != nil {
		return nil, fmt.Errorf("RECEIPT_MAX_RETRY: %w", err)
	}
	if cfg.WorkerConcurrency, err = parseInt(k.String("WORKER_CONCURRENCY"), 4); err != nil {
		return nil, fmt.Errorf("WORKER_CONCURRENCY: %w", err)
	}
	if cfg.DBMaxConns, err = parseInt(k.String("DB_MAX_CONNS"), 0); err != nil {
		return nil, fmt.Errorf("DB_MAX_CONNS: %w", err)
	}

	if cfg.ReceiptColumns < 20 {
		return nil, errors.New("RECEIPT_COLUMNS must be at least 20")
	}
	if cfg.WorkerConcurrency <= 0 {
		return nil, errors.New("WORKER_CONCURRENCY must be positive")
	}
	if cfg.ReceiptPrintEnabled && cfg.RedisURL == "" {
		return nil, errors.New("RECEIPT_PRINT_ENABLED requires REDIS_URL")
	}
	if cfg.MigrateOnStart && cfg.DatabaseURL == "" {
		return nil, errors.New("MIGRATE_ON_START requires DATABASE_URL")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseInt(value string, fallback int) (int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback, nil
	}
	return strconv.Atoi(trimmed)
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
