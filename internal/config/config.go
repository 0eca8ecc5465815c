package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultPncpBaseURL     = "https://pncp.gov.br/api/consulta"
	DefaultSyncInterval    = time.Hour
	DefaultSyncTargetDelay = 2 * time.Second
	DefaultSyncMaxTargets  = 5

	DefaultBreakerFailures = 5
	DefaultBreakerCooldown = time.Minute
)

// ErrMissingDatabaseURL is returned by Validate when DATABASE_URL is empty.
var ErrMissingDatabaseURL = errors.New("DATABASE_URL is not set")

// Config holds all configuration for the application
type Config struct {
	DatabaseURL string
	RedisURL    string

	PncpBaseURL     string
	PncpHTTPTimeout time.Duration // zero means no client-side timeout
	PncpRateLimit   float64       // requests per second, zero means unlimited

	// consecutive upstream failures that open the breaker, zero disables it
	PncpBreakerFailures int
	PncpBreakerCooldown time.Duration

	SyncInterval    time.Duration
	SyncTargetDelay time.Duration
	SyncMaxTargets  int

	Port        string
	MetricsAddr string

	LogLevel  string
	LogFormat string
}

// LoadConfig reads configuration from environment variables (.env file)
func LoadConfig() (*Config, error) {
	// Load .env file. In production, env variables are often set directly.
	_ = godotenv.Load()

	return &Config{
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		RedisURL:        getEnv("REDIS_URL", ""),
		PncpBaseURL:     getEnv("PNCP_API_BASE_URL", DefaultPncpBaseURL),
		PncpHTTPTimeout: getEnvDuration("PNCP_HTTP_TIMEOUT", 0),
		PncpRateLimit:   getEnvFloat("PNCP_RATE_LIMIT", 0),

		PncpBreakerFailures: getEnvIntAllowZero("PNCP_BREAKER_FAILURES", DefaultBreakerFailures),
		PncpBreakerCooldown: getEnvDuration("PNCP_BREAKER_COOLDOWN", DefaultBreakerCooldown),

		SyncInterval:    getEnvDuration("SYNC_INTERVAL", DefaultSyncInterval),
		SyncTargetDelay: getEnvDuration("SYNC_TARGET_DELAY", DefaultSyncTargetDelay),
		SyncMaxTargets:  getEnvInt("SYNC_MAX_TARGETS", DefaultSyncMaxTargets),
		Port:            getEnv("PORT", "8080"),
		MetricsAddr:     getEnv("METRICS_ADDR", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
	}, nil
}

// Validate checks the settings a process cannot start without.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	return nil
}

// Helper function to get env var or return default
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func getEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

// getEnvIntAllowZero is getEnvInt for settings where 0 means off.
func getEnvIntAllowZero(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f < 0 {
		return defaultValue
	}
	return f
}
