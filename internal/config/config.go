// Package config provides application configuration management.
// It loads settings from environment variables and provides defaults for
// the server, knowledge dataset, conversation behavior, and optional
// integrations (LLM fallback, object storage snapshots, Better Stack).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Data Configuration
	DataDir     string // Directory for the SQLite session database
	DatasetPath string // Path to the knowledge dataset CSV
	StaffPath   string // Path to the staff directory CSV (optional)

	// Snapshot Configuration (optional S3-compatible object storage)
	SnapshotEndpoint  string // Object storage endpoint; empty = snapshots disabled
	SnapshotAccessKey string
	SnapshotSecretKey string
	SnapshotBucket    string
	SnapshotKey       string // Object key of the zstd-compressed dataset

	// Staff Directory Scraper (optional)
	StaffPageURL      string // Faculty staff page to scrape when no CSV is available
	ScraperTimeout    time.Duration
	ScraperMaxRetries int

	// Conversation Configuration
	HistoryLimit        int     // Max exchanges kept per session (default: 10)
	ConfidenceThreshold float64 // Intent confidence gate for retrieval (default: 0.2)

	// LLM Fallback Configuration (optional)
	GeminiAPIKey        string // Gemini API key for the generic-fallback responder
	GroqAPIKey          string // Groq API key (OpenAI-compatible alternative)
	GeminiModel         string // Override for the default Gemini model
	GroqModel           string // Override for the default Groq model
	LLMPrimaryProvider  string // "gemini" or "groq" (default: "gemini")
	LLMFallbackProvider string // "gemini" or "groq" (default: "groq")

	// Metrics Authentication
	MetricsUsername string // Username for /metrics endpoint Basic Auth (default: "prometheus")
	MetricsPassword string // Password for /metrics endpoint Basic Auth (empty = no auth)

	// Error/Log Shipping (optional)
	SentryToken         string // Better Stack Errors token; empty = disabled
	SentryHost          string // Better Stack Errors ingesting host
	Environment         string // Deployment environment (default: "production")
	BetterstackToken    string // Better Stack Logs token; empty = disabled
	BetterstackEndpoint string // Better Stack Logs ingesting endpoint

	// Rate Limits (Token Bucket Algorithm)
	SessionRateLimitBurst  float64 // Maximum burst tokens per session (default: 10)
	SessionRateLimitRefill float64 // Tokens refilled per second (default: 0.5)
	GlobalRateLimitRPS     float64 // Global rate limit in requests per second (default: 100)
}

// Load reads configuration from environment variables
// It attempts to load .env file first, then reads from env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		// Server Configuration
		Port:            getEnv("PORT", "10000"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),

		// Data Configuration
		DataDir:     getEnv("DATA_DIR", "./data"),
		DatasetPath: getEnv("DATASET_PATH", "./data/faix_data.csv"),
		StaffPath:   getEnv("STAFF_PATH", ""),

		// Snapshot Configuration
		SnapshotEndpoint:  getEnv("SNAPSHOT_ENDPOINT", ""),
		SnapshotAccessKey: getEnv("SNAPSHOT_ACCESS_KEY_ID", ""),
		SnapshotSecretKey: getEnv("SNAPSHOT_SECRET_ACCESS_KEY", ""),
		SnapshotBucket:    getEnv("SNAPSHOT_BUCKET", ""),
		SnapshotKey:       getEnv("SNAPSHOT_KEY", "faix_data.csv.zst"),

		// Staff Directory Scraper
		StaffPageURL:      getEnv("STAFF_PAGE_URL", ""),
		ScraperTimeout:    getDurationEnv("SCRAPER_TIMEOUT", 30*time.Second),
		ScraperMaxRetries: getIntEnv("SCRAPER_MAX_RETRIES", 3),

		// Conversation Configuration
		HistoryLimit:        getIntEnv("HISTORY_LIMIT", 10),
		ConfidenceThreshold: getFloatEnv("CONFIDENCE_THRESHOLD", 0.2),

		// LLM Fallback Configuration
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		GroqAPIKey:          getEnv("GROQ_API_KEY", ""),
		GeminiModel:         getEnv("GEMINI_MODEL", ""),
		GroqModel:           getEnv("GROQ_MODEL", ""),
		LLMPrimaryProvider:  getEnv("LLM_PRIMARY_PROVIDER", "gemini"),
		LLMFallbackProvider: getEnv("LLM_FALLBACK_PROVIDER", "groq"),

		// Metrics Authentication
		MetricsUsername: getEnv("METRICS_USERNAME", "prometheus"),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),

		// Error/Log Shipping
		SentryToken:         getEnv("SENTRY_TOKEN", ""),
		SentryHost:          getEnv("SENTRY_HOST", "errors.betterstack.com"),
		Environment:         getEnv("ENVIRONMENT", "production"),
		BetterstackToken:    getEnv("BETTERSTACK_TOKEN", ""),
		BetterstackEndpoint: getEnv("BETTERSTACK_ENDPOINT", ""),

		// Rate Limits
		SessionRateLimitBurst:  getFloatEnv("SESSION_RATE_LIMIT_BURST", 10.0),
		SessionRateLimitRefill: getFloatEnv("SESSION_RATE_LIMIT_REFILL_PER_SEC", 0.5),
		GlobalRateLimitRPS:     getFloatEnv("GLOBAL_RATE_LIMIT_RPS", 100.0),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("DATA_DIR is required"))
	}
	if c.DatasetPath == "" && c.SnapshotEndpoint == "" {
		errs = append(errs, errors.New("DATASET_PATH or SNAPSHOT_ENDPOINT is required"))
	}
	if c.HistoryLimit <= 0 {
		errs = append(errs, fmt.Errorf("HISTORY_LIMIT must be positive, got %d", c.HistoryLimit))
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		errs = append(errs, fmt.Errorf("CONFIDENCE_THRESHOLD must be in [0,1], got %v", c.ConfidenceThreshold))
	}
	if c.ScraperTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SCRAPER_TIMEOUT must be positive, got %v", c.ScraperTimeout))
	}
	if c.ScraperMaxRetries < 0 {
		errs = append(errs, fmt.Errorf("SCRAPER_MAX_RETRIES cannot be negative, got %d", c.ScraperMaxRetries))
	}
	if c.SnapshotEndpoint != "" {
		if c.SnapshotAccessKey == "" || c.SnapshotSecretKey == "" || c.SnapshotBucket == "" {
			errs = append(errs, errors.New("snapshot credentials and bucket are required when SNAPSHOT_ENDPOINT is set"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// SQLitePath returns the full path to the SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "sessions.db")
}

// HasLLMProvider returns true if at least one LLM provider is configured.
func (c *Config) HasLLMProvider() bool {
	return c.GeminiAPIKey != "" || c.GroqAPIKey != ""
}

// HasSnapshotStore returns true if an object storage snapshot source is configured.
func (c *Config) HasSnapshotStore() bool {
	return c.SnapshotEndpoint != ""
}
