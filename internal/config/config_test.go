package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "10000" {
		t.Errorf("Port = %q, want 10000", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 30s", cfg.ShutdownTimeout)
	}
	if cfg.HistoryLimit != 10 {
		t.Errorf("HistoryLimit = %d, want 10", cfg.HistoryLimit)
	}
	if cfg.ConfidenceThreshold != 0.2 {
		t.Errorf("ConfidenceThreshold = %v, want 0.2", cfg.ConfidenceThreshold)
	}
	if cfg.SessionRateLimitBurst != 10.0 {
		t.Errorf("SessionRateLimitBurst = %v, want 10", cfg.SessionRateLimitBurst)
	}
	if cfg.LLMPrimaryProvider != "gemini" || cfg.LLMFallbackProvider != "groq" {
		t.Errorf("LLM providers = (%q, %q), want (gemini, groq)", cfg.LLMPrimaryProvider, cfg.LLMFallbackProvider)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("HISTORY_LIMIT", "25")
	t.Setenv("CONFIDENCE_THRESHOLD", "0.5")
	t.Setenv("SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("DATA_DIR", "/tmp/faix")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.HistoryLimit != 25 {
		t.Errorf("HistoryLimit = %d, want 25", cfg.HistoryLimit)
	}
	if cfg.ConfidenceThreshold != 0.5 {
		t.Errorf("ConfidenceThreshold = %v, want 0.5", cfg.ConfidenceThreshold)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 5s", cfg.ShutdownTimeout)
	}
	if got := cfg.SQLitePath(); got != filepath.Join("/tmp/faix", "sessions.db") {
		t.Errorf("SQLitePath() = %q", got)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("HISTORY_LIMIT", "not-a-number")
	t.Setenv("CONFIDENCE_THRESHOLD", "nope")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HistoryLimit != 10 {
		t.Errorf("HistoryLimit = %d, want default 10", cfg.HistoryLimit)
	}
	if cfg.ConfidenceThreshold != 0.2 {
		t.Errorf("ConfidenceThreshold = %v, want default 0.2", cfg.ConfidenceThreshold)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:                "10000",
			DataDir:             "./data",
			DatasetPath:         "./data/faix_data.csv",
			HistoryLimit:        10,
			ConfidenceThreshold: 0.2,
			ScraperTimeout:      30 * time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing port", func(c *Config) { c.Port = "" }, "PORT"},
		{"missing data dir", func(c *Config) { c.DataDir = "" }, "DATA_DIR"},
		{"no dataset source", func(c *Config) { c.DatasetPath = "" }, "DATASET_PATH"},
		{"zero history", func(c *Config) { c.HistoryLimit = 0 }, "HISTORY_LIMIT"},
		{"threshold too high", func(c *Config) { c.ConfidenceThreshold = 1.5 }, "CONFIDENCE_THRESHOLD"},
		{"negative retries", func(c *Config) { c.ScraperMaxRetries = -1 }, "SCRAPER_MAX_RETRIES"},
		{"snapshot without creds", func(c *Config) { c.SnapshotEndpoint = "https://s3.example.com" }, "snapshot credentials"},
		{
			"snapshot replaces dataset",
			func(c *Config) {
				c.DatasetPath = ""
				c.SnapshotEndpoint = "https://s3.example.com"
				c.SnapshotAccessKey = "key"
				c.SnapshotSecretKey = "secret"
				c.SnapshotBucket = "datasets"
			},
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestHasLLMProvider(t *testing.T) {
	t.Parallel()
	cfg := &Config{}
	if cfg.HasLLMProvider() {
		t.Error("HasLLMProvider() = true with no keys")
	}
	cfg.GroqAPIKey = "gsk_test"
	if !cfg.HasLLMProvider() {
		t.Error("HasLLMProvider() = false with Groq key set")
	}
}

func TestHasSnapshotStore(t *testing.T) {
	t.Parallel()
	cfg := &Config{}
	if cfg.HasSnapshotStore() {
		t.Error("HasSnapshotStore() = true with no endpoint")
	}
	cfg.SnapshotEndpoint = "https://s3.example.com"
	if !cfg.HasSnapshotStore() {
		t.Error("HasSnapshotStore() = false with endpoint set")
	}
}
