package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
}

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// UpstreamConfig defines the generative API connection and retry behavior.
type UpstreamConfig struct {
	// APIKey is the upstream credential. It is never logged and never
	// included in a response body.
	APIKey          string
	BaseURL         string
	PredictModel    string
	ContentModel    string
	MaxRetries      int
	RetryBaseDelay  time.Duration
	RetryJitter     time.Duration
	RequestTimeout  time.Duration
	MaxPromptLength int
}

// Config is the top-level configuration. It is read once at startup and
// passed to the handler explicitly; nothing re-reads the environment
// mid-request.
type Config struct {
	Server   ServerConfig
	Logging  LoggingConfig
	Axiom    AxiomConfig
	Upstream UpstreamConfig
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{}

	cfg.Server = ServerConfig{
		Port:            getEnv("PORT", "8080"),
		ShutdownTimeout: parseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s"), 10*time.Second),
	}

	// Logging defaults
	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", "logs/logoproxy.log"),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	// Axiom defaults
	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_logoproxy",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	// Upstream defaults
	cfg.Upstream = UpstreamConfig{
		APIKey:          getEnv("GEMINI_API_KEY", ""),
		BaseURL:         getEnv("UPSTREAM_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		PredictModel:    getEnv("PREDICT_MODEL", "imagen-3.0-generate-002"),
		ContentModel:    getEnv("CONTENT_MODEL", "gemini-2.5-flash-image-preview"),
		MaxRetries:      parseInt(getEnv("UPSTREAM_MAX_RETRIES", "3"), 3),
		RetryBaseDelay:  parseDuration(getEnv("RETRY_BASE_DELAY", "1s"), time.Second),
		RetryJitter:     parseDuration(getEnv("RETRY_JITTER", "250ms"), 250*time.Millisecond),
		RequestTimeout:  parseDuration(getEnv("UPSTREAM_TIMEOUT", "60s"), 60*time.Second),
		MaxPromptLength: parseInt(getEnv("MAX_PROMPT_LENGTH", "4000"), 4000),
	}

	return cfg
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}
