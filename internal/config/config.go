// Package config loads service configuration from the environment.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment variables
type Config struct {
	// HTTP and sessions
	Env                string
	Port               string
	SessionSecret      string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string

	// Logging
	LogLevel  string
	LogFormat string

	// Backing services
	DatabaseURL   string
	RedisURL      string
	EncryptionKey string

	// Server-wide AI defaults; per-user credentials are saved in the store
	AIProvider      string
	AIAPIKey        string
	AIModel         string
	AIResearchModel string
	AIStubMode      bool
	AICallTimeout   time.Duration
	AIStubDelay     time.Duration

	// Pipeline and enrichment
	PipelineProfile   string
	SettleDelay       time.Duration
	EnrichConcurrency int
	VideoPollInterval time.Duration
	VideoMaxPolls     int
	HistoryLimit      int
	LikedLimit        int
	MediaDir          string
	MediaURLPrefix    string

	// Scheduled trend scouting
	TrendSchedule string
	TrendNiche    string
}

// Load reads .env files when present, then the process environment.
// Variables already set in the environment win over file values.
func Load() *Config {
	loadEnvFiles(".env", ".env.dev")

	cfg := &Config{
		Env:                getEnvWithDefault("ENV", "development"),
		Port:               getEnvWithDefault("PORT", "8080"),
		SessionSecret:      os.Getenv("SESSION_SECRET"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleCallbackURL:  getEnvWithDefault("GOOGLE_CALLBACK_URL", "http://localhost:8080/auth/google/callback"),

		LogLevel:  getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvWithDefault("LOG_FORMAT", "text"),

		DatabaseURL:   getEnvWithDefault("DATABASE_URL", "sqlite:viralpilot.db"),
		RedisURL:      os.Getenv("REDIS_URL"),
		EncryptionKey: os.Getenv("ENCRYPTION_KEY"),

		AIProvider:      getEnvWithDefault("AI_PROVIDER", "gemini"),
		AIAPIKey:        os.Getenv("AI_API_KEY"),
		AIModel:         os.Getenv("AI_MODEL"),
		AIResearchModel: os.Getenv("AI_RESEARCH_MODEL"),
		AIStubMode:      getEnvBool("AI_STUB_MODE", false),
		AICallTimeout:   getEnvDuration("AI_CALL_TIMEOUT", 90*time.Second),
		AIStubDelay:     getEnvDuration("AI_STUB_DELAY", 200*time.Millisecond),

		PipelineProfile:   getEnvWithDefault("PIPELINE_PROFILE", "full"),
		SettleDelay:       getEnvDuration("PIPELINE_SETTLE_DELAY", 1500*time.Millisecond),
		EnrichConcurrency: getEnvInt("ENRICH_CONCURRENCY", 4),
		VideoPollInterval: getEnvDuration("VIDEO_POLL_INTERVAL", 5*time.Second),
		VideoMaxPolls:     getEnvInt("VIDEO_MAX_POLLS", 60),
		HistoryLimit:      getEnvInt("HISTORY_LIMIT", 20),
		LikedLimit:        getEnvInt("LIKED_LIMIT", 50),
		MediaDir:          getEnvWithDefault("MEDIA_DIR", "data/media"),
		MediaURLPrefix:    getEnvWithDefault("MEDIA_URL_PREFIX", "/media"),

		TrendSchedule: os.Getenv("TREND_SCHEDULE"),
		TrendNiche:    getEnvWithDefault("TREND_NICHE", "Affiliate Marketing"),
	}

	// Warn if using default session secret (insecure for production)
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = "dev-secret-change-in-production-use-openssl-rand-hex-32"
		slog.Warn("Using default SESSION_SECRET. Generate a secure secret with: openssl rand -hex 32")
	}

	return cfg
}

// IsProduction reports whether ENV is production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// AuthEnabled reports whether Google login is configured. Without it every
// request runs as the development user.
func (c *Config) AuthEnabled() bool {
	return c.GoogleClientID != ""
}

func loadEnvFiles(files ...string) {
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			slog.Warn("Failed to load env file", "file", file, "error", err)
		}
	}
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		slog.Warn("Ignoring invalid integer", "key", key, "value", value)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
		slog.Warn("Ignoring invalid boolean", "key", key, "value", value)
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("1500ms") or plain milliseconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	slog.Warn("Ignoring invalid duration", "key", key, "value", value)
	return defaultValue
}
