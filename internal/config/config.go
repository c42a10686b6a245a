package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// AnonymizationSecret keys the one-way identifier hashes. It must be set
	// in production; an empty value disables keyed hashing and the filter
	// refuses to start.
	AnonymizationSecret string

	DefaultPrivacyLevel    string
	RetentionSweepInterval time.Duration
	SafetyGateEnabled      bool

	AdminJWTSecret     string
	CORSAllowedOrigins []string

	// CaptureRateLimit is requests per second per client; zero disables
	// rate limiting entirely.
	CaptureRateLimit int
	CaptureRateBurst int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:                   getEnv("PORT", "8080"),
		Env:                    getEnv("ENV", "development"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		RedisAddr:              getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:          getEnv("REDIS_PASSWORD", ""),
		RedisTLS:               getEnvAsBool("REDIS_TLS", false),
		AnonymizationSecret:    getEnv("ANONYMIZATION_SECRET", ""),
		DefaultPrivacyLevel:    getEnv("DEFAULT_PRIVACY_LEVEL", "standard"),
		RetentionSweepInterval: getEnvAsDuration("RETENTION_SWEEP_INTERVAL", 1*time.Hour),
		SafetyGateEnabled:      getEnvAsBool("SAFETY_GATE_ENABLED", true),
		AdminJWTSecret:         getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins:     getEnvAsSlice("CORS_ALLOWED_ORIGINS", nil),
		CaptureRateLimit:       getEnvAsInt("CAPTURE_RATE_LIMIT", 0),
		CaptureRateBurst:       getEnvAsInt("CAPTURE_RATE_BURST", 10),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsSlice(key string, fallback []string) []string {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
