package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Upstream chat completions
	UpstreamBaseURL     string
	UpstreamAPIKey      string
	UpstreamModel       string
	UpstreamIdleTimeout time.Duration

	// Context cache
	ContextCacheTTL time.Duration

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8080"),
		Env:         getEnvOrDefault("ENV", "development"),
		DatabaseURL: mustGetEnv("DATABASE_URL"),
		RedisURL:    getEnvOrDefault("REDIS_URL", ""),

		UpstreamBaseURL:     getEnvOrDefault("UPSTREAM_BASE_URL", "https://api.openai.com/v1"),
		UpstreamAPIKey:      getEnvOrDefault("UPSTREAM_API_KEY", ""),
		UpstreamModel:       getEnvOrDefault("UPSTREAM_MODEL", "gpt-4o-mini"),
		UpstreamIdleTimeout: getEnvAsDurationOrDefault("UPSTREAM_IDLE_TIMEOUT_SECONDS", 60*time.Second),

		ContextCacheTTL: getEnvAsDurationOrDefault("CONTEXT_CACHE_TTL_SECONDS", 5*time.Minute),

		FrontendURL: getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return defaultVal
	}
	return time.Duration(n) * time.Second
}
