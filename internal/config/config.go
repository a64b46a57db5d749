// Package config loads service configuration from environment variables
// with fail-fast validation.
package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	defaultEmbedModel = "text-embedding-004"
	defaultEmbedDims  = 768
	defaultPort       = "8080"
	defaultFetchLimit = 50
)

// Config holds everything the service needs at startup.
type Config struct {
	// Required.
	DatabaseURL  string
	GeminiAPIKey string

	// Embedding.
	EmbedModel      string
	EmbedDimensions int

	// Optional Redis embedding cache.
	RedisURL string

	// Optional external job API.
	RapidAPIKey  string
	RapidAPIHost string
	RapidAPIURL  string
	FetchLimit   int

	// Scheduler; 0 disables periodic ingestion.
	FetchIntervalHours int

	// HTTP.
	Port string
}

// Load reads configuration from the environment. Missing required
// variables fail immediately rather than at first use.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		EmbedModel:      envString("EMBED_MODEL", defaultEmbedModel),
		RedisURL:        os.Getenv("REDIS_URL"),
		RapidAPIKey:     os.Getenv("RAPIDAPI_KEY"),
		RapidAPIHost:    os.Getenv("RAPIDAPI_HOST"),
		RapidAPIURL:     os.Getenv("RAPIDAPI_URL"),
		Port:            envString("PORT", defaultPort),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	var err error
	if cfg.EmbedDimensions, err = envInt("EMBED_DIMENSIONS", defaultEmbedDims); err != nil {
		return nil, err
	}
	if cfg.EmbedDimensions <= 0 {
		return nil, fmt.Errorf("EMBED_DIMENSIONS must be positive")
	}
	if cfg.FetchLimit, err = envInt("FETCH_LIMIT", defaultFetchLimit); err != nil {
		return nil, err
	}
	if cfg.FetchIntervalHours, err = envInt("FETCH_INTERVAL_HOURS", 0); err != nil {
		return nil, err
	}
	if cfg.FetchIntervalHours < 0 {
		return nil, fmt.Errorf("FETCH_INTERVAL_HOURS must not be negative")
	}

	return cfg, nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}
