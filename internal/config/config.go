// Package config provides configuration loading and validation for the
// backend: server settings, the upstream stats API, and auth secrets.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Defaults for the current NBA season.
const (
	DefaultSeason     = "2025-26"
	DefaultSeasonType = "Regular Season"
)

// Config holds backend settings loaded from environment variables.
type Config struct {
	// Server
	Port int

	// Database. Empty means run with the in-memory store (development).
	DatabaseURL string

	// Upstream stats API
	NBAAPIBaseURL string
	NBAAPIKey     string

	// Season context applied when requests omit season parameters.
	CurrentSeason     string
	CurrentSeasonType string
}

// Load reads configuration from the environment. Missing optional values use
// defaults; NBA_API_BASE_URL is required.
func Load() (*Config, error) {
	cfg := &Config{
		Port:              8080,
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		NBAAPIBaseURL:     os.Getenv("NBA_API_BASE_URL"),
		NBAAPIKey:         os.Getenv("NBA_API_KEY"),
		CurrentSeason:     getEnvDefault("CURRENT_SEASON", DefaultSeason),
		CurrentSeasonType: getEnvDefault("CURRENT_SEASON_TYPE", DefaultSeasonType),
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %v", err)
		}
		cfg.Port = port
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration has usable values.
func (c *Config) Validate() error {
	if c.NBAAPIBaseURL == "" {
		return fmt.Errorf("config error: NBA_API_BASE_URL is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config error: port out of range: %d", c.Port)
	}
	if c.CurrentSeason == "" {
		return fmt.Errorf("config error: current season cannot be empty")
	}
	return nil
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
