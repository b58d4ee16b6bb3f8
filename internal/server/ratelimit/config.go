package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadConfig loads rate limiting configuration from environment variables.
func LoadConfig() *Config {
	config := &Config{
		Enabled:         getEnvBool("RATE_LIMIT_ENABLED", true),
		DefaultLimit:    getEnvInt("RATE_LIMIT_DEFAULT", 600),
		DefaultWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		CleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		Whitelist:       parseIPList(os.Getenv("RATE_LIMIT_WHITELIST")),
		Blacklist:       parseIPList(os.Getenv("RATE_LIMIT_BLACKLIST")),
	}

	readLimit := getEnvInt("RATE_LIMIT_READS", 300)
	readWindow := getEnvDuration("RATE_LIMIT_READS_WINDOW", time.Minute)
	readBurst := getEnvInt("RATE_LIMIT_READS_BURST", 60)

	// Forced refreshes (?refresh=true) hit the upstream API, keep them tight
	refreshLimit := getEnvInt("RATE_LIMIT_REFRESH", 30)
	refreshWindow := getEnvDuration("RATE_LIMIT_REFRESH_WINDOW", time.Minute)
	refreshBurst := getEnvInt("RATE_LIMIT_REFRESH_BURST", 10)

	config.EndpointConfigs = []EndpointConfig{
		{Path: "/teams/", Method: "GET", Limit: readLimit, Window: readWindow, Burst: readBurst},
		{Path: "/players/", Method: "GET", Limit: readLimit, Window: readWindow, Burst: readBurst},
		{Path: "/games/", Method: "GET", Limit: readLimit, Window: readWindow, Burst: readBurst},
		{Path: "/teams/", Method: "GET", Refresh: true, Limit: refreshLimit, Window: refreshWindow, Burst: refreshBurst},
		{Path: "/players/", Method: "GET", Refresh: true, Limit: refreshLimit, Window: refreshWindow, Burst: refreshBurst},
		{Path: "/games/", Method: "GET", Refresh: true, Limit: refreshLimit, Window: refreshWindow, Burst: refreshBurst},
		{
			Path:   "/admin/login",
			Method: "POST",
			Limit:  getEnvInt("RATE_LIMIT_LOGIN", 10),
			Window: getEnvDuration("RATE_LIMIT_LOGIN_WINDOW", time.Minute),
			Burst:  getEnvInt("RATE_LIMIT_LOGIN_BURST", 5),
		},
		{
			Path:   "/admin/",
			Limit:  getEnvInt("RATE_LIMIT_ADMIN", 60),
			Window: getEnvDuration("RATE_LIMIT_ADMIN_WINDOW", time.Minute),
			Burst:  getEnvInt("RATE_LIMIT_ADMIN_BURST", 20),
		},
	}

	return config
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// parseIPList parses a comma-separated list of IPs into a lookup map.
func parseIPList(value string) map[string]bool {
	result := make(map[string]bool)
	if value == "" {
		return result
	}
	for _, ip := range strings.Split(value, ",") {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			result[ip] = true
		}
	}
	return result
}
