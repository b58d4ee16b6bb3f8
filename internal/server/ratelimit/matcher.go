package ratelimit

import (
	"strings"
	"time"
)

// EndpointConfig holds rate limit configuration for a specific endpoint.
type EndpointConfig struct {
	Path    string        // Endpoint path (e.g., "/admin/overrides")
	Method  string        // HTTP method (empty means all methods)
	Refresh bool          // Applies only to forced-refresh requests
	Limit   int           // Requests per window (0 or negative means unlimited)
	Window  time.Duration // Time window
	Burst   int           // Burst capacity (0 means same as Limit)
}

// MatchEndpoint finds the endpoint configuration matching the given path,
// method and refresh flag. Refresh requests prefer a refresh-specific tier
// and fall through to the plain tier when none is configured; non-refresh
// requests never match a refresh tier. Returns nil if no configuration
// matches.
func MatchEndpoint(path string, method string, refresh bool, configs []EndpointConfig) *EndpointConfig {
	// Health checks are never limited
	if path == "/health" {
		return &EndpointConfig{Path: "/health", Limit: -1}
	}

	if refresh {
		if cfg := matchConfigs(path, method, true, configs); cfg != nil {
			return cfg
		}
	}
	return matchConfigs(path, method, false, configs)
}

func matchConfigs(path string, method string, refresh bool, configs []EndpointConfig) *EndpointConfig {
	// Exact match first
	for i := range configs {
		cfg := &configs[i]
		if cfg.Refresh != refresh {
			continue
		}
		if cfg.Path == path && (cfg.Method == "" || cfg.Method == method) {
			return cfg
		}
	}

	// Prefix match, longest prefix wins
	var best *EndpointConfig
	bestLen := 0
	for i := range configs {
		cfg := &configs[i]
		if cfg.Refresh != refresh {
			continue
		}
		if cfg.Method != "" && cfg.Method != method {
			continue
		}
		if strings.HasSuffix(cfg.Path, "/") && strings.HasPrefix(path, cfg.Path) && len(cfg.Path) > bestLen {
			best = cfg
			bestLen = len(cfg.Path)
		}
	}

	return best
}
