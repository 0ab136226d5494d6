package ratelimit

import (
	"strconv"
	"strings"
	"time"
)

// EndpointConfig is the limit for one route.
// Path is matched segment by segment; "*" matches any single segment and a
// trailing "/" matches any suffix.
type EndpointConfig struct {
	Path   string
	Method string
	Limit  int           // requests per window
	Window time.Duration
	Burst  int // defaults to Limit
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	// IdleTTL is how long an unused bucket is kept
	IdleTTL         time.Duration
	Allowlist       map[string]bool
	Denylist        map[string]bool
	EndpointConfigs []EndpointConfig
}

// DefaultConfig returns the limits used when nothing is configured
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    600,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		Allowlist:       map[string]bool{},
		Denylist:        map[string]bool{},
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// LoadConfig builds the configuration from RATE_LIMIT_* variables read through lookup.
func LoadConfig(lookup func(string) (string, bool)) *Config {
	cfg := DefaultConfig()
	cfg.Enabled = envBool(lookup, "RATE_LIMIT_ENABLED", cfg.Enabled)
	cfg.DefaultLimit = envInt(lookup, "RATE_LIMIT_DEFAULT_LIMIT", cfg.DefaultLimit)
	cfg.DefaultWindow = envDuration(lookup, "RATE_LIMIT_DEFAULT_WINDOW", cfg.DefaultWindow)
	cfg.CleanupInterval = envDuration(lookup, "RATE_LIMIT_CLEANUP_INTERVAL", cfg.CleanupInterval)
	if v, ok := lookup("RATE_LIMIT_ALLOWLIST"); ok {
		cfg.Allowlist = parseIPList(v)
	}
	if v, ok := lookup("RATE_LIMIT_DENYLIST"); ok {
		cfg.Denylist = parseIPList(v)
	}
	return cfg
}

// DefaultEndpointConfigs returns the per-route limits.
// Feedback generation calls the language model and gets the strictest limit.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		{Path: "/api/feedback", Method: "POST", Limit: 20, Window: time.Hour, Burst: 3},
		{Path: "/api/calls", Method: "POST", Limit: 30, Window: time.Hour, Burst: 5},
		{Path: "/api/calls/*/disconnect", Method: "POST", Limit: 30, Window: time.Hour, Burst: 5},
		// provider webhooks arrive once per utterance
		{Path: "/api/calls/*/events", Method: "POST", Limit: 3000, Window: time.Minute, Burst: 200},
	}
}

func envInt(lookup func(string) (string, bool), key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(lookup func(string) (string, bool), key string, def bool) bool {
	if v, ok := lookup(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envDuration(lookup func(string) (string, bool), key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// parseIPList parses a comma-separated list of addresses into a set
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
