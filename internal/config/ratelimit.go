package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// RateLimitConfig configures one token bucket.  Buckets are scoped so that
// the auth endpoints and prediction submissions can be tuned separately.
type RateLimitConfig struct {
	Scope          string
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
	Debug          bool
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables.  A scoped variable such
// as RATE_LIMIT_AUTH_CAPACITY overrides the global RATE_LIMIT_CAPACITY for
// the "auth" scope.
func LoadRateLimitConfig(scope string) RateLimitConfig {
	get := func(name string) string {
		if scope != "" {
			if v := os.Getenv("RATE_LIMIT_" + strings.ToUpper(scope) + "_" + name); v != "" {
				return v
			}
		}
		return os.Getenv("RATE_LIMIT_" + name)
	}

	cfg := RateLimitConfig{
		Scope:          scope,
		Enabled:        parseBool(get("ENABLED"), true),
		Capacity:       parseInt(get("CAPACITY"), 60),
		RefillTokens:   parseInt(get("REFILL_TOKENS"), 1),
		RefillInterval: parseDuration(get("REFILL_INTERVAL"), time.Second),
		TTL:            parseDuration(get("TTL"), 10*time.Minute),
		KeyStrategy:    strOr(get("KEY_STRATEGY"), "ip_user_route"),
		Prefix:         strOr(get("PREFIX"), "rl"),
		Debug:          parseBool(get("DEBUG"), false),
	}
	if scope != "" {
		cfg.Prefix = cfg.Prefix + ":" + scope
	}
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillTokens < 1 {
		cfg.RefillTokens = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	if minTTL := 5 * cfg.RefillInterval; cfg.TTL < minTTL {
		cfg.TTL = minTTL
	}
	return cfg
}

func strOr(v, d string) string {
	if v != "" {
		return v
	}
	return d
}

func parseBool(v string, d bool) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func parseInt(v string, d int) int {
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func parseDuration(v string, d time.Duration) time.Duration {
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}

func envBool(k string, d bool) bool { return parseBool(os.Getenv(k), d) }

func envDur(k string, d time.Duration) time.Duration { return parseDuration(os.Getenv(k), d) }
