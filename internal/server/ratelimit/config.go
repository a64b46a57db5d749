package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Rule limits one endpoint. A path ending in "/" matches as a prefix.
type Rule struct {
	Path   string
	Method string
	Limit  int           // requests per Window
	Window time.Duration
	Burst  int           // bucket capacity, defaults to Limit
}

// Config holds the limiter's rules plus a fallback default.
type Config struct {
	Enabled       bool
	DefaultLimit  int
	DefaultWindow time.Duration
	Rules         []Rule
}

// DefaultConfig limits the embedding-backed endpoints hardest: every
// ingest or recommendation call costs a model invocation.
func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		DefaultLimit:  300,
		DefaultWindow: time.Minute,
		Rules: []Rule{
			{Path: "/ingest", Method: "POST", Limit: 10, Window: time.Minute, Burst: 3},
			{Path: "/ingest/remote", Method: "POST", Limit: 6, Window: time.Hour, Burst: 2},
			{Path: "/recommendations", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
			{Path: "/postings", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
		},
	}
}

// LoadConfig reads overrides from the environment on top of the defaults.
func LoadConfig() *Config {
	cfg := DefaultConfig()
	cfg.Enabled = envBool("RATE_LIMIT_ENABLED", cfg.Enabled)
	cfg.DefaultLimit = envInt("RATE_LIMIT_DEFAULT_LIMIT", cfg.DefaultLimit)
	cfg.DefaultWindow = envDuration("RATE_LIMIT_DEFAULT_WINDOW", cfg.DefaultWindow)
	return cfg
}

// match finds the rule for a request: health is never limited, exact
// matches beat prefix matches, and the default rule covers the rest.
func (c *Config) match(path, method string) *Rule {
	if path == "/health" && method == "GET" {
		return nil
	}
	for i := range c.Rules {
		r := &c.Rules[i]
		if r.Method == method && r.Path == path {
			return r
		}
	}
	for i := range c.Rules {
		r := &c.Rules[i]
		if r.Method == method && strings.HasSuffix(r.Path, "/") && strings.HasPrefix(path, r.Path) {
			return r
		}
	}
	return &Rule{Path: "*", Method: method, Limit: c.DefaultLimit, Window: c.DefaultWindow}
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
