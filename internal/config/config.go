// Package config defines vesta's process configuration.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// HTTPAddr is the listen address of the http command (REST, MCP over HTTP,
	// websocket feed and metrics).
	HTTPAddr string `koanf:"http_addr"`

	// BaseURL is the basketball-reference origin.
	BaseURL string `koanf:"base_url"`
	// RequestTimeout bounds a single static page fetch.
	RequestTimeout time.Duration `koanf:"request_timeout"`
	// MinRequestInterval spaces out requests to the upstream site.
	MinRequestInterval time.Duration `koanf:"min_request_interval"`
	// RenderTimeout bounds a headless-browser table render.
	RenderTimeout time.Duration `koanf:"render_timeout"`
	// Headless toggles the chromedp headless flag.
	Headless bool `koanf:"headless"`

	// BreakerMaxFailures consecutive upstream failures open the breaker.
	BreakerMaxFailures int `koanf:"breaker_max_failures"`
	// BreakerTimeout is how long the breaker stays open.
	BreakerTimeout time.Duration `koanf:"breaker_timeout"`

	// RedisURL enables the locator cache and the invocation stream. Empty disables both.
	RedisURL string `koanf:"redis_url"`
	// LookupCacheTTL is how long a resolved player locator is kept.
	LookupCacheTTL time.Duration `koanf:"lookup_cache_ttl"`

	// AtlasDSN enables the Postgres invocation audit log. Empty disables it.
	AtlasDSN string `koanf:"atlas_dsn"`

	// EnableWebsocket serves the invocation feed on /ws/invocations.
	EnableWebsocket bool `koanf:"enable_websocket"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		HTTPAddr:           ":8080",
		BaseURL:            "https://www.basketball-reference.com",
		RequestTimeout:     30 * time.Second,
		MinRequestInterval: 2 * time.Second,
		RenderTimeout:      30 * time.Second,
		Headless:           true,
		BreakerMaxFailures: 5,
		BreakerTimeout:     60 * time.Second,
		LookupCacheTTL:     24 * time.Hour,
		EnableWebsocket:    true,
	}
}
