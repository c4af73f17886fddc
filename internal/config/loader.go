package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix prefixes every environment override, e.g. VESTA_HTTP_ADDR.
	EnvPrefix = "VESTA_"
	// EnvConfigFile points at an optional YAML file.
	EnvConfigFile = "VESTA_CONFIG"
)

// Load builds a Config by layering defaults, an optional YAML file and
// environment variables, in increasing precedence.
func Load(_ context.Context) (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	// VESTA_LOOKUP_CACHE_TTL -> lookup_cache_ttl
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("loading env config: %w", err)
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields and positive durations.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return errors.New("http_addr must not be empty")
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("base_url must not be empty")
	}
	if c.RequestTimeout <= 0 || c.RenderTimeout <= 0 || c.BreakerTimeout <= 0 {
		return errors.New("request_timeout, render_timeout and breaker_timeout must be positive")
	}
	if c.MinRequestInterval < 0 || c.LookupCacheTTL < 0 {
		return errors.New("min_request_interval and lookup_cache_ttl must not be negative")
	}
	if c.BreakerMaxFailures <= 0 {
		return errors.New("breaker_max_failures must be positive")
	}
	return nil
}
