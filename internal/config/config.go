// Package config loads the store configuration from a YAML file, with
// working defaults when no file exists.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Mode selects how eagerly derived structures are maintained.
type Mode string

const (
	// ModeEager updates index and graph synchronously on every write and
	// appends raw events directly.
	ModeEager Mode = "eager"
	// ModeLightweight batches raw-event appends and defers index/graph
	// updates until Reconcile runs. The index may be stale in between.
	ModeLightweight Mode = "lightweight"
)

// Config holds the store's tunables. The staleness window of lightweight
// mode is an explicit setting here, not a side effect.
type Config struct {
	// Dir is the base directory for all store files.
	Dir string

	Mode Mode

	// CacheTTL bounds how stale a cached index/graph/scratchpad read may be.
	CacheTTL time.Duration

	// CoalesceMaxItems and CoalesceMaxAge control when buffered raw events
	// are flushed in lightweight mode.
	CoalesceMaxItems int
	CoalesceMaxAge   time.Duration

	// LockTimeout bounds how long a writer waits for the cross-process file
	// lock before giving up.
	LockTimeout time.Duration

	// SearchCache enables caching of search results (TTL-bounded, never
	// invalidated by writes).
	SearchCache bool

	LogLevel string
}

// Default returns the configuration used when no file overrides it.
func Default() Config {
	return Config{
		Mode:             ModeLightweight,
		CacheTTL:         60 * time.Second,
		CoalesceMaxItems: 5,
		CoalesceMaxAge:   2 * time.Second,
		LockTimeout:      5 * time.Second,
		SearchCache:      true,
		LogLevel:         "info",
	}
}

// fileConfig is the on-disk shape: durations are written as strings
// ("10s", "2m") and parsed on load.
type fileConfig struct {
	Dir              string `yaml:"dir"`
	Mode             string `yaml:"mode"`
	CacheTTL         string `yaml:"cache_ttl"`
	CoalesceMaxItems int    `yaml:"coalesce_max_items"`
	CoalesceMaxAge   string `yaml:"coalesce_max_age"`
	LockTimeout      string `yaml:"lock_timeout"`
	SearchCache      *bool  `yaml:"search_cache"`
	LogLevel         string `yaml:"log_level"`
}

// Load reads a YAML config file and merges it over the defaults. A missing
// file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if fc.Dir != "" {
		cfg.Dir = fc.Dir
	}
	if fc.Mode != "" {
		cfg.Mode = Mode(fc.Mode)
	}
	if cfg.CacheTTL, err = overrideDuration(cfg.CacheTTL, fc.CacheTTL); err != nil {
		return cfg, fmt.Errorf("parse config %s: cache_ttl: %w", path, err)
	}
	if fc.CoalesceMaxItems != 0 {
		cfg.CoalesceMaxItems = fc.CoalesceMaxItems
	}
	if cfg.CoalesceMaxAge, err = overrideDuration(cfg.CoalesceMaxAge, fc.CoalesceMaxAge); err != nil {
		return cfg, fmt.Errorf("parse config %s: coalesce_max_age: %w", path, err)
	}
	if cfg.LockTimeout, err = overrideDuration(cfg.LockTimeout, fc.LockTimeout); err != nil {
		return cfg, fmt.Errorf("parse config %s: lock_timeout: %w", path, err)
	}
	if fc.SearchCache != nil {
		cfg.SearchCache = *fc.SearchCache
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	return cfg.normalized(), nil
}

func overrideDuration(current time.Duration, raw string) (time.Duration, error) {
	if raw == "" {
		return current, nil
	}
	return time.ParseDuration(raw)
}

func (c Config) normalized() Config {
	d := Default()
	if c.Mode != ModeEager && c.Mode != ModeLightweight {
		c.Mode = d.Mode
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = d.CacheTTL
	}
	if c.CoalesceMaxItems <= 0 {
		c.CoalesceMaxItems = d.CoalesceMaxItems
	}
	if c.CoalesceMaxAge <= 0 {
		c.CoalesceMaxAge = d.CoalesceMaxAge
	}
	if c.LockTimeout <= 0 {
		c.LockTimeout = d.LockTimeout
	}
	return c
}

// ResolveDir picks the base directory: the configured one, then the
// MEMSTORE_DIR environment variable, then ~/.memstore.
func (c Config) ResolveDir() string {
	if c.Dir != "" {
		return c.Dir
	}
	if env := os.Getenv("MEMSTORE_DIR"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".memstore")
}
