// hotreload.go: dynamic configuration with Argus integration
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package fortis

import (
	"sync"
	"time"

	"github.com/agilira/argus"
)

// Reconfigurable is a store whose settings can change at runtime.
// *Store[V] implements it for every V.
type Reconfigurable interface {
	Configure(maxSize int, defaultTTL time.Duration, policy EvictionPolicy) error
	Settings() Settings
}

// BreakerSettings is the runtime-adjustable part of a breaker configuration.
type BreakerSettings struct {
	FailureThreshold int
	Timeout          time.Duration
	HalfOpenMaxCalls int
}

// ReloadConfig is the configuration managed by HotConfig.
type ReloadConfig struct {
	Cache   Settings
	Breaker BreakerSettings
}

// HotConfig provides dynamic configuration reload capabilities using Argus.
// It watches a configuration file and applies cache and breaker settings
// when changes are detected.
type HotConfig struct {
	store    Reconfigurable
	breakers []*CircuitBreaker
	watcher  *argus.Watcher
	logger   Logger

	mu     sync.RWMutex
	config ReloadConfig

	// OnReload is called after configuration is reloaded and applied.
	// This callback is optional and must be fast and non-blocking.
	OnReload func(oldConfig, newConfig ReloadConfig)
}

// HotConfigOptions configures hot reload behavior.
type HotConfigOptions struct {
	// ConfigPath is the path to the configuration file to watch.
	// Supports JSON, YAML, TOML, HCL, INI, Properties formats.
	ConfigPath string

	// PollInterval is how often to check for configuration changes.
	// Default: 1 second. Minimum: 100ms.
	PollInterval time.Duration

	// Breakers receive the breaker section. Optional.
	Breakers []*CircuitBreaker

	// OnReload is called after configuration is reloaded and applied.
	OnReload func(oldConfig, newConfig ReloadConfig)

	// Logger for hot reload operations.
	// If nil, uses the store's logger.
	Logger Logger
}

// NewHotConfig creates a hot-reloadable configuration for a store and,
// optionally, a set of breakers.
//
// Example configuration file (YAML):
//
//	cache:
//	  max_size: 5000
//	  default_ttl: "10m"
//	  eviction_policy: "lfu"
//	breaker:
//	  failure_threshold: 3
//	  timeout: "30s"
//	  half_open_max_calls: 1
//
// Keys that are missing or invalid keep their current value. Every change
// applies immediately through Store.Configure and CircuitBreaker.Configure.
func NewHotConfig(store Reconfigurable, opts HotConfigOptions) (*HotConfig, error) {
	if store == nil {
		return nil, NewErrInvalidConfig("store", nil)
	}
	if opts.ConfigPath == "" {
		return nil, NewErrInvalidConfig("config_path", opts.ConfigPath)
	}

	if opts.PollInterval == 0 {
		opts.PollInterval = 1 * time.Second
	} else if opts.PollInterval < 100*time.Millisecond {
		opts.PollInterval = 100 * time.Millisecond
	}

	if opts.Logger == nil {
		if lg, ok := store.(interface{ Logger() Logger }); ok {
			opts.Logger = lg.Logger()
		} else {
			opts.Logger = NoOpLogger{}
		}
	}

	hc := &HotConfig{
		store:    store,
		breakers: opts.Breakers,
		logger:   opts.Logger,
		OnReload: opts.OnReload,
		config:   currentConfig(store, opts.Breakers),
	}

	watcher, err := argus.UniversalConfigWatcherWithConfig(opts.ConfigPath, hc.handleConfigChange, argus.Config{
		PollInterval: opts.PollInterval,
	})
	if err != nil {
		return nil, NewErrInternal("NewHotConfig", err)
	}
	hc.watcher = watcher

	return hc, nil
}

// Start begins watching the configuration file for changes.
func (hc *HotConfig) Start() error {
	if hc.watcher.IsRunning() {
		return nil
	}
	return hc.watcher.Start()
}

// Stop stops watching the configuration file.
func (hc *HotConfig) Stop() error {
	return hc.watcher.Stop()
}

// GetConfig returns the configuration last applied (thread-safe).
func (hc *HotConfig) GetConfig() ReloadConfig {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.config
}

// handleConfigChange is called by Argus when configuration changes.
func (hc *HotConfig) handleConfigChange(data map[string]interface{}) {
	hc.mu.Lock()
	oldConfig := hc.config
	newConfig := hc.apply(oldConfig, parseReloadConfig(oldConfig, data))
	hc.config = newConfig
	hc.mu.Unlock()

	if hc.OnReload != nil {
		hc.OnReload(oldConfig, newConfig)
	}
}

// apply pushes changed settings to the store and breakers. A section that
// is rejected keeps its previous value.
func (hc *HotConfig) apply(old, next ReloadConfig) ReloadConfig {
	if next.Cache != old.Cache {
		c := next.Cache
		if err := hc.store.Configure(c.MaxSize, c.DefaultTTL, c.EvictionPolicy); err != nil {
			hc.logger.Warn("cache reload rejected", "error", err)
			next.Cache = old.Cache
		}
	}

	if next.Breaker != old.Breaker {
		b := next.Breaker
		for _, cb := range hc.breakers {
			if err := cb.Configure(b.FailureThreshold, b.Timeout, b.HalfOpenMaxCalls); err != nil {
				hc.logger.Warn("breaker reload rejected", "breaker", cb.Name(), "error", err)
				next.Breaker = old.Breaker
				break
			}
		}
	}

	return next
}

func currentConfig(store Reconfigurable, breakers []*CircuitBreaker) ReloadConfig {
	cfg := ReloadConfig{
		Cache: store.Settings(),
		Breaker: BreakerSettings{
			FailureThreshold: DefaultFailureThreshold,
			Timeout:          DefaultBreakerTimeout,
			HalfOpenMaxCalls: DefaultHalfOpenMaxCalls,
		},
	}
	if len(breakers) > 0 {
		s := breakers[0].Snapshot()
		cfg.Breaker = BreakerSettings{
			FailureThreshold: s.FailureThreshold,
			Timeout:          s.Timeout,
			HalfOpenMaxCalls: s.HalfOpenMaxCalls,
		}
	}
	return cfg
}

// parseReloadConfig overlays the values found in data on base.
func parseReloadConfig(base ReloadConfig, data map[string]interface{}) ReloadConfig {
	cfg := base

	cacheSection, ok := data["cache"].(map[string]interface{})
	if !ok {
		// Flat files carry the cache keys at the top level.
		if _, hasMaxSize := data["max_size"]; hasMaxSize {
			cacheSection = data
		}
	}
	if cacheSection != nil {
		if maxSize, ok := parsePositiveInt(cacheSection["max_size"]); ok {
			cfg.Cache.MaxSize = maxSize
		}
		if ttl, ok := parseDuration(cacheSection["default_ttl"]); ok && ttl >= 0 {
			cfg.Cache.DefaultTTL = ttl
		}
		if s, ok := cacheSection["eviction_policy"].(string); ok {
			if p, err := ParseEvictionPolicy(s); err == nil {
				cfg.Cache.EvictionPolicy = p
			}
		}
	}

	if breakerSection, ok := data["breaker"].(map[string]interface{}); ok {
		if n, ok := parsePositiveInt(breakerSection["failure_threshold"]); ok {
			cfg.Breaker.FailureThreshold = n
		}
		if d, ok := parseDuration(breakerSection["timeout"]); ok && d > 0 {
			cfg.Breaker.Timeout = d
		}
		if n, ok := parsePositiveInt(breakerSection["half_open_max_calls"]); ok {
			cfg.Breaker.HalfOpenMaxCalls = n
		}
	}

	return cfg
}

// parsePositiveInt extracts a positive integer from interface{} value.
// Supports int, int64 and float64 (YAML/JSON may vary).
func parsePositiveInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		if v > 0 {
			return v, true
		}
	case int64:
		if v > 0 {
			return int(v), true
		}
	case float64:
		if v > 0 {
			return int(v), true
		}
	}
	return 0, false
}

// parseDuration extracts a time.Duration from a string value.
func parseDuration(value interface{}) (time.Duration, bool) {
	if str, ok := value.(string); ok {
		if d, err := time.ParseDuration(str); err == nil {
			return d, true
		}
	}
	return 0, false
}
