// config.go: configuration for fortis stores
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package fortis

import (
	"time"

	"github.com/agilira/go-timecache"
)

// Config holds configuration parameters for a Store.
type Config struct {
	// MaxSize is the maximum number of entries the store can hold.
	// Must be > 0. Default: DefaultMaxSize.
	MaxSize int

	// DefaultTTL is the time-to-live applied by Put.
	// 0 means entries written by Put never expire. Negative values are
	// replaced by DefaultTTL.
	DefaultTTL time.Duration

	// EvictionPolicy selects the victim when a Put exceeds MaxSize.
	// Default: PolicyLRU.
	EvictionPolicy EvictionPolicy

	// Logger is used for debugging and monitoring.
	// If nil, NoOpLogger is used.
	Logger Logger

	// TimeProvider provides current time for TTL and recency bookkeeping.
	// If nil, a go-timecache backed provider is used.
	TimeProvider TimeProvider

	// MetricsCollector receives per-operation metrics.
	// If nil, NoOpMetricsCollector is used.
	MetricsCollector MetricsCollector

	// OnEvict is called after an entry is evicted by the policy.
	// It runs outside the store lock and must be fast and non-blocking.
	OnEvict func(key string, value interface{})

	// OnExpire is called after an expired entry is removed on access or
	// by CleanExpired. It runs outside the store lock.
	OnExpire func(key string, value interface{})
}

// Validate checks configuration parameters and applies sensible defaults.
// Returns nil (no actual validation errors, only normalization).
//
// Default values applied:
//   - MaxSize: DefaultMaxSize if <= 0
//   - DefaultTTL: DefaultTTL if < 0
//   - EvictionPolicy: PolicyLRU if not a known policy
//   - Logger: NoOpLogger{} if nil
//   - TimeProvider: systemTimeProvider{} if nil
//   - MetricsCollector: NoOpMetricsCollector{} if nil
func (c *Config) Validate() error {
	if c.MaxSize <= 0 {
		c.MaxSize = DefaultMaxSize
	}

	if c.DefaultTTL < 0 {
		c.DefaultTTL = DefaultTTL
	}

	if !c.EvictionPolicy.Valid() {
		c.EvictionPolicy = PolicyLRU
	}

	if c.Logger == nil {
		c.Logger = NoOpLogger{}
	}

	if c.TimeProvider == nil {
		c.TimeProvider = &systemTimeProvider{}
	}

	if c.MetricsCollector == nil {
		c.MetricsCollector = NoOpMetricsCollector{}
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxSize:          DefaultMaxSize,
		DefaultTTL:       DefaultTTL,
		EvictionPolicy:   PolicyLRU,
		Logger:           NoOpLogger{},
		TimeProvider:     &systemTimeProvider{},
		MetricsCollector: NoOpMetricsCollector{},
	}
}

// Settings is the runtime-adjustable part of a store configuration.
type Settings struct {
	MaxSize        int
	DefaultTTL     time.Duration
	EvictionPolicy EvictionPolicy
}

// validate reports the first invalid field as a configuration error.
func (s Settings) validate() error {
	if s.MaxSize <= 0 {
		return NewErrInvalidMaxSize(s.MaxSize)
	}
	if s.DefaultTTL < 0 {
		return NewErrInvalidTTL(s.DefaultTTL)
	}
	if !s.EvictionPolicy.Valid() {
		return NewErrInvalidPolicy(string(s.EvictionPolicy))
	}
	return nil
}

// systemTimeProvider is the default time provider using go-timecache.
type systemTimeProvider struct{}

func (t *systemTimeProvider) Now() int64 {
	return timecache.CachedTimeNano()
}
