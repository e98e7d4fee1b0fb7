// interfaces.go: public interfaces for fortis
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package fortis

// Logger defines a minimal logging interface with zero overhead.
// Implementations should use structured logging and be allocation-free.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs.
	Debug(msg string, keyvals ...interface{})

	// Info logs an info message with optional key-value pairs.
	Info(msg string, keyvals ...interface{})

	// Warn logs a warning message with optional key-value pairs.
	Warn(msg string, keyvals ...interface{})

	// Error logs an error message with optional key-value pairs.
	Error(msg string, keyvals ...interface{})
}

// NoOpLogger is a logger that does nothing. Used as default to avoid nil checks.
type NoOpLogger struct{}

// Debug does nothing (no-op implementation).
func (NoOpLogger) Debug(msg string, keyvals ...interface{}) {}

// Info does nothing (no-op implementation).
func (NoOpLogger) Info(msg string, keyvals ...interface{}) {}

// Warn does nothing (no-op implementation).
func (NoOpLogger) Warn(msg string, keyvals ...interface{}) {}

// Error does nothing (no-op implementation).
func (NoOpLogger) Error(msg string, keyvals ...interface{}) {}

// TimeProvider provides current time with caching for performance.
// This interface allows injecting deterministic clocks in tests.
type TimeProvider interface {
	// Now returns the current time in nanoseconds since epoch.
	// This method must be very fast and allocation-free.
	Now() int64
}

// MetricsCollector defines an interface for collecting cache operation metrics.
// Implementations can send metrics to Prometheus, DataDog, StatsD, or other monitoring systems.
//
// All methods must be safe for concurrent use. The store never calls them
// while holding its lock.
type MetricsCollector interface {
	// RecordGet records a Get operation with its latency and hit/miss result.
	RecordGet(latencyNs int64, hit bool)

	// RecordPut records a Put operation with its latency.
	RecordPut(latencyNs int64)

	// RecordRemove records a Remove operation with its latency.
	RecordRemove(latencyNs int64)

	// RecordEviction records a policy-driven eviction.
	RecordEviction()

	// RecordExpiration records the removal of an expired entry.
	RecordExpiration()
}

// NoOpMetricsCollector is a metrics collector that does nothing.
// Used as default to avoid nil checks.
type NoOpMetricsCollector struct{}

// RecordGet does nothing.
func (NoOpMetricsCollector) RecordGet(latencyNs int64, hit bool) {}

// RecordPut does nothing.
func (NoOpMetricsCollector) RecordPut(latencyNs int64) {}

// RecordRemove does nothing.
func (NoOpMetricsCollector) RecordRemove(latencyNs int64) {}

// RecordEviction does nothing.
func (NoOpMetricsCollector) RecordEviction() {}

// RecordExpiration does nothing.
func (NoOpMetricsCollector) RecordExpiration() {}

// BreakerObserver receives circuit breaker events. It is called outside the
// breaker's lock and must be safe for concurrent use.
type BreakerObserver interface {
	// RecordStateChange records a transition between two breaker states.
	RecordStateChange(name string, from, to BreakerState)

	// RecordRejection records a call refused because the breaker is open
	// or its half-open budget is spent.
	RecordRejection(name string)
}

// NoOpBreakerObserver ignores every breaker event.
type NoOpBreakerObserver struct{}

// RecordStateChange does nothing.
func (NoOpBreakerObserver) RecordStateChange(name string, from, to BreakerState) {}

// RecordRejection does nothing.
func (NoOpBreakerObserver) RecordRejection(name string) {}
