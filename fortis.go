// Package fortis provides a bounded in-memory cache with pluggable eviction
// and a small resilience toolkit (retry with exponential backoff, circuit
// breaker, fallback chaining) for wrapping data-access calls.
//
// Example usage:
//
//	store := fortis.NewStore[Account](fortis.Config{
//		MaxSize:        1_000,
//		DefaultTTL:     5 * time.Minute,
//		EvictionPolicy: fortis.PolicyLRU,
//	})
//
//	_ = store.Put("ledger:account:42", account)
//	value, found := store.Get("ledger:account:42")
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package fortis

import (
	"strings"
	"time"
)

const (
	// Version of the fortis library
	Version = "v0.1.0-dev"

	// DefaultMaxSize is the default maximum number of entries
	DefaultMaxSize = 1_000

	// DefaultTTL is the default time-to-live applied by Put
	DefaultTTL = 5 * time.Minute

	// DefaultFailureThreshold is the default number of consecutive failures that opens a breaker
	DefaultFailureThreshold = 5

	// DefaultBreakerTimeout is how long a breaker stays open before probing
	DefaultBreakerTimeout = 60 * time.Second

	// DefaultHalfOpenMaxCalls is the default number of probe calls admitted while half-open
	DefaultHalfOpenMaxCalls = 1

	// DefaultMaxRetries is the attempt budget used by Execute when none is given
	DefaultMaxRetries = 3

	// DefaultInitialDelay is the first backoff delay used by Execute when none is given
	DefaultInitialDelay = 100 * time.Millisecond

	// KeySeparator joins the segments of a namespaced cache key
	KeySeparator = ":"
)

// Key builds a namespaced cache key following the domain:entity:qualifier
// convention. Empty segments are kept so that keys stay positional.
func Key(parts ...string) string {
	return strings.Join(parts, KeySeparator)
}
