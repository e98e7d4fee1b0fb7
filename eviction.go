// eviction.go: eviction policies for Store
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package fortis

import "strings"

// EvictionPolicy identifies how a victim is chosen when a store exceeds
// its maximum size.
type EvictionPolicy string

const (
	// PolicyLRU evicts the entry that has not been accessed for the longest time.
	PolicyLRU EvictionPolicy = "lru"

	// PolicyLFU evicts the entry with the fewest accesses.
	PolicyLFU EvictionPolicy = "lfu"

	// PolicyFIFO evicts the oldest inserted entry, regardless of access.
	PolicyFIFO EvictionPolicy = "fifo"

	// PolicyTTL removes every expired entry. When nothing has expired it
	// falls back to FIFO so the store never stays above its maximum size.
	PolicyTTL EvictionPolicy = "ttl"
)

// Valid reports whether p is one of the known policies.
func (p EvictionPolicy) Valid() bool {
	switch p {
	case PolicyLRU, PolicyLFU, PolicyFIFO, PolicyTTL:
		return true
	}
	return false
}

// String returns the upper-case policy name.
func (p EvictionPolicy) String() string {
	return strings.ToUpper(string(p))
}

// ParseEvictionPolicy parses a policy name, case-insensitively.
func ParseEvictionPolicy(s string) (EvictionPolicy, error) {
	p := EvictionPolicy(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", NewErrInvalidPolicy(s)
	}
	return p, nil
}

// before reports whether a should be evicted before b under policy p.
// Every comparison ends on the insertion sequence, which is unique, so the
// choice never depends on map iteration order.
func before[V any](p EvictionPolicy, a, b *entry[V]) bool {
	switch p {
	case PolicyLRU:
		if a.lastAccessed != b.lastAccessed {
			return a.lastAccessed < b.lastAccessed
		}
		if a.accessTick != b.accessTick {
			return a.accessTick < b.accessTick
		}
	case PolicyLFU:
		if a.accessCount != b.accessCount {
			return a.accessCount < b.accessCount
		}
		if a.accessTick != b.accessTick {
			return a.accessTick < b.accessTick
		}
	default: // FIFO, and TTL once no entry has expired
		if a.createdAt != b.createdAt {
			return a.createdAt < b.createdAt
		}
	}
	return a.seq < b.seq
}

// selectVictim returns the key to evict under policy p, skipping the key
// that is being written.
func selectVictim[V any](entries map[string]*entry[V], p EvictionPolicy, skip string) (string, bool) {
	var (
		victimKey string
		victim    *entry[V]
	)
	for k, e := range entries {
		if k == skip {
			continue
		}
		if victim == nil || before(p, e, victim) {
			victimKey, victim = k, e
		}
	}
	return victimKey, victim != nil
}

// expiredKeys lists every key whose entry has expired at now.
func expiredKeys[V any](entries map[string]*entry[V], now int64) []string {
	var keys []string
	for k, e := range entries {
		if e.expired(now) {
			keys = append(keys, k)
		}
	}
	return keys
}
