// stats.go: cache statistics
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package fortis

// CacheStats is a read-only snapshot of store statistics.
type CacheStats struct {
	// Size is the number of entries currently held, expired ones included
	// until they are observed or cleaned.
	Size int

	// MaxSize is the configured capacity
	MaxSize int

	// Hits is the number of Get calls that returned a value
	Hits uint64

	// Misses is the number of Get calls that returned nothing
	Misses uint64

	// Evictions is the number of entries removed by the eviction policy
	Evictions uint64

	// Expirations is the number of expired entries removed on access or by CleanExpired
	Expirations uint64

	// HitRate is Hits / (Hits + Misses), or 0 when no Get has completed
	HitRate float64
}

// Requests returns the number of completed Get calls.
func (s CacheStats) Requests() uint64 {
	return s.Hits + s.Misses
}

// HitRatio returns the cache hit ratio as a percentage (0-100).
// Returns 0.0 if no Get operations have been performed yet.
func (s CacheStats) HitRatio() float64 {
	return s.HitRate * 100
}

// statistics holds the live counters. It is guarded by the owning store's lock.
type statistics struct {
	hits        uint64
	misses      uint64
	evictions   uint64
	expirations uint64
}

func (s *statistics) snapshot(size, maxSize int) CacheStats {
	return CacheStats{
		Size:        size,
		MaxSize:     maxSize,
		Hits:        s.hits,
		Misses:      s.misses,
		Evictions:   s.evictions,
		Expirations: s.expirations,
		HitRate:     hitRate(s.hits, s.misses),
	}
}

func (s *statistics) reset() {
	*s = statistics{}
}

func hitRate(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
