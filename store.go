// store.go: size- and time-bounded generic cache store
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package fortis

import (
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// entry is a cache slot. Its mutable fields are updated in place under the
// store lock.
type entry[V any] struct {
	value        V
	createdAt    int64 // ns
	lastAccessed int64 // ns
	ttl          time.Duration
	accessCount  uint64
	accessTick   uint64 // logical clock of the last write or hit
	seq          uint64 // insertion order, unique per store
}

// expired reports whether now - createdAt > ttl. A zero ttl never expires.
func (e *entry[V]) expired(now int64) bool {
	return e.ttl > 0 && now-e.createdAt > int64(e.ttl)
}

// EntryInfo describes a cached entry without its value.
type EntryInfo struct {
	Key          string
	CreatedAt    time.Time
	LastAccessed time.Time
	TTL          time.Duration
	AccessCount  uint64
}

// ExpiresAt returns the instant after which the entry is expired, or the
// zero time when it never expires.
func (i EntryInfo) ExpiresAt() time.Time {
	if i.TTL <= 0 {
		return time.Time{}
	}
	return i.CreatedAt.Add(i.TTL)
}

// removal is an entry dropped under the lock whose notifications are
// delivered after the lock is released.
type removal struct {
	key     string
	value   interface{}
	expired bool
}

// Store is a mutex-guarded map from string keys to entries, bounded by a
// maximum size and per-entry TTL, with a pluggable eviction policy.
//
// All methods are safe for concurrent use. Every read or mutation of the
// map, eviction included, happens inside a single critical section.
type Store[V any] struct {
	mu      sync.Mutex
	entries map[string]*entry[V]

	maxSize    int
	defaultTTL time.Duration
	policy     EvictionPolicy

	seq   uint64
	tick  uint64
	stats statistics

	// immutable after construction
	clock    TimeProvider
	logger   Logger
	metrics  MetricsCollector
	onEvict  func(key string, value interface{})
	onExpire func(key string, value interface{})

	loads singleflight.Group
}

// NewStore creates a new store. The configuration is normalized with
// Config.Validate.
func NewStore[V any](cfg Config) *Store[V] {
	_ = cfg.Validate()

	return &Store[V]{
		entries:    make(map[string]*entry[V], cfg.MaxSize),
		maxSize:    cfg.MaxSize,
		defaultTTL: cfg.DefaultTTL,
		policy:     cfg.EvictionPolicy,
		clock:      cfg.TimeProvider,
		logger:     cfg.Logger,
		metrics:    cfg.MetricsCollector,
		onEvict:    cfg.OnEvict,
		onExpire:   cfg.OnExpire,
	}
}

// Get returns the cached value if present and unexpired. A hit refreshes the
// entry's recency and access count; an expired entry is deleted and counted
// as a miss.
func (s *Store[V]) Get(key string) (V, bool) {
	start := time.Now()
	var zero V

	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.stats.misses++
		s.mu.Unlock()
		s.metrics.RecordGet(time.Since(start).Nanoseconds(), false)
		return zero, false
	}

	now := s.clock.Now()
	if e.expired(now) {
		r := s.expireLocked(key, e)
		s.stats.misses++
		s.mu.Unlock()
		s.notify(r)
		s.metrics.RecordGet(time.Since(start).Nanoseconds(), false)
		return zero, false
	}

	s.tick++
	e.lastAccessed = now
	e.accessTick = s.tick
	e.accessCount++
	value := e.value
	s.stats.hits++
	s.mu.Unlock()

	s.metrics.RecordGet(time.Since(start).Nanoseconds(), true)
	return value, true
}

// Put stores value under key with the store's default TTL.
func (s *Store[V]) Put(key string, value V) error {
	s.mu.Lock()
	ttl := s.defaultTTL
	s.mu.Unlock()
	return s.PutWithTTL(key, value, ttl)
}

// PutWithTTL stores value under key with an explicit TTL. A zero TTL never
// expires. If the store then holds more than MaxSize entries, victims are
// evicted according to the policy before the lock is released; the key
// being written is never chosen.
func (s *Store[V]) PutWithTTL(key string, value V, ttl time.Duration) error {
	if key == "" {
		return NewErrEmptyKey("Put")
	}
	if ttl < 0 {
		return NewErrInvalidTTL(ttl)
	}

	start := time.Now()

	s.mu.Lock()
	now := s.clock.Now()
	s.seq++
	s.tick++
	s.entries[key] = &entry[V]{
		value:        value,
		createdAt:    now,
		lastAccessed: now,
		ttl:          ttl,
		accessTick:   s.tick,
		seq:          s.seq,
	}
	removed := s.enforceCapacityLocked(key, now)
	s.mu.Unlock()

	s.notify(removed...)
	s.metrics.RecordPut(time.Since(start).Nanoseconds())
	return nil
}

// Remove deletes key and returns its value. Expired entries are treated as
// absent.
func (s *Store[V]) Remove(key string) (V, bool) {
	start := time.Now()
	var zero V

	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		s.metrics.RecordRemove(time.Since(start).Nanoseconds())
		return zero, false
	}
	delete(s.entries, key)
	expired := e.expired(s.clock.Now())
	if expired {
		s.stats.expirations++
	}
	s.mu.Unlock()

	if expired {
		s.notify(removal{key: key, value: e.value, expired: true})
	}
	s.metrics.RecordRemove(time.Since(start).Nanoseconds())
	if expired {
		return zero, false
	}
	return e.value, true
}

// Contains reports whether key holds an unexpired entry. An expired entry is
// deleted as a side effect. Statistics are not affected.
func (s *Store[V]) Contains(key string) bool {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		return false
	}
	if e.expired(s.clock.Now()) {
		r := s.expireLocked(key, e)
		s.mu.Unlock()
		s.notify(r)
		return false
	}
	s.mu.Unlock()
	return true
}

// Peek returns entry metadata without touching recency or statistics.
func (s *Store[V]) Peek(key string) (EntryInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || e.expired(s.clock.Now()) {
		return EntryInfo{}, false
	}
	return EntryInfo{
		Key:          key,
		CreatedAt:    time.Unix(0, e.createdAt),
		LastAccessed: time.Unix(0, e.lastAccessed),
		TTL:          e.ttl,
		AccessCount:  e.accessCount,
	}, true
}

// Size returns the number of entries held, including expired entries that
// have not been observed yet.
func (s *Store[V]) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Keys returns the unexpired keys in lexical order.
func (s *Store[V]) Keys() []string {
	s.mu.Lock()
	now := s.clock.Now()
	keys := make([]string, 0, len(s.entries))
	for k, e := range s.entries {
		if !e.expired(now) {
			keys = append(keys, k)
		}
	}
	s.mu.Unlock()

	sort.Strings(keys)
	return keys
}

// Clear removes every entry. Statistics are kept.
func (s *Store[V]) Clear() {
	s.mu.Lock()
	s.entries = make(map[string]*entry[V], s.maxSize)
	s.mu.Unlock()
}

// CleanExpired removes every expired entry and returns how many were
// removed. It counts expirations, never evictions.
func (s *Store[V]) CleanExpired() int {
	s.mu.Lock()
	now := s.clock.Now()
	keys := expiredKeys(s.entries, now)
	sort.Strings(keys)
	removed := make([]removal, 0, len(keys))
	for _, k := range keys {
		removed = append(removed, s.expireLocked(k, s.entries[k]))
	}
	s.mu.Unlock()

	s.notify(removed...)
	if len(removed) > 0 {
		s.logger.Debug("expired entries cleaned", "count", len(removed))
	}
	return len(removed)
}

// InvalidatePattern removes every key matching the regular expression
// pattern and returns how many were removed.
func (s *Store[V]) InvalidatePattern(pattern string) (int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, NewErrInvalidPattern(pattern, err)
	}
	return s.InvalidateFunc(re.MatchString), nil
}

// InvalidatePrefix removes every key starting with prefix.
func (s *Store[V]) InvalidatePrefix(prefix string) int {
	return s.InvalidateFunc(func(key string) bool {
		return strings.HasPrefix(key, prefix)
	})
}

// InvalidateFunc removes every key for which match returns true. match is
// called with the store lock held and must not call back into the store.
func (s *Store[V]) InvalidateFunc(match func(key string) bool) int {
	if match == nil {
		return 0
	}

	s.mu.Lock()
	n := 0
	for k := range s.entries {
		if match(k) {
			delete(s.entries, k)
			n++
		}
	}
	s.mu.Unlock()

	if n > 0 {
		s.logger.Debug("cache entries invalidated", "count", n)
	}
	return n
}

// Stats returns a snapshot of the store statistics.
func (s *Store[V]) Stats() CacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats.snapshot(len(s.entries), s.maxSize)
}

// ResetStats zeroes hits, misses, evictions and expirations.
func (s *Store[V]) ResetStats() {
	s.mu.Lock()
	s.stats.reset()
	s.mu.Unlock()
}

// Configure changes capacity, default TTL and eviction policy. New settings
// apply to subsequent operations immediately; entries already stored are not
// re-checked against a smaller MaxSize until the next Put.
func (s *Store[V]) Configure(maxSize int, defaultTTL time.Duration, policy EvictionPolicy) error {
	next := Settings{MaxSize: maxSize, DefaultTTL: defaultTTL, EvictionPolicy: policy}
	if err := next.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	prev := Settings{MaxSize: s.maxSize, DefaultTTL: s.defaultTTL, EvictionPolicy: s.policy}
	s.maxSize = maxSize
	s.defaultTTL = defaultTTL
	s.policy = policy
	s.mu.Unlock()

	s.logger.Info("cache reconfigured",
		"max_size", maxSize, "previous_max_size", prev.MaxSize,
		"default_ttl", defaultTTL.String(),
		"eviction_policy", policy.String())
	return nil
}

// Settings returns the current runtime settings.
func (s *Store[V]) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Settings{MaxSize: s.maxSize, DefaultTTL: s.defaultTTL, EvictionPolicy: s.policy}
}

// Logger returns the logger the store was configured with.
func (s *Store[V]) Logger() Logger {
	return s.logger
}

// enforceCapacityLocked evicts until the store fits MaxSize. The TTL policy
// first drops every expired entry; when none has expired it evicts the
// oldest insertion instead of leaving the store over capacity.
func (s *Store[V]) enforceCapacityLocked(skip string, now int64) []removal {
	var removed []removal
	for len(s.entries) > s.maxSize {
		if s.policy == PolicyTTL {
			if keys := expiredKeys(s.entries, now); len(keys) > 0 {
				sort.Strings(keys)
				for _, k := range keys {
					removed = append(removed, s.evictLocked(k))
				}
				continue
			}
		}

		key, ok := selectVictim(s.entries, s.policy, skip)
		if !ok {
			break
		}
		removed = append(removed, s.evictLocked(key))
	}
	return removed
}

func (s *Store[V]) evictLocked(key string) removal {
	e := s.entries[key]
	delete(s.entries, key)
	s.stats.evictions++
	return removal{key: key, value: e.value}
}

func (s *Store[V]) expireLocked(key string, e *entry[V]) removal {
	delete(s.entries, key)
	s.stats.expirations++
	return removal{key: key, value: e.value, expired: true}
}

// notify delivers metrics and callbacks for removed entries. It must be
// called without the store lock.
func (s *Store[V]) notify(removed ...removal) {
	for _, r := range removed {
		if r.expired {
			s.metrics.RecordExpiration()
			if s.onExpire != nil {
				s.onExpire(r.key, r.value)
			}
			continue
		}
		s.metrics.RecordEviction()
		if s.onEvict != nil {
			s.onEvict(r.key, r.value)
		}
	}
}
