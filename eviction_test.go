// eviction_test.go: tests for eviction policies
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package fortis

import (
	"fmt"
	"testing"
	"time"
)

func TestEviction_LRU(t *testing.T) {
	clock := newMockTime()
	store := newTestStore(PolicyLRU, 3, clock)

	_ = store.Put("A", "a")
	_ = store.Put("B", "b")
	_ = store.Put("C", "c")

	// A accessed at t=1, B at t=2, C at t=3
	for _, k := range []string{"A", "B", "C"} {
		clock.Advance(time.Second)
		store.Get(k)
	}

	_ = store.Put("D", "d")

	if store.Contains("A") {
		t.Error("LRU should evict A, the least recently accessed entry")
	}
	for _, k := range []string{"B", "C", "D"} {
		if !store.Contains(k) {
			t.Errorf("%s should survive", k)
		}
	}
	if got := store.Stats().Evictions; got != 1 {
		t.Errorf("Evictions = %d, want 1", got)
	}
}

// TestEviction_LRU_SameInstant relies on the logical access order when the
// clock does not move.
func TestEviction_LRU_SameInstant(t *testing.T) {
	store := newTestStore(PolicyLRU, 3, newMockTime())

	_ = store.Put("A", "a")
	_ = store.Put("B", "b")
	_ = store.Put("C", "c")
	store.Get("A")
	store.Get("B")

	_ = store.Put("D", "d")

	if store.Contains("C") {
		t.Error("C was touched least recently and should be evicted")
	}
}

func TestEviction_LFU(t *testing.T) {
	store := newTestStore(PolicyLFU, 3, newMockTime())

	_ = store.Put("A", "a")
	_ = store.Put("B", "b")
	_ = store.Put("C", "c")

	for i := 0; i < 3; i++ {
		store.Get("A")
	}
	store.Get("B")
	store.Get("C")
	store.Get("C")

	_ = store.Put("D", "d")

	if store.Contains("B") {
		t.Error("LFU should evict B, the entry with the fewest accesses")
	}
	for _, k := range []string{"A", "C", "D"} {
		if !store.Contains(k) {
			t.Errorf("%s should survive", k)
		}
	}
}

func TestEviction_LFU_TieBreak(t *testing.T) {
	store := newTestStore(PolicyLFU, 2, newMockTime())

	_ = store.Put("A", "a")
	_ = store.Put("B", "b")
	store.Get("B")
	store.Get("A")

	// A and B both have one access; B was touched first.
	_ = store.Put("C", "c")

	if store.Contains("B") {
		t.Error("tie should evict the entry touched least recently (B)")
	}
	if !store.Contains("A") {
		t.Error("A should survive")
	}
}

// TestEviction_LFU_Deterministic repeats the same workload and expects the
// same survivors every time.
func TestEviction_LFU_Deterministic(t *testing.T) {
	run := func() []string {
		store := newTestStore(PolicyLFU, 5, newMockTime())
		for i := 0; i < 20; i++ {
			_ = store.Put(fmt.Sprintf("k%02d", i), "v")
		}
		return store.Keys()
	}

	first := run()
	for i := 0; i < 10; i++ {
		got := run()
		if fmt.Sprint(got) != fmt.Sprint(first) {
			t.Fatalf("run %d survivors %v, first run %v", i, got, first)
		}
	}
}

func TestEviction_FIFO(t *testing.T) {
	clock := newMockTime()
	store := newTestStore(PolicyFIFO, 3, clock)

	_ = store.Put("A", "a")
	clock.Advance(time.Millisecond)
	_ = store.Put("B", "b")
	clock.Advance(time.Millisecond)
	_ = store.Put("C", "c")

	// Accessing A does not protect it under FIFO.
	for i := 0; i < 10; i++ {
		store.Get("A")
	}

	_ = store.Put("D", "d")
	if store.Contains("A") {
		t.Error("FIFO should evict A, the oldest insertion")
	}
}

// TestEviction_WrittenKeyNeverVictim checks that a fresh entry, which has
// the fewest accesses, is not evicted by its own Put.
func TestEviction_WrittenKeyNeverVictim(t *testing.T) {
	store := newTestStore(PolicyLFU, 1, newMockTime())

	_ = store.Put("old", "v")
	store.Get("old")
	_ = store.Put("new", "v")

	if !store.Contains("new") {
		t.Fatal("the key being written must never be the victim")
	}
	if store.Contains("old") {
		t.Error("old should have been evicted")
	}
}

func TestEviction_OverwriteDoesNotEvict(t *testing.T) {
	store := newTestStore(PolicyLRU, 2, newMockTime())

	_ = store.Put("A", "a")
	_ = store.Put("B", "b")
	_ = store.Put("A", "a2")

	if store.Size() != 2 || store.Stats().Evictions != 0 {
		t.Errorf("overwrite must not evict, size=%d evictions=%d", store.Size(), store.Stats().Evictions)
	}
}

func TestEviction_TTLPolicy_RemovesAllExpired(t *testing.T) {
	clock := newMockTime()
	var evicted []string
	store := NewStore[string](Config{
		MaxSize:        3,
		DefaultTTL:     time.Hour,
		EvictionPolicy: PolicyTTL,
		TimeProvider:   clock,
		OnEvict:        func(key string, value interface{}) { evicted = append(evicted, key) },
	})

	_ = store.PutWithTTL("short1", "v", time.Second)
	_ = store.PutWithTTL("short2", "v", time.Second)
	_ = store.Put("long", "v")
	clock.Advance(2 * time.Second)

	_ = store.Put("new", "v")

	if store.Size() != 2 {
		t.Errorf("size = %d, want 2 (every expired entry removed)", store.Size())
	}
	if len(evicted) != 2 || evicted[0] != "short1" || evicted[1] != "short2" {
		t.Errorf("OnEvict calls = %v", evicted)
	}
	if got := store.Stats().Evictions; got != 2 {
		t.Errorf("Evictions = %d, want 2", got)
	}
}

// TestEviction_TTLPolicy_NoneExpired checks the FIFO fallback that keeps
// the store within MaxSize when nothing has expired.
func TestEviction_TTLPolicy_NoneExpired(t *testing.T) {
	clock := newMockTime()
	store := newTestStore(PolicyTTL, 2, clock)

	_ = store.Put("A", "a")
	clock.Advance(time.Millisecond)
	_ = store.Put("B", "b")
	clock.Advance(time.Millisecond)
	_ = store.Put("C", "c")

	if store.Size() != 2 {
		t.Fatalf("size = %d, want 2", store.Size())
	}
	if store.Contains("A") {
		t.Error("oldest insertion should be evicted when nothing has expired")
	}
}

// TestEviction_SizeInvariant checks size <= MaxSize after every Put for all
// policies.
func TestEviction_SizeInvariant(t *testing.T) {
	for _, policy := range []EvictionPolicy{PolicyLRU, PolicyLFU, PolicyFIFO, PolicyTTL} {
		t.Run(policy.String(), func(t *testing.T) {
			clock := newMockTime()
			store := newTestStore(policy, 7, clock)
			for i := 0; i < 200; i++ {
				_ = store.PutWithTTL(fmt.Sprintf("k%d", i%31), "v", time.Duration(i%5)*time.Millisecond)
				if i%3 == 0 {
					store.Get(fmt.Sprintf("k%d", (i*7)%31))
				}
				clock.Advance(time.Millisecond)
				if store.Size() > 7 {
					t.Fatalf("size %d exceeds MaxSize after Put %d", store.Size(), i)
				}
			}
		})
	}
}

func TestParseEvictionPolicy(t *testing.T) {
	tests := []struct {
		in   string
		want EvictionPolicy
		ok   bool
	}{
		{"lru", PolicyLRU, true},
		{"LFU", PolicyLFU, true},
		{" Fifo ", PolicyFIFO, true},
		{"ttl", PolicyTTL, true},
		{"arc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, err := ParseEvictionPolicy(tt.in)
		if tt.ok && (err != nil || got != tt.want) {
			t.Errorf("ParseEvictionPolicy(%q) = %v, %v", tt.in, got, err)
		}
		if !tt.ok && GetErrorCode(err) != ErrCodeInvalidPolicy {
			t.Errorf("ParseEvictionPolicy(%q) expected FORTIS_INVALID_POLICY, got %v", tt.in, err)
		}
	}

	if PolicyLRU.String() != "LRU" {
		t.Errorf("String() = %q, want LRU", PolicyLRU.String())
	}
}
