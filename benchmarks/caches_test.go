// caches_test.go: uniform wrappers over the compared caches
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package benchmarks

import (
	"math/rand"
	"strconv"

	"github.com/agilira/fortis"
	ristretto "github.com/dgraph-io/ristretto/v2"
	"github.com/maypok86/otter/v2"
)

const (
	cacheSize = 1_000
	keySpace  = 10_000

	zipfS = 1.01 // minimum exponent accepted by rand.Zipf
	zipfV = 1.0
)

// zipfKeys yields string keys whose popularity follows a power law.
type zipfKeys struct {
	zipf *rand.Zipf
}

func newZipfKeys(seed int64, s float64, space int) *zipfKeys {
	r := rand.New(rand.NewSource(seed))
	return &zipfKeys{zipf: rand.NewZipf(r, s, zipfV, uint64(space-1))}
}

func (z *zipfKeys) next() string {
	return strconv.FormatUint(z.zipf.Uint64(), 10)
}

// cache is the subset of operations every contender supports.
type cache interface {
	Set(key string, value int)
	Get(key string) (int, bool)
	Close()
}

type contender struct {
	name string
	new  func(size int) cache
}

func contenders() []contender {
	return []contender{
		{"Fortis-LRU", func(size int) cache { return newFortisCache(size, fortis.PolicyLRU) }},
		{"Fortis-LFU", func(size int) cache { return newFortisCache(size, fortis.PolicyLFU) }},
		{"Fortis-FIFO", func(size int) cache { return newFortisCache(size, fortis.PolicyFIFO) }},
		{"Otter", func(size int) cache { return newOtterCache(size) }},
		{"Ristretto", func(size int) cache { return newRistrettoCache(size) }},
	}
}

type fortisCache struct {
	store *fortis.Store[int]
}

func newFortisCache(size int, policy fortis.EvictionPolicy) *fortisCache {
	return &fortisCache{store: fortis.NewStore[int](fortis.Config{
		MaxSize:        size,
		DefaultTTL:     0,
		EvictionPolicy: policy,
	})}
}

func (c *fortisCache) Set(key string, value int) { _ = c.store.Put(key, value) }
func (c *fortisCache) Get(key string) (int, bool) { return c.store.Get(key) }
func (c *fortisCache) Close() { c.store.Clear() }

type otterCache struct {
	cache *otter.Cache[string, int]
}

func newOtterCache(size int) *otterCache {
	return &otterCache{cache: otter.Must(&otter.Options[string, int]{
		MaximumSize: size,
	})}
}

func (c *otterCache) Set(key string, value int) { c.cache.Set(key, value) }
func (c *otterCache) Get(key string) (int, bool) { return c.cache.GetIfPresent(key) }
func (c *otterCache) Close() {}

type ristrettoCache struct {
	cache *ristretto.Cache[string, int]
}

func newRistrettoCache(size int) *ristrettoCache {
	c, err := ristretto.NewCache(&ristretto.Config[string, int]{
		NumCounters: int64(size * 10),
		MaxCost:     int64(size),
		BufferItems: 64,
	})
	if err != nil {
		panic(err)
	}
	return &ristrettoCache{cache: c}
}

func (c *ristrettoCache) Set(key string, value int) {
	c.cache.Set(key, value, 1)
	c.cache.Wait()
}

func (c *ristrettoCache) Get(key string) (int, bool) { return c.cache.Get(key) }
func (c *ristrettoCache) Close() { c.cache.Close() }
