// benchmark_test.go: throughput of fortis against otter and ristretto
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package benchmarks

import (
	"math/rand"
	"testing"
)

func warmup(c cache) {
	keys := newZipfKeys(1, zipfS, keySpace)
	for i := 0; i < cacheSize; i++ {
		c.Set(keys.next(), i)
	}
}

func BenchmarkGet(b *testing.B) {
	for _, ct := range contenders() {
		b.Run(ct.name, func(b *testing.B) {
			c := ct.new(cacheSize)
			defer c.Close()
			warmup(c)

			keys := newZipfKeys(2, zipfS, keySpace)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				c.Get(keys.next())
			}
		})
	}
}

func BenchmarkSet(b *testing.B) {
	for _, ct := range contenders() {
		b.Run(ct.name, func(b *testing.B) {
			c := ct.new(cacheSize)
			defer c.Close()

			keys := newZipfKeys(3, zipfS, keySpace)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				c.Set(keys.next(), i)
			}
		})
	}
}

// BenchmarkMixed runs a parallel workload with the given share of reads.
func BenchmarkMixed(b *testing.B) {
	workloads := []struct {
		name      string
		readRatio float64
	}{
		{"WriteHeavy", 0.1},
		{"Balanced", 0.5},
		{"ReadHeavy", 0.9},
	}

	for _, wl := range workloads {
		for _, ct := range contenders() {
			b.Run(wl.name+"/"+ct.name, func(b *testing.B) {
				c := ct.new(cacheSize)
				defer c.Close()
				warmup(c)

				b.ReportAllocs()
				b.ResetTimer()
				b.RunParallel(func(pb *testing.PB) {
					r := rand.New(rand.NewSource(rand.Int63()))
					keys := newZipfKeys(r.Int63(), zipfS, keySpace)
					i := 0
					for pb.Next() {
						key := keys.next()
						if r.Float64() < wl.readRatio {
							c.Get(key)
						} else {
							c.Set(key, i)
							i++
						}
					}
				})
			})
		}
	}
}
