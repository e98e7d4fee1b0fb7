// example_test.go: runnable examples
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package fortis_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/agilira/fortis"
)

func ExampleStore() {
	store := fortis.NewStore[string](fortis.Config{
		MaxSize:        2,
		DefaultTTL:     time.Minute,
		EvictionPolicy: fortis.PolicyLRU,
	})

	_ = store.Put("a", "alpha")
	_ = store.Put("b", "beta")
	store.Get("a")
	_ = store.Put("c", "gamma") // evicts "b", the least recently used

	fmt.Println(store.Keys())
	stats := store.Stats()
	fmt.Printf("hits=%d evictions=%d\n", stats.Hits, stats.Evictions)
	// Output:
	// [a c]
	// hits=1 evictions=1
}

func ExampleKey() {
	fmt.Println(fortis.Key("ledger", "account", "42"))
	// Output: ledger:account:42
}

func ExampleCircuitBreaker() {
	breaker := fortis.NewCircuitBreaker(fortis.BreakerConfig{
		Name:             "accounts-db",
		FailureThreshold: 2,
		Timeout:          time.Minute,
	})

	breaker.RecordFailure()
	breaker.RecordFailure()

	fmt.Println(breaker.State(), breaker.CanExecute())
	// Output: OPEN false
}

func ExampleHandleWithRetry() {
	runner := fortis.NewRunner(fortis.RunnerConfig{
		Retry: fortis.NewRetryExecutor(fortis.RetryConfig{
			Sleep: func(ctx context.Context, d time.Duration) error {
				fmt.Println("wait", d)
				return nil
			},
		}),
	})

	attempts := 0
	v, err := fortis.HandleWithRetry(context.Background(), runner,
		func(ctx context.Context) (int, error) {
			attempts++
			if attempts < 3 {
				return 0, errors.New("connection reset")
			}
			return 42, nil
		}, 3, time.Second)

	fmt.Println(v, err, attempts)
	// Output:
	// wait 2s
	// wait 4s
	// 42 <nil> 3
}

func ExampleClassify() {
	ae := fortis.Classify(fmt.Errorf("open ledger: %w", os.ErrNotExist))
	fmt.Println(ae.Kind, ae.Severity, ae.Recovery)
	// Output: STORAGE HIGH MANUAL_INTERVENTION
}
