// Package fortis provides a thread-safe, size- and time-bounded in-memory
// cache with a selectable eviction policy, paired with a fault-tolerance
// layer used to wrap data-access calls.
//
// # Overview
//
// The package is made of a handful of independent pieces:
//   - Store[V]: mutex-guarded map from string keys to entries, bounded by
//     MaxSize and per-entry TTL, evicting with LRU, LFU, FIFO or TTL policy
//   - CacheStats: hits, misses, evictions, expirations and derived hit rate
//   - CircuitBreaker: CLOSED / OPEN / HALF_OPEN failure isolation
//   - RetryExecutor: bounded retries with deterministic exponential backoff
//   - Runner: retry, fallback and circuit-breaker wrappers plus Execute,
//     which applies the recovery strategy of the classified failure
//   - AppError: failure taxonomy (kind, severity, recovery strategy)
//
// Nothing is global: stores, breakers and runners are constructed by the
// caller and injected where they are needed.
//
// # Quick Start
//
//	store := fortis.NewStore[Account](fortis.Config{
//	    MaxSize:        1_000,
//	    DefaultTTL:     5 * time.Minute,
//	    EvictionPolicy: fortis.PolicyLRU,
//	})
//
//	breaker := fortis.NewCircuitBreaker(fortis.BreakerConfig{
//	    Name:             "accounts-db",
//	    FailureThreshold: 3,
//	    Timeout:          30 * time.Second,
//	})
//
//	runner := fortis.NewRunner(fortis.RunnerConfig{})
//
//	key := fortis.Key("ledger", "account", id)
//	if account, found := store.Get(key); found {
//	    return account, nil
//	}
//
//	account, err := fortis.HandleWithCircuitBreaker(ctx, runner,
//	    func(ctx context.Context) (Account, error) {
//	        return db.FindAccount(ctx, id)
//	    }, breaker)
//	if err != nil {
//	    return Account{}, err
//	}
//	_ = store.Put(key, account)
//
// # Eviction Policies
//
// When a Put pushes the store over MaxSize, one entry is removed inside the
// same critical section:
//   - PolicyLRU: least recently accessed entry
//   - PolicyLFU: entry with the fewest accesses
//   - PolicyFIFO: oldest inserted entry
//   - PolicyTTL: every expired entry; if none has expired the oldest
//     inserted entry is removed so the store never exceeds MaxSize
//
// Ties are broken deterministically (logical access order, then insertion
// order). The entry being written is never chosen as the victim.
//
// # Cache Invalidation
//
// After a write that may stale earlier reads, drop the affected keys:
//
//	removed, err := store.InvalidatePattern(`^ledger:(transactions|balance):42$`)
//	store.InvalidatePrefix("ledger:report:")
//
// # Resilience
//
// The wrappers can be used on their own or composed by the caller:
//
//	v, err := fortis.HandleWithRetry(ctx, runner, fetch, 3, time.Second)
//	v, err := fortis.HandleWithFallback(ctx, runner, fetch, readReplica)
//	v, err := fortis.HandleWithCircuitBreaker(ctx, runner, fetch, breaker)
//
// HandleWithRetry with maxRetries=3 and initialDelay=1s attempts at ~0s,
// then waits 2s and 4s between attempts (initialDelay * 2^attempt). No
// jitter is applied.
//
// Every failure returned by the wrappers is an *AppError. Low and medium
// severity failures are recovered by Execute according to their strategy;
// high and critical ones are returned to the caller.
//
// # Configuration Reload
//
// HotConfig watches a configuration file with Argus and applies cache and
// breaker settings at runtime:
//
//	cache:
//	  max_size: 5000
//	  default_ttl: "10m"
//	  eviction_policy: "lfu"
//	breaker:
//	  failure_threshold: 3
//	  timeout: "30s"
//	  half_open_max_calls: 1
//
// # Observability
//
// Stats are always available through Store.Stats. For OpenTelemetry
// metrics plug the collector from github.com/agilira/fortis/otel into
// Config.MetricsCollector and BreakerConfig.Observer.
//
// # Packages
//
//   - github.com/agilira/fortis: cache and resilience core
//   - github.com/agilira/fortis/otel: OpenTelemetry metrics collector
//   - github.com/agilira/fortis/internal/ledger: reference repository over gorm/sqlite
//   - github.com/agilira/fortis/internal/httpapi: HTTP surface for the ledger
//   - github.com/agilira/fortis/cmd/fortis-ledger: demo server
package fortis
