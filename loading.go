// loading.go: GetOrLoad implementation with singleflight pattern
//
// This file implements GetOrLoad, providing the cache-aside pattern with
// deduplication of concurrent loads for the same key.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package fortis

import "context"

// Loader fetches the value for a key on a cache miss.
type Loader[V any] func(ctx context.Context) (V, error)

// GetOrLoad returns the cached value for key, or loads it with loader.
// Concurrent misses for the same key share a single loader call.
//
// The loaded value is cached with the store's default TTL. Loader errors
// are never cached.
//
// Returns:
//   - FORTIS_EMPTY_KEY if key is empty
//   - FORTIS_INVALID_LOADER if loader is nil
//   - FORTIS_OPERATION_CANCELLED if ctx is done before the load completes
//   - FORTIS_PANIC_RECOVERED if loader panics
//   - FORTIS_LOADER_FAILED wrapping the loader's error otherwise
//
// The loader receives the values of the caller that started the load but
// not its cancellation or deadline: a caller whose context ends stops
// waiting, while the shared load keeps running for the other waiters.
// Loaders that must be bounded should apply their own timeout.
func (s *Store[V]) GetOrLoad(ctx context.Context, key string, loader Loader[V]) (V, error) {
	var zero V
	if key == "" {
		return zero, NewErrEmptyKey("GetOrLoad")
	}

	if value, found := s.Get(key); found {
		return value, nil
	}

	if loader == nil {
		return zero, NewErrInvalidLoader(key)
	}

	if err := ctx.Err(); err != nil {
		return zero, NewErrOperationCancelled("GetOrLoad", err)
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := s.loads.DoChan(key, func() (interface{}, error) {
		value, err := s.load(loadCtx, key, loader)
		if err != nil {
			return nil, err
		}
		if putErr := s.Put(key, value); putErr != nil {
			s.logger.Warn("loaded value not cached", "key", key, "error", putErr)
		}
		return value, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		value, _ := res.Val.(V)
		return value, nil
	case <-ctx.Done():
		return zero, NewErrOperationCancelled("GetOrLoad", ctx.Err())
	}
}

// load runs loader, converting a panic into FORTIS_PANIC_RECOVERED and any
// other failure into FORTIS_LOADER_FAILED.
func (s *Store[V]) load(ctx context.Context, key string, loader Loader[V]) (value V, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewErrPanicRecovered("GetOrLoad:"+key, r)
			s.logger.Error("loader panicked", "key", key, "panic", r)
		}
	}()
	value, err = loader(ctx)
	if err != nil {
		return value, NewErrLoaderFailed(key, err)
	}
	return value, nil
}
