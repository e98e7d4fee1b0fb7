// retry.go: bounded retries with exponential backoff
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package fortis

import (
	"context"
	goerrors "errors"
	"math"
	"time"
)

// RetryConfig holds configuration parameters for a RetryExecutor.
type RetryConfig struct {
	// Logger receives one debug line per retry. If nil, NoOpLogger is used.
	Logger Logger

	// MaxDelay caps a single backoff delay. 0 means uncapped.
	MaxDelay time.Duration

	// Sleep waits for d or until ctx is done. If nil, a timer-based
	// implementation is used. Tests inject a recording sleeper.
	Sleep func(ctx context.Context, d time.Duration) error

	// ShouldRetry decides whether a failure is worth another attempt.
	// If nil, every failure is retried except cancellations, recovered
	// panics, validation errors and open circuit breakers.
	// FORTIS_CIRCUIT_OPEN is never retried, whatever ShouldRetry says.
	ShouldRetry func(err error) bool
}

// RetryExecutor runs an operation until it succeeds or its attempt budget
// is spent, waiting initialDelay * 2^attempt between attempts. No jitter is
// added.
type RetryExecutor struct {
	logger      Logger
	maxDelay    time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	shouldRetry func(err error) bool
}

// NewRetryExecutor creates a retry executor.
func NewRetryExecutor(cfg RetryConfig) *RetryExecutor {
	r := &RetryExecutor{
		logger:      cfg.Logger,
		maxDelay:    cfg.MaxDelay,
		sleep:       cfg.Sleep,
		shouldRetry: cfg.ShouldRetry,
	}
	if r.logger == nil {
		r.logger = NoOpLogger{}
	}
	if r.sleep == nil {
		r.sleep = sleepContext
	}
	if r.shouldRetry == nil {
		r.shouldRetry = defaultShouldRetry
	}
	return r
}

// Backoff returns initialDelay * 2^attempt, capped at maxDelay when
// maxDelay > 0 and saturating instead of overflowing.
func Backoff(initialDelay time.Duration, attempt int, maxDelay time.Duration) time.Duration {
	if initialDelay <= 0 {
		return 0
	}
	d := initialDelay
	for i := 0; i < attempt; i++ {
		if d > math.MaxInt64/2 {
			d = math.MaxInt64
			break
		}
		d *= 2
		if maxDelay > 0 && d >= maxDelay {
			break
		}
	}
	if maxDelay > 0 && d > maxDelay {
		return maxDelay
	}
	return d
}

// Do runs op up to maxRetries times in total (at least once). Attempt k
// (0-based, k >= 1) is preceded by a Backoff(initialDelay, k) wait, so with
// maxRetries=3 and initialDelay=1s attempts start at ~0s, +2s and +4s.
//
// The returned error is always an *AppError: the classified last failure
// wrapped with FORTIS_RETRY_EXHAUSTED, or FORTIS_OPERATION_CANCELLED when
// ctx ends the loop.
func (r *RetryExecutor) Do(ctx context.Context, op func(ctx context.Context) error, maxRetries int, initialDelay time.Duration) error {
	if op == nil {
		return Classify(NewErrInvalidOperation("HandleWithRetry"))
	}
	return r.run(ctx, op, maxRetries, initialDelay, 0, nil, nil)
}

// run continues a retry loop in which done attempts have already been made,
// the last one failing with lastErr. If gate is set it is consulted before
// every backoff wait; a non-nil result ends the loop without waiting.
func (r *RetryExecutor) run(ctx context.Context, op func(ctx context.Context) error, maxRetries int, initialDelay time.Duration, done int, lastErr error, gate func() error) error {
	if maxRetries < 1 {
		maxRetries = 1
	}

	for attempt := done; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if gate != nil {
				if err := gate(); err != nil {
					ae := Classify(err).clone()
					ae.RetryCount = attempt
					ae.MaxRetries = maxRetries
					return ae
				}
			}

			delay := Backoff(initialDelay, attempt, r.maxDelay)
			r.logger.Debug("retrying operation",
				"attempt", attempt+1,
				"max_retries", maxRetries,
				"delay", delay.String(),
				"error", errorString(lastErr))

			if err := r.sleep(ctx, delay); err != nil {
				return r.cancelled(err, attempt, maxRetries)
			}
		}
		if err := ctx.Err(); err != nil {
			return r.cancelled(err, attempt, maxRetries)
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if IsCircuitOpen(err) || !r.shouldRetry(err) {
			ae := Classify(err).clone()
			ae.RetryCount = attempt + 1
			ae.MaxRetries = maxRetries
			return ae
		}
	}

	if lastErr == nil {
		return nil
	}

	ae := Classify(lastErr).clone()
	ae.RetryCount = maxRetries
	ae.MaxRetries = maxRetries
	ae.Cause = NewErrRetryExhausted(maxRetries, ae.Cause)
	return ae
}

func (r *RetryExecutor) cancelled(cause error, attempts, maxRetries int) *AppError {
	ae := Classify(NewErrOperationCancelled("HandleWithRetry", cause)).clone()
	ae.RetryCount = attempts
	ae.MaxRetries = maxRetries
	return ae
}

func defaultShouldRetry(err error) bool {
	if goerrors.Is(err, context.Canceled) || IsCancelled(err) || IsValidationError(err) || IsCircuitOpen(err) {
		return false
	}
	return GetErrorCode(err) != ErrCodePanicRecovered
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
