// runner.go: retry, fallback and circuit-breaker wrappers
//
// The wrappers are independent: callers pick one per call site or compose
// them. Execute applies the recovery strategy of the classified failure.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package fortis

import (
	"context"
	goerrors "errors"
	"time"
)

// Operation is a fallible call protected by the wrappers.
type Operation[T any] func(ctx context.Context) (T, error)

// RunnerConfig holds configuration parameters for a Runner.
type RunnerConfig struct {
	// Logger receives classified failures. If nil, NoOpLogger is used.
	Logger Logger

	// Retry is the executor used by HandleWithRetry and Execute.
	// If nil, one is created with the runner's logger.
	Retry *RetryExecutor
}

// Runner runs operations through the resilience wrappers. It holds no
// per-call state and is safe for concurrent use.
type Runner struct {
	logger  Logger
	retry   *RetryExecutor
	handler *ErrorHandler
}

// NewRunner creates a runner.
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.Logger == nil {
		cfg.Logger = NoOpLogger{}
	}
	if cfg.Retry == nil {
		cfg.Retry = NewRetryExecutor(RetryConfig{Logger: cfg.Logger})
	}
	return &Runner{
		logger:  cfg.Logger,
		retry:   cfg.Retry,
		handler: NewErrorHandler(cfg.Logger),
	}
}

// Handler returns the error handler used to classify and log failures.
func (r *Runner) Handler() *ErrorHandler {
	return r.handler
}

// HandleWithRetry runs op up to maxRetries times with exponential backoff
// (see RetryExecutor.Do). The error, if any, is an *AppError.
//
// HandleWithRetry does not consult any circuit breaker. If op itself fails
// with FORTIS_CIRCUIT_OPEN the loop stops at once; use Execute with a
// Breaker to have retries cut short as soon as the breaker opens.
func HandleWithRetry[T any](ctx context.Context, r *Runner, op Operation[T], maxRetries int, initialDelay time.Duration) (T, error) {
	v, err := retryValue(ctx, r, op, maxRetries, initialDelay, 0, nil, nil)
	if err != nil {
		return v, r.handler.Handle(err)
	}
	return v, nil
}

// HandleWithFallback runs op and, if it fails, fallback. When both fail the
// primary failure is logged and the fallback failure is returned, wrapped
// with FORTIS_FALLBACK_FAILED.
func HandleWithFallback[T any](ctx context.Context, r *Runner, op, fallback Operation[T]) (T, error) {
	var zero T
	if op == nil || fallback == nil {
		return zero, r.handler.Handle(NewErrInvalidOperation("HandleWithFallback"))
	}

	v, err := invoke(ctx, op, "HandleWithFallback")
	if err == nil {
		return v, nil
	}

	v, err = runFallback(ctx, r, Classify(err), fallback)
	if err != nil {
		return zero, r.handler.Handle(err)
	}
	return v, nil
}

// HandleWithCircuitBreaker runs op if b admits it and records the outcome
// on b. A refused call fails immediately with FORTIS_CIRCUIT_OPEN without
// invoking op.
func HandleWithCircuitBreaker[T any](ctx context.Context, r *Runner, op Operation[T], b *CircuitBreaker) (T, error) {
	v, err := breakerValue(ctx, op, b)
	if err != nil {
		return v, r.handler.Handle(err)
	}
	return v, nil
}

// ExecOptions selects what Execute may use to recover a failure.
type ExecOptions[T any] struct {
	// Breaker, if set, protects every call to the primary operation.
	Breaker *CircuitBreaker

	// Fallback, if set, serves FALLBACK failures and exhausted retries.
	Fallback Operation[T]

	// MaxRetries is the total attempt budget for RETRY failures.
	// Default: DefaultMaxRetries.
	MaxRetries int

	// InitialDelay is the first backoff delay. Default: DefaultInitialDelay.
	InitialDelay time.Duration
}

// Execute runs op once and, on failure, applies the recovery strategy of
// the classified error:
//   - RETRY: resumes with the retry loop, then tries Fallback if set.
//     With a Breaker, the loop stops without waiting once it is open.
//   - FALLBACK: runs Fallback if set
//   - IGNORE: logs and returns the zero value with a nil error
//   - MANUAL_INTERVENTION, ABORT: returns the failure
//
// A failure that could not be recovered is returned as an *AppError.
func Execute[T any](ctx context.Context, r *Runner, op Operation[T], opts ExecOptions[T]) (T, error) {
	var zero T
	if op == nil {
		return zero, r.handler.Handle(NewErrInvalidOperation("Execute"))
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = DefaultInitialDelay
	}

	call := op
	var gate func() error
	if b := opts.Breaker; b != nil {
		call = func(ctx context.Context) (T, error) {
			return breakerValue(ctx, op, b)
		}
		gate = func() error {
			if b.rejecting() {
				return NewErrCircuitOpen(b.Name())
			}
			return nil
		}
	}

	v, err := invoke(ctx, call, "Execute")
	if err == nil {
		return v, nil
	}
	ae := Classify(err)

	switch ae.Recovery {
	case RecoveryRetry:
		v, err = retryValue(ctx, r, call, opts.MaxRetries, opts.InitialDelay, 1, ae, gate)
		if err == nil {
			return v, nil
		}
		if opts.Fallback != nil && !IsCancelled(err) {
			v, err = runFallback(ctx, r, Classify(err), opts.Fallback)
			if err == nil {
				return v, nil
			}
		}
		return zero, r.handler.Handle(err)

	case RecoveryFallback:
		if opts.Fallback == nil {
			return zero, r.handler.Handle(ae)
		}
		v, err = runFallback(ctx, r, ae, opts.Fallback)
		if err != nil {
			return zero, r.handler.Handle(err)
		}
		return v, nil

	case RecoveryIgnore:
		r.handler.log(ae)
		return zero, nil

	default:
		return zero, r.handler.Handle(ae)
	}
}

func retryValue[T any](ctx context.Context, r *Runner, op Operation[T], maxRetries int, initialDelay time.Duration, done int, lastErr error, gate func() error) (T, error) {
	var zero T
	if op == nil {
		return zero, Classify(NewErrInvalidOperation("HandleWithRetry"))
	}

	var result T
	err := r.retry.run(ctx, func(ctx context.Context) error {
		v, err := invoke(ctx, op, "HandleWithRetry")
		if err != nil {
			return err
		}
		result = v
		return nil
	}, maxRetries, initialDelay, done, lastErr, gate)
	if err != nil {
		return zero, err
	}
	return result, nil
}

// runFallback logs the primary failure and runs fallback. If the fallback
// fails too, its classified failure is returned with the primary attached.
func runFallback[T any](ctx context.Context, r *Runner, primary *AppError, fallback Operation[T]) (T, error) {
	var zero T
	r.handler.log(primary)

	v, err := invoke(ctx, fallback, "HandleWithFallback:fallback")
	if err == nil {
		return v, nil
	}

	ae := Classify(err).clone()
	ae.Cause = NewErrFallbackFailed(primary, ae.Cause)
	return zero, ae
}

func breakerValue[T any](ctx context.Context, op Operation[T], b *CircuitBreaker) (T, error) {
	var zero T
	if op == nil || b == nil {
		return zero, Classify(NewErrInvalidOperation("HandleWithCircuitBreaker"))
	}

	if !b.CanExecute() {
		return zero, Classify(NewErrCircuitOpen(b.Name()))
	}

	v, err := invoke(ctx, op, "HandleWithCircuitBreaker")
	if err != nil {
		// A caller giving up says nothing about the dependency.
		if goerrors.Is(err, context.Canceled) {
			b.release()
		} else {
			b.RecordFailure()
		}
		return zero, Classify(err)
	}

	b.RecordSuccess()
	return v, nil
}

// invoke calls op, converting a panic into FORTIS_PANIC_RECOVERED.
func invoke[T any](ctx context.Context, op Operation[T], name string) (v T, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			var zero T
			v, err = zero, NewErrPanicRecovered(name, rec)
		}
	}()
	return op(ctx)
}
