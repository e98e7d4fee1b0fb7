// retry_test.go: tests for the retry executor
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package fortis

import (
	"context"
	goerrors "errors"
	"sync"
	"testing"
	"time"
)

// recordingSleeper records requested delays instead of waiting.
type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
	cancel context.CancelFunc // if set, called on the n-th sleep
	n      int
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	if s.cancel != nil && len(s.delays) == s.n {
		s.cancel()
	}
	s.mu.Unlock()
	return ctx.Err()
}

func (s *recordingSleeper) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

func failingOp(calls *int, err error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		*calls++
		return err
	}
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		initial time.Duration
		attempt int
		max     time.Duration
		want    time.Duration
	}{
		{time.Second, 0, 0, time.Second},
		{time.Second, 1, 0, 2 * time.Second},
		{time.Second, 2, 0, 4 * time.Second},
		{100 * time.Millisecond, 5, 0, 3200 * time.Millisecond},
		{time.Second, 10, 30 * time.Second, 30 * time.Second},
		{time.Second, 200, 0, time.Duration(1<<63 - 1)},
		{0, 3, 0, 0},
	}
	for _, tt := range tests {
		if got := Backoff(tt.initial, tt.attempt, tt.max); got != tt.want {
			t.Errorf("Backoff(%v, %d, %v) = %v, want %v", tt.initial, tt.attempt, tt.max, got, tt.want)
		}
	}
}

// TestRetry_DelaySchedule checks attempts at ~0s, +2s and +4s for
// maxRetries=3 and initialDelay=1s.
func TestRetry_DelaySchedule(t *testing.T) {
	sleeper := &recordingSleeper{}
	exec := NewRetryExecutor(RetryConfig{Sleep: sleeper.Sleep})

	calls := 0
	cause := goerrors.New("connection refused")
	err := exec.Do(context.Background(), failingOp(&calls, cause), 3, time.Second)

	if calls != 3 {
		t.Errorf("attempts = %d, want 3", calls)
	}
	delays := sleeper.Delays()
	if len(delays) != 2 || delays[0] != 2*time.Second || delays[1] != 4*time.Second {
		t.Errorf("delays = %v, want [2s 4s]", delays)
	}

	var ae *AppError
	if !goerrors.As(err, &ae) {
		t.Fatalf("expected *AppError, got %T", err)
	}
	if ae.RetryCount != 3 || ae.MaxRetries != 3 {
		t.Errorf("RetryCount/MaxRetries = %d/%d, want 3/3", ae.RetryCount, ae.MaxRetries)
	}
	if !IsRetryExhausted(err) {
		t.Error("expected FORTIS_RETRY_EXHAUSTED in the chain")
	}
	if !goerrors.Is(err, cause) {
		t.Error("last failure must stay reachable with errors.Is")
	}
}

func TestRetry_SucceedsEventually(t *testing.T) {
	sleeper := &recordingSleeper{}
	exec := NewRetryExecutor(RetryConfig{Sleep: sleeper.Sleep})

	calls := 0
	err := exec.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return goerrors.New("transient")
		}
		return nil
	}, 5, 10*time.Millisecond)

	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 2 {
		t.Errorf("attempts = %d, want 2", calls)
	}
	if delays := sleeper.Delays(); len(delays) != 1 || delays[0] != 20*time.Millisecond {
		t.Errorf("delays = %v, want [20ms]", delays)
	}
}

func TestRetry_AtLeastOneAttempt(t *testing.T) {
	exec := NewRetryExecutor(RetryConfig{Sleep: (&recordingSleeper{}).Sleep})

	calls := 0
	err := exec.Do(context.Background(), failingOp(&calls, goerrors.New("boom")), 0, time.Second)
	if calls != 1 {
		t.Errorf("attempts = %d, want 1", calls)
	}
	if err == nil {
		t.Error("expected failure")
	}
}

func TestRetry_NilOperation(t *testing.T) {
	exec := NewRetryExecutor(RetryConfig{})

	err := exec.Do(context.Background(), nil, 3, time.Second)
	if GetErrorCode(err) != ErrCodeInvalidOperation {
		t.Errorf("expected FORTIS_INVALID_OPERATION, got %v", err)
	}
}

func TestRetry_CancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sleeper := &recordingSleeper{cancel: cancel, n: 1}
	exec := NewRetryExecutor(RetryConfig{Sleep: sleeper.Sleep})

	calls := 0
	err := exec.Do(ctx, failingOp(&calls, goerrors.New("timeout")), 5, time.Second)

	if calls != 1 {
		t.Errorf("no attempt may follow a cancelled backoff, got %d attempts", calls)
	}
	if !IsCancelled(err) {
		t.Fatalf("expected FORTIS_OPERATION_CANCELLED, got %v", err)
	}
	var ae *AppError
	if !goerrors.As(err, &ae) || ae.Recovery != RecoveryAbort {
		t.Errorf("cancelled retry must abort, got %+v", ae)
	}
}

func TestRetry_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exec := NewRetryExecutor(RetryConfig{})

	calls := 0
	err := exec.Do(ctx, failingOp(&calls, nil), 3, time.Second)
	if calls != 0 {
		t.Errorf("op must not run on a cancelled context, got %d calls", calls)
	}
	if !IsCancelled(err) {
		t.Errorf("expected FORTIS_OPERATION_CANCELLED, got %v", err)
	}
}

// TestRetry_RealTimer exercises the default timer-based sleep.
func TestRetry_RealTimer(t *testing.T) {
	exec := NewRetryExecutor(RetryConfig{})

	calls := 0
	start := time.Now()
	_ = exec.Do(context.Background(), failingOp(&calls, goerrors.New("x")), 2, 5*time.Millisecond)

	if calls != 2 {
		t.Errorf("attempts = %d, want 2", calls)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("expected at least 10ms of backoff, got %v", elapsed)
	}
}

func TestRetry_DefaultShouldRetry(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		retry bool
	}{
		{"plain", goerrors.New("x"), true},
		{"deadline", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, false},
		{"cancelled code", NewErrOperationCancelled("op", context.Canceled), false},
		{"validation", NewErrEmptyKey("Put"), false},
		{"panic", NewErrPanicRecovered("op", "boom"), false},
		{"circuit open", NewErrCircuitOpen("db"), false},
		{"classified circuit open", Classify(NewErrCircuitOpen("db")), false},
	}
	for _, tt := range tests {
		if got := defaultShouldRetry(tt.err); got != tt.retry {
			t.Errorf("%s: defaultShouldRetry = %v, want %v", tt.name, got, tt.retry)
		}
	}
}

func TestRetry_CircuitOpenOverridesShouldRetry(t *testing.T) {
	sleeper := &recordingSleeper{}
	r := NewRetryExecutor(RetryConfig{
		Sleep:       sleeper.Sleep,
		ShouldRetry: func(error) bool { return true },
	})

	calls := 0
	err := r.Do(context.Background(), failingOp(&calls, NewErrCircuitOpen("db")), 5, time.Second)
	if calls != 1 || len(sleeper.Delays()) != 0 {
		t.Errorf("circuit open must end the loop, calls=%d delays=%v", calls, sleeper.Delays())
	}
	if !IsCircuitOpen(err) {
		t.Errorf("expected FORTIS_CIRCUIT_OPEN, got %v", err)
	}
}

func TestRetry_NonRetryableStopsEarly(t *testing.T) {
	sleeper := &recordingSleeper{}
	exec := NewRetryExecutor(RetryConfig{Sleep: sleeper.Sleep})

	calls := 0
	err := exec.Do(context.Background(), failingOp(&calls, NewErrEmptyKey("Put")), 5, time.Second)

	if calls != 1 {
		t.Errorf("attempts = %d, want 1", calls)
	}
	if IsRetryExhausted(err) {
		t.Error("a non-retryable failure is not an exhausted retry")
	}
	var ae *AppError
	if !goerrors.As(err, &ae) || ae.Kind != KindValidation {
		t.Errorf("expected VALIDATION AppError, got %v", err)
	}
}

func TestRetry_MaxDelayCap(t *testing.T) {
	sleeper := &recordingSleeper{}
	exec := NewRetryExecutor(RetryConfig{Sleep: sleeper.Sleep, MaxDelay: 3 * time.Second})

	calls := 0
	_ = exec.Do(context.Background(), failingOp(&calls, goerrors.New("x")), 4, time.Second)

	delays := sleeper.Delays()
	want := []time.Duration{2 * time.Second, 3 * time.Second, 3 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay %d = %v, want %v", i, delays[i], want[i])
		}
	}
}
