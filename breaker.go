// breaker.go: circuit breaker for protected calls
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package fortis

import (
	"sync"
	"time"
)

// BreakerState is the state of a CircuitBreaker.
type BreakerState int

const (
	// BreakerClosed admits every call and counts consecutive failures.
	BreakerClosed BreakerState = iota

	// BreakerOpen rejects calls until the timeout has elapsed since the
	// last failure.
	BreakerOpen

	// BreakerHalfOpen admits a limited number of probe calls.
	BreakerHalfOpen
)

// String returns the string representation of BreakerState
func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "CLOSED"
	case BreakerOpen:
		return "OPEN"
	case BreakerHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// BreakerConfig holds configuration parameters for a CircuitBreaker.
type BreakerConfig struct {
	// Name identifies the breaker in logs, metrics and errors.
	// Default: "default".
	Name string

	// FailureThreshold is the number of consecutive failures that opens
	// the breaker. Default: DefaultFailureThreshold.
	FailureThreshold int

	// Timeout is how long the breaker stays open after the last failure
	// before admitting a probe. Default: DefaultBreakerTimeout.
	Timeout time.Duration

	// HalfOpenMaxCalls is the number of probes admitted while half-open.
	// Default: DefaultHalfOpenMaxCalls.
	HalfOpenMaxCalls int

	// TimeProvider provides current time. If nil, a go-timecache backed
	// provider is used.
	TimeProvider TimeProvider

	// Logger receives state transitions. If nil, NoOpLogger is used.
	Logger Logger

	// Observer receives transitions and rejections for metrics.
	// If nil, NoOpBreakerObserver is used.
	Observer BreakerObserver

	// OnStateChange is called after every transition, outside the
	// breaker lock.
	OnStateChange func(from, to BreakerState)
}

// Validate checks configuration parameters and applies defaults.
// Returns nil (no actual validation errors, only normalization).
func (c *BreakerConfig) Validate() error {
	if c.Name == "" {
		c.Name = "default"
	}
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = DefaultFailureThreshold
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultBreakerTimeout
	}
	if c.HalfOpenMaxCalls <= 0 {
		c.HalfOpenMaxCalls = DefaultHalfOpenMaxCalls
	}
	if c.TimeProvider == nil {
		c.TimeProvider = &systemTimeProvider{}
	}
	if c.Logger == nil {
		c.Logger = NoOpLogger{}
	}
	if c.Observer == nil {
		c.Observer = NoOpBreakerObserver{}
	}
	return nil
}

// BreakerSnapshot is a point-in-time view of a breaker.
type BreakerSnapshot struct {
	Name             string
	State            BreakerState
	Failures         int
	HalfOpenCalls    int
	FailureThreshold int
	HalfOpenMaxCalls int
	Timeout          time.Duration
	LastFailure      time.Time // zero if no failure was recorded
}

// CircuitBreaker isolates a failing dependency. It is a pure in-memory
// state machine and never blocks.
//
//	CLOSED    --failures >= threshold-->      OPEN
//	OPEN      --now-lastFailure > timeout-->  HALF_OPEN (on CanExecute)
//	HALF_OPEN --success-->                    CLOSED
//	HALF_OPEN --failure-->                    OPEN
type CircuitBreaker struct {
	mu sync.Mutex

	state           BreakerState
	failureCount    int
	lastFailureTime int64 // ns
	halfOpenCalls   int

	failureThreshold int
	timeout          time.Duration
	halfOpenMaxCalls int

	// immutable after construction
	name          string
	clock         TimeProvider
	logger        Logger
	observer      BreakerObserver
	onStateChange func(from, to BreakerState)
}

// transition is a state change recorded under the lock and reported after
// it is released.
type transition struct {
	from, to BreakerState
	failures int
}

// NewCircuitBreaker creates a closed breaker.
func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	_ = cfg.Validate()

	return &CircuitBreaker{
		state:            BreakerClosed,
		failureThreshold: cfg.FailureThreshold,
		timeout:          cfg.Timeout,
		halfOpenMaxCalls: cfg.HalfOpenMaxCalls,
		name:             cfg.Name,
		clock:            cfg.TimeProvider,
		logger:           cfg.Logger,
		observer:         cfg.Observer,
		onStateChange:    cfg.OnStateChange,
	}
}

// Name returns the breaker name.
func (b *CircuitBreaker) Name() string {
	return b.name
}

// CanExecute reports whether a protected call may run now.
//
// CLOSED always admits. OPEN admits once the timeout has elapsed since the
// last failure, moving to HALF_OPEN; that call uses one half-open slot.
// HALF_OPEN admits while fewer than HalfOpenMaxCalls probes are running.
func (b *CircuitBreaker) CanExecute() bool {
	b.mu.Lock()

	var (
		allowed bool
		changed *transition
	)
	switch b.state {
	case BreakerClosed:
		allowed = true
	case BreakerOpen:
		if b.clock.Now()-b.lastFailureTime > int64(b.timeout) {
			changed = b.setStateLocked(BreakerHalfOpen)
			b.halfOpenCalls = 1
			allowed = true
		}
	case BreakerHalfOpen:
		if b.halfOpenCalls < b.halfOpenMaxCalls {
			b.halfOpenCalls++
			allowed = true
		}
	}
	b.mu.Unlock()

	b.report(changed)
	if !allowed {
		b.observer.RecordRejection(b.name)
	}
	return allowed
}

// RecordSuccess reports a successful protected call. In HALF_OPEN it closes
// the breaker; in CLOSED it resets the consecutive failure count. Successes
// reported while OPEN are ignored.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	var changed *transition
	switch b.state {
	case BreakerClosed:
		b.failureCount = 0
	case BreakerHalfOpen:
		changed = b.setStateLocked(BreakerClosed)
		b.failureCount = 0
		b.halfOpenCalls = 0
	}
	b.mu.Unlock()

	b.report(changed)
}

// RecordFailure reports a failed protected call. It increments the failure
// count and updates the last failure time; a failure in HALF_OPEN, or the
// threshold-th consecutive failure in CLOSED, opens the breaker.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	b.failureCount++
	b.lastFailureTime = b.clock.Now()

	var changed *transition
	switch b.state {
	case BreakerClosed:
		if b.failureCount >= b.failureThreshold {
			changed = b.setStateLocked(BreakerOpen)
		}
	case BreakerHalfOpen:
		changed = b.setStateLocked(BreakerOpen)
		b.halfOpenCalls = 0
	}
	b.mu.Unlock()

	b.report(changed)
}

// State returns the current state without evaluating the open timeout.
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Counts returns the consecutive failure count and the number of half-open
// probes admitted.
func (b *CircuitBreaker) Counts() (failures, halfOpenCalls int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failureCount, b.halfOpenCalls
}

// Snapshot returns a point-in-time view of the breaker.
func (b *CircuitBreaker) Snapshot() BreakerSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := BreakerSnapshot{
		Name:             b.name,
		State:            b.state,
		Failures:         b.failureCount,
		HalfOpenCalls:    b.halfOpenCalls,
		FailureThreshold: b.failureThreshold,
		HalfOpenMaxCalls: b.halfOpenMaxCalls,
		Timeout:          b.timeout,
	}
	if b.lastFailureTime != 0 {
		s.LastFailure = time.Unix(0, b.lastFailureTime)
	}
	return s
}

// Reset forces the breaker back to CLOSED and clears its counters.
func (b *CircuitBreaker) Reset() {
	b.mu.Lock()
	changed := b.setStateLocked(BreakerClosed)
	b.failureCount = 0
	b.halfOpenCalls = 0
	b.lastFailureTime = 0
	b.mu.Unlock()

	b.report(changed)
}

// Configure changes the threshold, timeout and half-open budget. The
// current state and counters are kept.
func (b *CircuitBreaker) Configure(failureThreshold int, timeout time.Duration, halfOpenMaxCalls int) error {
	if failureThreshold <= 0 {
		return NewErrInvalidConfig("failure_threshold", failureThreshold)
	}
	if timeout <= 0 {
		return NewErrInvalidConfig("timeout", timeout)
	}
	if halfOpenMaxCalls <= 0 {
		return NewErrInvalidConfig("half_open_max_calls", halfOpenMaxCalls)
	}

	b.mu.Lock()
	b.failureThreshold = failureThreshold
	b.timeout = timeout
	b.halfOpenMaxCalls = halfOpenMaxCalls
	b.mu.Unlock()

	b.logger.Info("circuit breaker reconfigured",
		"breaker", b.name,
		"failure_threshold", failureThreshold,
		"timeout", timeout.String(),
		"half_open_max_calls", halfOpenMaxCalls)
	return nil
}

// setStateLocked changes the state and returns the transition, or nil if
// the state is unchanged.
func (b *CircuitBreaker) setStateLocked(to BreakerState) *transition {
	if b.state == to {
		return nil
	}
	t := &transition{from: b.state, to: to, failures: b.failureCount}
	b.state = to
	return t
}

func (b *CircuitBreaker) report(t *transition) {
	if t == nil {
		return
	}

	if t.to == BreakerOpen {
		b.logger.Warn("circuit breaker opened",
			"breaker", b.name, "from", t.from.String(), "failures", t.failures)
	} else {
		b.logger.Info("circuit breaker state changed",
			"breaker", b.name, "from", t.from.String(), "to", t.to.String())
	}

	b.observer.RecordStateChange(b.name, t.from, t.to)
	if b.onStateChange != nil {
		b.onStateChange(t.from, t.to)
	}
}

// release gives back a half-open slot taken by a call that ended without an
// outcome, such as a cancelled context.
func (b *CircuitBreaker) release() {
	b.mu.Lock()
	if b.state == BreakerHalfOpen && b.halfOpenCalls > 0 {
		b.halfOpenCalls--
	}
	b.mu.Unlock()
}

// rejecting reports whether CanExecute would refuse a call right now
// because the breaker is OPEN and its timeout has not elapsed. It changes
// no state.
func (b *CircuitBreaker) rejecting() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == BreakerOpen && b.clock.Now()-b.lastFailureTime <= int64(b.timeout)
}
