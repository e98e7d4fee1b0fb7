// apperror.go: failure taxonomy shared by the resilience wrappers
//
// Every failure leaving a wrapper is an *AppError carrying its kind, its
// severity and the recovery strategy derived from both.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package fortis

import (
	"context"
	goerrors "errors"
	"fmt"
	"io/fs"
	"net"
	"time"

	"github.com/agilira/go-errors"
)

// ErrorKind classifies where a failure comes from.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNetwork
	KindStorage
	KindValidation
	KindSecurity
	KindBusinessLogic
)

// String returns the string representation of ErrorKind
func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "NETWORK"
	case KindStorage:
		return "STORAGE"
	case KindValidation:
		return "VALIDATION"
	case KindSecurity:
		return "SECURITY"
	case KindBusinessLogic:
		return "BUSINESS_LOGIC"
	default:
		return "UNKNOWN"
	}
}

// Severity orders failures by impact. Higher values are more severe.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// String returns the string representation of Severity
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	default:
		return "CRITICAL"
	}
}

// RecoveryStrategy tells the caller how a failure should be handled.
type RecoveryStrategy int

const (
	RecoveryRetry RecoveryStrategy = iota
	RecoveryFallback
	RecoveryIgnore
	RecoveryManualIntervention
	RecoveryAbort
)

// String returns the string representation of RecoveryStrategy
func (r RecoveryStrategy) String() string {
	switch r {
	case RecoveryRetry:
		return "RETRY"
	case RecoveryFallback:
		return "FALLBACK"
	case RecoveryIgnore:
		return "IGNORE"
	case RecoveryManualIntervention:
		return "MANUAL_INTERVENTION"
	default:
		return "ABORT"
	}
}

// DefaultSeverity returns the severity assigned to a kind when nothing more
// specific is known.
func DefaultSeverity(kind ErrorKind) Severity {
	switch kind {
	case KindNetwork, KindBusinessLogic:
		return SeverityMedium
	case KindValidation:
		return SeverityLow
	case KindSecurity:
		return SeverityCritical
	default:
		return SeverityHigh
	}
}

// DefaultRecovery returns the recovery strategy for a kind at a given
// severity. Only storage failures depend on severity.
func DefaultRecovery(kind ErrorKind, severity Severity) RecoveryStrategy {
	switch kind {
	case KindNetwork:
		return RecoveryRetry
	case KindStorage:
		switch severity {
		case SeverityLow, SeverityMedium:
			return RecoveryFallback
		case SeverityHigh:
			return RecoveryManualIntervention
		default:
			return RecoveryAbort
		}
	case KindValidation:
		return RecoveryIgnore
	case KindBusinessLogic:
		return RecoveryFallback
	default:
		return RecoveryAbort
	}
}

// AppError is a classified failure. It is created per failed operation and
// never persisted.
type AppError struct {
	Kind       ErrorKind
	Severity   Severity
	Message    string
	Recovery   RecoveryStrategy
	RetryCount int
	MaxRetries int
	Timestamp  time.Time
	Cause      error
}

// NewAppError creates an AppError with the default severity and recovery
// strategy of its kind.
func NewAppError(kind ErrorKind, message string, cause error) *AppError {
	severity := DefaultSeverity(kind)
	return &AppError{
		Kind:      kind,
		Severity:  severity,
		Message:   message,
		Recovery:  DefaultRecovery(kind, severity),
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s [%s/%s]: %v", e.Message, e.Kind, e.Severity, e.Cause)
	}
	return fmt.Sprintf("%s [%s/%s]", e.Message, e.Kind, e.Severity)
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithSeverity returns a copy with a different severity and the recovery
// strategy recomputed for it.
func (e *AppError) WithSeverity(severity Severity) *AppError {
	c := *e
	c.Severity = severity
	c.Recovery = DefaultRecovery(c.Kind, severity)
	return &c
}

// Surfaced reports whether the failure must reach the caller as a hard
// failure. Low and medium severities are recovered locally.
func (e *AppError) Surfaced() bool {
	return e.Severity >= SeverityHigh
}

// ErrorCode returns the first error code found in the cause chain.
func (e *AppError) ErrorCode() errors.ErrorCode {
	return GetErrorCode(e.Cause)
}

// IsRetryable reports whether the recovery strategy is RETRY.
func (e *AppError) IsRetryable() bool {
	return e.Recovery == RecoveryRetry
}

func (e *AppError) clone() *AppError {
	c := *e
	return &c
}

// Classify turns any error into an *AppError. Errors that already carry an
// AppError in their chain are returned as is.
func Classify(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if goerrors.As(err, &appErr) {
		return appErr
	}

	kind := classifyKind(err)
	ae := NewAppError(kind, messageFor(err), err)

	// Panics and cancellations are handled by the caller, never recovered.
	switch GetErrorCode(err) {
	case ErrCodePanicRecovered:
		ae = ae.WithSeverity(SeverityCritical)
	case ErrCodeOperationCancelled:
		ae.Recovery = RecoveryAbort
	}
	return ae
}

func classifyKind(err error) ErrorKind {
	switch {
	case goerrors.Is(err, context.Canceled):
		return KindUnknown
	case goerrors.Is(err, context.DeadlineExceeded):
		return KindNetwork
	case goerrors.Is(err, fs.ErrPermission):
		return KindSecurity
	case IsValidationError(err):
		return KindValidation
	case IsCircuitOpen(err):
		return KindBusinessLogic
	}

	var netErr net.Error
	if goerrors.As(err, &netErr) {
		return KindNetwork
	}

	var pathErr *fs.PathError
	if goerrors.As(err, &pathErr) || goerrors.Is(err, fs.ErrNotExist) {
		return KindStorage
	}

	if IsRetryable(err) {
		return KindNetwork
	}
	return KindUnknown
}

func messageFor(err error) string {
	var coded *errors.Error
	if goerrors.As(err, &coded) && coded.Message != "" {
		return coded.Message
	}
	return err.Error()
}
