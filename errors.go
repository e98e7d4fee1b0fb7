// errors.go: structured error codes for fortis cache and resilience operations
//
// This file provides structured error types using the go-errors library,
// enabling rich error context, categorization, and standardized error codes
// for every fallible operation in the package.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package fortis

import (
	goerrors "errors"
	"fmt"
	"time"

	"github.com/agilira/go-errors"
)

// Error codes for fortis operations
const (
	// Configuration errors
	ErrCodeInvalidConfig  errors.ErrorCode = "FORTIS_INVALID_CONFIG"
	ErrCodeInvalidMaxSize errors.ErrorCode = "FORTIS_INVALID_MAX_SIZE"
	ErrCodeInvalidTTL     errors.ErrorCode = "FORTIS_INVALID_TTL"
	ErrCodeInvalidPolicy  errors.ErrorCode = "FORTIS_INVALID_POLICY"

	// Cache operation errors
	ErrCodeEmptyKey       errors.ErrorCode = "FORTIS_EMPTY_KEY"
	ErrCodeKeyNotFound    errors.ErrorCode = "FORTIS_KEY_NOT_FOUND"
	ErrCodeInvalidPattern errors.ErrorCode = "FORTIS_INVALID_PATTERN"

	// Loader errors
	ErrCodeInvalidLoader errors.ErrorCode = "FORTIS_INVALID_LOADER"
	ErrCodeLoaderFailed  errors.ErrorCode = "FORTIS_LOADER_FAILED"

	// Resilience errors
	ErrCodeCircuitOpen        errors.ErrorCode = "FORTIS_CIRCUIT_OPEN"
	ErrCodeRetryExhausted     errors.ErrorCode = "FORTIS_RETRY_EXHAUSTED"
	ErrCodeFallbackFailed     errors.ErrorCode = "FORTIS_FALLBACK_FAILED"
	ErrCodeOperationCancelled errors.ErrorCode = "FORTIS_OPERATION_CANCELLED"
	ErrCodeInvalidOperation   errors.ErrorCode = "FORTIS_INVALID_OPERATION"

	// Internal errors
	ErrCodeInternalError  errors.ErrorCode = "FORTIS_INTERNAL_ERROR"
	ErrCodePanicRecovered errors.ErrorCode = "FORTIS_PANIC_RECOVERED"
)

// Common error messages
const (
	msgInvalidConfig      = "invalid configuration"
	msgInvalidMaxSize     = "invalid max size: must be greater than 0"
	msgInvalidTTL         = "invalid TTL: must be non-negative"
	msgInvalidPolicy      = "invalid eviction policy"
	msgEmptyKey           = "key cannot be empty"
	msgKeyNotFound        = "key not found in cache"
	msgInvalidPattern     = "invalid invalidation pattern"
	msgInvalidLoader      = "loader function cannot be nil"
	msgLoaderFailed       = "loader function failed"
	msgCircuitOpen        = "circuit breaker is open"
	msgRetryExhausted     = "operation failed after exhausting retries"
	msgFallbackFailed     = "fallback operation failed"
	msgOperationCancelled = "operation was cancelled"
	msgInvalidOperation   = "operation cannot be nil"
	msgInternalError      = "internal error"
	msgPanicRecovered     = "panic recovered in operation"
)

// =============================================================================
// CONFIGURATION ERRORS
// =============================================================================

// NewErrInvalidConfig creates a generic configuration error
func NewErrInvalidConfig(field string, value interface{}) error {
	return errors.NewWithContext(ErrCodeInvalidConfig, msgInvalidConfig, map[string]interface{}{
		"field":          field,
		"provided_value": value,
	})
}

// NewErrInvalidMaxSize creates an error for invalid max size
func NewErrInvalidMaxSize(size int) error {
	return errors.NewWithContext(ErrCodeInvalidMaxSize, msgInvalidMaxSize, map[string]interface{}{
		"provided_size":    size,
		"minimum_required": 1,
	})
}

// NewErrInvalidTTL creates an error for invalid TTL
func NewErrInvalidTTL(ttl time.Duration) error {
	return errors.NewWithContext(ErrCodeInvalidTTL, msgInvalidTTL, map[string]interface{}{
		"provided_ttl": ttl.String(),
	})
}

// NewErrInvalidPolicy creates an error for an unknown eviction policy
func NewErrInvalidPolicy(policy string) error {
	return errors.NewWithContext(ErrCodeInvalidPolicy, msgInvalidPolicy, map[string]interface{}{
		"provided_policy": policy,
		"valid_values":    "lru, lfu, fifo, ttl",
	})
}

// =============================================================================
// CACHE OPERATION ERRORS
// =============================================================================

// NewErrEmptyKey creates an error when key is empty
func NewErrEmptyKey(operation string) error {
	return errors.NewWithField(ErrCodeEmptyKey, msgEmptyKey, "operation", operation)
}

// NewErrKeyNotFound creates an error when key is not found
func NewErrKeyNotFound(key string) error {
	return errors.NewWithField(ErrCodeKeyNotFound, msgKeyNotFound, "key", key)
}

// NewErrInvalidPattern creates an error when an invalidation pattern does not compile
func NewErrInvalidPattern(pattern string, cause error) error {
	return errors.Wrap(cause, ErrCodeInvalidPattern, msgInvalidPattern).
		WithContext("pattern", pattern)
}

// =============================================================================
// LOADER ERRORS
// =============================================================================

// NewErrInvalidLoader creates an error when loader function is nil
func NewErrInvalidLoader(key string) error {
	return errors.NewWithField(ErrCodeInvalidLoader, msgInvalidLoader, "key", key)
}

// NewErrLoaderFailed creates an error when loader function fails
func NewErrLoaderFailed(key string, cause error) error {
	return errors.Wrap(cause, ErrCodeLoaderFailed, msgLoaderFailed).
		WithContext("key", key).
		AsRetryable()
}

// =============================================================================
// RESILIENCE ERRORS
// =============================================================================

// NewErrCircuitOpen creates an error when a breaker refuses a call
func NewErrCircuitOpen(breaker string) error {
	return errors.NewWithField(ErrCodeCircuitOpen, msgCircuitOpen, "breaker", breaker).
		AsRetryable() // Can be retried once the breaker timeout elapses
}

// NewErrRetryExhausted creates an error wrapping the last failure of a retry loop
func NewErrRetryExhausted(attempts int, cause error) error {
	return errors.Wrap(cause, ErrCodeRetryExhausted, msgRetryExhausted).
		WithContext("attempts", attempts)
}

// NewErrFallbackFailed creates an error when both the primary and the fallback failed
func NewErrFallbackFailed(primary, cause error) error {
	e := errors.Wrap(cause, ErrCodeFallbackFailed, msgFallbackFailed)
	if primary != nil {
		e = e.WithContext("primary_error", primary.Error())
	}
	return e
}

// NewErrOperationCancelled creates an error when the caller's context ends the operation
func NewErrOperationCancelled(operation string, cause error) error {
	return errors.Wrap(cause, ErrCodeOperationCancelled, msgOperationCancelled).
		WithContext("operation", operation)
}

// NewErrInvalidOperation creates an error when a nil operation is handed to a wrapper
func NewErrInvalidOperation(wrapper string) error {
	return errors.NewWithField(ErrCodeInvalidOperation, msgInvalidOperation, "wrapper", wrapper)
}

// =============================================================================
// INTERNAL ERRORS
// =============================================================================

// NewErrInternal creates a generic internal error
func NewErrInternal(operation string, cause error) error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeInternalError, msgInternalError).
			WithContext("operation", operation).
			WithSeverity("warning")
	}
	return errors.NewWithField(ErrCodeInternalError, msgInternalError, "operation", operation).
		WithSeverity("warning")
}

// NewErrPanicRecovered creates an error when a panic is recovered
func NewErrPanicRecovered(operation string, panicValue interface{}) error {
	return errors.NewWithContext(ErrCodePanicRecovered, msgPanicRecovered, map[string]interface{}{
		"operation":   operation,
		"panic_value": fmt.Sprintf("%v", panicValue),
	}).WithSeverity("critical")
}

// =============================================================================
// ERROR CHECKING HELPERS
// =============================================================================

// IsEmptyKey checks if error is an empty key error
func IsEmptyKey(err error) bool {
	return errors.HasCode(err, ErrCodeEmptyKey)
}

// IsNotFound checks if error is a key not found error
func IsNotFound(err error) bool {
	return errors.HasCode(err, ErrCodeKeyNotFound)
}

// IsCircuitOpen checks if error was produced by an open circuit breaker
func IsCircuitOpen(err error) bool {
	return errors.HasCode(err, ErrCodeCircuitOpen)
}

// IsRetryExhausted checks if error is the final failure of a retry loop
func IsRetryExhausted(err error) bool {
	return errors.HasCode(err, ErrCodeRetryExhausted)
}

// IsCancelled checks if error reports a cancelled operation
func IsCancelled(err error) bool {
	return errors.HasCode(err, ErrCodeOperationCancelled)
}

// IsConfigError checks if error is a configuration error
func IsConfigError(err error) bool {
	switch GetErrorCode(err) {
	case ErrCodeInvalidConfig, ErrCodeInvalidMaxSize, ErrCodeInvalidTTL, ErrCodeInvalidPolicy:
		return true
	}
	return false
}

// IsValidationError checks if error rejects caller input rather than reporting a failure
func IsValidationError(err error) bool {
	if IsConfigError(err) {
		return true
	}
	switch GetErrorCode(err) {
	case ErrCodeEmptyKey, ErrCodeInvalidPattern, ErrCodeInvalidLoader, ErrCodeInvalidOperation:
		return true
	}
	return false
}

// IsRetryable checks if the error can be retried
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var retryable errors.Retryable
	if goerrors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}

// GetErrorCode extracts the first error code found in the error chain
func GetErrorCode(err error) errors.ErrorCode {
	if err == nil {
		return ""
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		return coder.ErrorCode()
	}
	return ""
}

// GetErrorContext extracts context from an error
func GetErrorContext(err error) map[string]interface{} {
	if err == nil {
		return nil
	}
	var fortisErr *errors.Error
	if goerrors.As(err, &fortisErr) {
		return fortisErr.Context
	}
	return nil
}
