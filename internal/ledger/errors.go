// errors.go: ledger error codes
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package ledger

import (
	"context"
	goerrors "errors"
	"strings"

	"github.com/agilira/fortis"
	"github.com/agilira/go-errors"
)

const (
	ErrCodeNotFound     errors.ErrorCode = "LEDGER_NOT_FOUND"
	ErrCodeInvalidInput errors.ErrorCode = "LEDGER_INVALID_INPUT"
	ErrCodeStorage      errors.ErrorCode = "LEDGER_STORAGE"
	ErrCodeNoSnapshot   errors.ErrorCode = "LEDGER_NO_SNAPSHOT"
)

// notFound reports a missing record. It is aborted, never retried or
// served from a snapshot.
func notFound(entity, id string) error {
	cause := errors.NewWithContext(ErrCodeNotFound, entity+" not found", map[string]interface{}{
		"entity": entity,
		"id":     id,
	})
	ae := fortis.NewAppError(fortis.KindBusinessLogic, entity+" not found", cause)
	ae.Recovery = fortis.RecoveryAbort
	return ae
}

func invalidInput(field string, value interface{}) error {
	cause := errors.NewWithContext(ErrCodeInvalidInput, "invalid "+field, map[string]interface{}{
		"field":          field,
		"provided_value": value,
	})
	return fortis.NewAppError(fortis.KindValidation, "invalid "+field, cause)
}

// storageError wraps a database failure as a medium severity storage
// error, which lets Execute serve a snapshot. Busy databases are retried.
func storageError(operation string, err error) error {
	if goerrors.Is(err, context.Canceled) || goerrors.Is(err, context.DeadlineExceeded) {
		return err
	}
	cause := errors.Wrap(err, ErrCodeStorage, "ledger storage failure").
		WithContext("operation", operation)
	ae := fortis.NewAppError(fortis.KindStorage, "ledger "+operation+" failed", cause).
		WithSeverity(fortis.SeverityMedium)
	if isBusy(err) {
		ae.Recovery = fortis.RecoveryRetry
	}
	return ae
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

func errNoSnapshot(key string) error {
	return errors.Wrap(fortis.NewErrKeyNotFound(key), ErrCodeNoSnapshot, "no snapshot available").
		WithContext("key", key)
}

// IsNotFound checks if err reports a missing account or transaction.
func IsNotFound(err error) bool {
	return fortis.GetErrorCode(err) == ErrCodeNotFound
}

// IsInvalidInput checks if err rejects a request field.
func IsInvalidInput(err error) bool {
	return fortis.GetErrorCode(err) == ErrCodeInvalidInput
}
