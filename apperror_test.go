// apperror_test.go: tests for the failure taxonomy
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
	"os"
	"strings"
	"testing"
)

func TestDefaultTable(t *testing.T) {
	tests := []struct {
		kind     ErrorKind
		severity Severity
		recovery RecoveryStrategy
	}{
		{KindNetwork, SeverityMedium, RecoveryRetry},
		{KindStorage, SeverityHigh, RecoveryManualIntervention},
		{KindValidation, SeverityLow, RecoveryIgnore},
		{KindSecurity, SeverityCritical, RecoveryAbort},
		{KindBusinessLogic, SeverityMedium, RecoveryFallback},
		{KindUnknown, SeverityHigh, RecoveryAbort},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			ae := NewAppError(tt.kind, "failure", nil)
			if ae.Severity != tt.severity {
				t.Errorf("severity = %v, want %v", ae.Severity, tt.severity)
			}
			if ae.Recovery != tt.recovery {
				t.Errorf("recovery = %v, want %v", ae.Recovery, tt.recovery)
			}
			if ae.Timestamp.IsZero() {
				t.Error("timestamp must be set")
			}
		})
	}
}

func TestStorageRecoveryBySeverity(t *testing.T) {
	tests := map[Severity]RecoveryStrategy{
		SeverityLow:      RecoveryFallback,
		SeverityMedium:   RecoveryFallback,
		SeverityHigh:     RecoveryManualIntervention,
		SeverityCritical: RecoveryAbort,
	}
	for sev, want := range tests {
		ae := NewAppError(KindStorage, "disk", nil).WithSeverity(sev)
		if ae.Recovery != want {
			t.Errorf("STORAGE/%v recovery = %v, want %v", sev, ae.Recovery, want)
		}
	}
}

func TestAppError_WithSeverityCopies(t *testing.T) {
	orig := NewAppError(KindStorage, "disk", nil)
	changed := orig.WithSeverity(SeverityLow)

	if orig.Severity != SeverityHigh {
		t.Error("WithSeverity must not modify the receiver")
	}
	if changed.Severity != SeverityLow || changed.Recovery != RecoveryFallback {
		t.Errorf("unexpected copy: %v/%v", changed.Severity, changed.Recovery)
	}
}

func TestAppError_Surfaced(t *testing.T) {
	for sev, want := range map[Severity]bool{
		SeverityLow: false, SeverityMedium: false, SeverityHigh: true, SeverityCritical: true,
	} {
		ae := NewAppError(KindUnknown, "x", nil).WithSeverity(sev)
		if ae.Surfaced() != want {
			t.Errorf("%v.Surfaced() = %v, want %v", sev, ae.Surfaced(), want)
		}
	}
}

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := goerrors.New("connection refused")
	ae := NewAppError(KindNetwork, "fetch accounts", cause)

	msg := ae.Error()
	for _, part := range []string{"fetch accounts", "NETWORK", "MEDIUM", "connection refused"} {
		if !strings.Contains(msg, part) {
			t.Errorf("Error() = %q, missing %q", msg, part)
		}
	}
	if !goerrors.Is(ae, cause) {
		t.Error("Unwrap must expose the cause")
	}
	if !ae.IsRetryable() {
		t.Error("NETWORK failures are retryable")
	}

	bare := NewAppError(KindValidation, "bad input", nil)
	if bare.Error() != "bad input [VALIDATION/LOW]" {
		t.Errorf("Error() = %q", bare.Error())
	}
	if bare.ErrorCode() != "" {
		t.Error("no cause, no code")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		kind     ErrorKind
		recovery RecoveryStrategy
	}{
		{"deadline", context.DeadlineExceeded, KindNetwork, RecoveryRetry},
		{"net error", fmt.Errorf("dial: %w", netErr{}), KindNetwork, RecoveryRetry},
		{"permission", fmt.Errorf("open: %w", fs.ErrPermission), KindSecurity, RecoveryAbort},
		{"path error", &os.PathError{Op: "read", Path: "/data", Err: goerrors.New("io")}, KindStorage, RecoveryManualIntervention},
		{"not exist", fs.ErrNotExist, KindStorage, RecoveryManualIntervention},
		{"empty key", NewErrEmptyKey("Put"), KindValidation, RecoveryIgnore},
		{"invalid pattern", NewErrInvalidPattern("(", goerrors.New("x")), KindValidation, RecoveryIgnore},
		{"circuit open", NewErrCircuitOpen("db"), KindBusinessLogic, RecoveryFallback},
		{"retryable code", NewErrLoaderFailed("k", goerrors.New("x")), KindNetwork, RecoveryRetry},
		{"canceled", context.Canceled, KindUnknown, RecoveryAbort},
		{"cancelled code", NewErrOperationCancelled("op", context.DeadlineExceeded), KindNetwork, RecoveryAbort},
		{"plain", goerrors.New("boom"), KindUnknown, RecoveryAbort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ae := Classify(tt.err)
			if ae.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", ae.Kind, tt.kind)
			}
			if ae.Recovery != tt.recovery {
				t.Errorf("recovery = %v, want %v", ae.Recovery, tt.recovery)
			}
			if !goerrors.Is(ae, tt.err) {
				t.Error("classified error must wrap the original")
			}
		})
	}
}

func TestClassify_KeepsAppError(t *testing.T) {
	if Classify(nil) != nil {
		t.Fatal("Classify(nil) must be nil")
	}

	ae := NewAppError(KindSecurity, "token rejected", nil)
	wrapped := fmt.Errorf("handler: %w", ae)
	if Classify(wrapped) != ae {
		t.Error("an AppError in the chain must be returned as is")
	}
}

func TestClassify_PanicIsCritical(t *testing.T) {
	ae := Classify(NewErrPanicRecovered("op", "nil map"))
	if ae.Severity != SeverityCritical || ae.Recovery != RecoveryAbort {
		t.Errorf("panic classified %v/%v, want CRITICAL/ABORT", ae.Severity, ae.Recovery)
	}
	if ae.Message != msgPanicRecovered {
		t.Errorf("message = %q, want the coded error message", ae.Message)
	}
}

func TestEnumStrings(t *testing.T) {
	if KindBusinessLogic.String() != "BUSINESS_LOGIC" || ErrorKind(99).String() != "UNKNOWN" {
		t.Error("ErrorKind.String")
	}
	if SeverityCritical.String() != "CRITICAL" || SeverityLow.String() != "LOW" {
		t.Error("Severity.String")
	}
	if RecoveryManualIntervention.String() != "MANUAL_INTERVENTION" || RecoveryAbort.String() != "ABORT" {
		t.Error("RecoveryStrategy.String")
	}
}
