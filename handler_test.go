// handler_test.go: tests for the error handler
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package fortis

import (
	goerrors "errors"
	"testing"
)

type panickingLogger struct{}

func (panickingLogger) Debug(msg string, keyvals ...interface{}) { panic("debug sink closed") }
func (panickingLogger) Info(msg string, keyvals ...interface{})  { panic("info sink closed") }
func (panickingLogger) Warn(msg string, keyvals ...interface{})  { panic("warn sink closed") }
func (panickingLogger) Error(msg string, keyvals ...interface{}) { panic("error sink closed") }

func TestErrorHandler_LevelBySeverity(t *testing.T) {
	tests := []struct {
		severity Severity
		level    string
	}{
		{SeverityLow, "debug"},
		{SeverityMedium, "warn"},
		{SeverityHigh, "error"},
		{SeverityCritical, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.severity.String(), func(t *testing.T) {
			logger := &recordingLogger{}
			h := NewErrorHandler(logger)

			ae := NewAppError(KindUnknown, "failure", goerrors.New("x")).WithSeverity(tt.severity)
			if got := h.Handle(ae); got != ae {
				t.Error("Handle must return the classified error")
			}
			if len(logger.records) != 1 || logger.records[0].level != tt.level {
				t.Errorf("records = %+v, want one %s line", logger.records, tt.level)
			}
		})
	}
}

func TestErrorHandler_NeverPanics(t *testing.T) {
	h := NewErrorHandler(panickingLogger{})

	for _, sev := range []Severity{SeverityLow, SeverityMedium, SeverityHigh} {
		ae := h.Handle(NewAppError(KindNetwork, "x", nil).WithSeverity(sev))
		if ae == nil {
			t.Fatal("Handle must still return the error")
		}
	}
}

func TestErrorHandler_Nil(t *testing.T) {
	h := NewErrorHandler(nil)
	if h.Handle(nil) != nil {
		t.Error("Handle(nil) must return nil")
	}

	ae := h.Handle(goerrors.New("plain"))
	if ae == nil || ae.Kind != KindUnknown {
		t.Errorf("plain error classified as %+v", ae)
	}
}
