// handler.go: classification and severity-proportional logging of failures
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package fortis

// ErrorHandler classifies failures and logs them at a level proportional to
// their severity. Logging never panics into the caller.
type ErrorHandler struct {
	logger Logger
}

// NewErrorHandler creates an error handler. A nil logger discards output.
func NewErrorHandler(logger Logger) *ErrorHandler {
	if logger == nil {
		logger = NoOpLogger{}
	}
	return &ErrorHandler{logger: logger}
}

// Handle classifies err, logs it and returns the classified error.
// Returns nil for a nil error.
func (h *ErrorHandler) Handle(err error) *AppError {
	ae := Classify(err)
	if ae == nil {
		return nil
	}
	h.log(ae)
	return ae
}

// log writes ae at Debug (LOW), Warn (MEDIUM) or Error (HIGH, CRITICAL).
// A panicking logger is recovered.
func (h *ErrorHandler) log(ae *AppError) {
	defer func() {
		_ = recover()
	}()

	keyvals := []interface{}{
		"kind", ae.Kind.String(),
		"severity", ae.Severity.String(),
		"recovery", ae.Recovery.String(),
	}
	if code := ae.ErrorCode(); code != "" {
		keyvals = append(keyvals, "code", string(code))
	}
	if ae.MaxRetries > 0 {
		keyvals = append(keyvals, "retry_count", ae.RetryCount, "max_retries", ae.MaxRetries)
	}
	if ae.Cause != nil {
		keyvals = append(keyvals, "error", ae.Cause.Error())
	}

	switch ae.Severity {
	case SeverityLow:
		h.logger.Debug(ae.Message, keyvals...)
	case SeverityMedium:
		h.logger.Warn(ae.Message, keyvals...)
	default:
		h.logger.Error(ae.Message, keyvals...)
	}
}
