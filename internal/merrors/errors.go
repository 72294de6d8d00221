// Package merrors defines the structured error taxonomy used across the
// engine, dispatch and transport layers. It mirrors the code/severity/cause
// shape used elsewhere in this codebase so every layer reports errors the
// same way.
package merrors

import (
	"fmt"
	"runtime"
	"time"
)

// Code identifies the category of a MatchError.
type Code string

const (
	// Kind 2: invariant violations. These are programmer errors and are
	// never returned to a caller; they panic.
	CodeArenaCorruption   Code = "ARENA_CORRUPTION"
	CodeSlotOutOfRange    Code = "SLOT_OUT_OF_RANGE"
	CodeTopMismatch       Code = "TOP_PRICE_MISMATCH"

	// Kind 1: operation-level, expected, surfaced as a Failed result.
	CodeDuplicateID    Code = "DUPLICATE_ORDER_ID"
	CodeEmptyOppBook   Code = "EMPTY_OPPOSING_BOOK"
	CodeNoSuchOrder    Code = "ORDER_NOT_FOUND"
	CodeNoModification Code = "NO_MODIFICATION"

	// Kind 3: ingress validation.
	CodeValidation Code = "VALIDATION_FAILED"

	// Kind 4: back-pressure.
	CodeQueueFull Code = "QUEUE_FULL"

	// Kind 5: egress publish failure.
	CodeEgressPublish Code = "EGRESS_PUBLISH_FAILED"

	// Kind 6: startup.
	CodeStartup Code = "STARTUP_FAILED"
)

// Severity classifies how urgently an error needs attention.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// MatchError is the structured error type returned or logged by every
// component in this module.
type MatchError struct {
	Code      Code
	Message   string
	Severity  Severity
	Timestamp time.Time
	File      string
	Line      int
	Function  string
	Cause     error
}

func (e *MatchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (caused by: %v)", e.Code, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Severity, e.Message)
}

func (e *MatchError) Unwrap() error { return e.Cause }

// New creates a MatchError, capturing the caller's file/line/function.
func New(code Code, message string) *MatchError {
	pc, file, line, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	var funcName string
	if fn != nil {
		funcName = fn.Name()
	}
	return &MatchError{
		Code:      code,
		Message:   message,
		Severity:  severityFor(code),
		Timestamp: time.Now(),
		File:      file,
		Line:      line,
		Function:  funcName,
	}
}

// Newf creates a MatchError with a formatted message.
func Newf(code Code, format string, args ...interface{}) *MatchError {
	pc, file, line, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	var funcName string
	if fn != nil {
		funcName = fn.Name()
	}
	return &MatchError{
		Code:      code,
		Message:   fmt.Sprintf(format, args...),
		Severity:  severityFor(code),
		Timestamp: time.Now(),
		File:      file,
		Line:      line,
		Function:  funcName,
	}
}

// Wrap attaches a cause to a new MatchError.
func Wrap(err error, code Code, message string) *MatchError {
	if err == nil {
		return nil
	}
	m := New(code, message)
	m.Cause = err
	return m
}

func severityFor(code Code) Severity {
	switch code {
	case CodeArenaCorruption, CodeSlotOutOfRange, CodeTopMismatch, CodeStartup:
		return SeverityCritical
	case CodeEgressPublish, CodeQueueFull:
		return SeverityHigh
	case CodeDuplicateID, CodeEmptyOppBook, CodeNoSuchOrder, CodeNoModification:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Is reports whether err is a MatchError with the given code.
func Is(err error, code Code) bool {
	var me *MatchError
	if As(err, &me) {
		return me.Code == code
	}
	return false
}

// As finds the first MatchError in err's chain.
func As(err error, target **MatchError) bool {
	if err == nil {
		return false
	}
	if me, ok := err.(*MatchError); ok {
		*target = me
		return true
	}
	if u, ok := err.(interface{ Unwrap() error }); ok {
		return As(u.Unwrap(), target)
	}
	return false
}
