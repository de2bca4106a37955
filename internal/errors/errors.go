// Package errors provides centralized error definitions for ttytest. It
// defines sentinel errors, semantic error types carrying context about the
// failed run or wait, and classification helpers.
//
// # Error Types
//
//   - TimeoutError: a wait did not observe its condition in time
//   - StderrError: a chunk arrived on stderr while escalation was enabled
//   - ProcessError: the child process could not be launched or controlled
//   - ValidationError: invalid options or configuration
//
// # Usage
//
//	err := errors.NewTimeoutError("wait for output", time.Second).
//	    WithTarget(`"ready"`).
//	    WithLastOutput("booting\n")
//
//	if errors.Is(err, errors.ErrTimeout) { ... }
//
//	var stderrErr *errors.StderrError
//	if errors.As(err, &stderrErr) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that abort the run.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Run-related sentinel errors
var (
	// ErrStderrOutput indicates that the child wrote to stderr while
	// escalation was enabled.
	ErrStderrOutput = New("output on stderr")
	// ErrHandleClosed indicates that the process handle was closed.
	ErrHandleClosed = New("handle closed")
)

// Process-related sentinel errors
var (
	// ErrProcessNotStarted indicates that an operation requires a started process.
	ErrProcessNotStarted = New("process not started")
	// ErrProcessAlreadyStarted indicates that the process was already started.
	ErrProcessAlreadyStarted = New("process already started")
	// ErrUnknownHelper indicates that a fork-mode command has no registered helper.
	ErrUnknownHelper = New("unknown helper")
	// ErrUnsupportedEncoding indicates that the requested text encoding is unknown.
	ErrUnsupportedEncoding = New("unsupported encoding")
)

// General sentinel errors
var (
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = New("operation canceled")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// TTYError is the base interface for all ttytest errors.
type TTYError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if re-issuing the operation may succeed.
	IsRetryable() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message   string
	cause     error
	severity  Severity
	retryable bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// -----------------------------------------------------------------------------
// Domain Errors
// -----------------------------------------------------------------------------

// StderrError is the fatal failure raised when a chunk arrives on stderr and
// the run escalates stderr output. Its message is exactly the chunk content.
type StderrError struct {
	baseError
	Command string
	Chunk   string
}

// NewStderrError creates a new StderrError for the given chunk.
func NewStderrError(chunk string) *StderrError {
	return &StderrError{
		baseError: baseError{
			message:  chunk,
			severity: SeverityCritical,
		},
		Chunk: chunk,
	}
}

// WithCommand records which command produced the chunk.
func (e *StderrError) WithCommand(command string) *StderrError {
	e.Command = command
	return e
}

// Error returns the chunk content.
func (e *StderrError) Error() string {
	return e.Chunk
}

// Is checks if this error matches the target.
func (e *StderrError) Is(target error) bool {
	if _, ok := target.(*StderrError); ok {
		return true
	}
	return target == ErrStderrOutput
}

// ProcessError represents a failure to launch or control the child process.
//
// Example:
//
//	err := errors.NewProcessError("start", execErr).WithCommand("ls").WithPID(42)
//	fmt.Println(err) // "process error [command=ls, pid=42]: start: exec: ..."
type ProcessError struct {
	baseError
	Command string
	PID     int
}

// NewProcessError creates a new ProcessError.
func NewProcessError(message string, cause error) *ProcessError {
	return &ProcessError{
		baseError: baseError{
			message:  message,
			cause:    cause,
			severity: SeverityError,
		},
	}
}

// WithCommand adds the command name to the error context.
func (e *ProcessError) WithCommand(command string) *ProcessError {
	e.Command = command
	return e
}

// WithPID adds the process ID to the error context.
func (e *ProcessError) WithPID(pid int) *ProcessError {
	e.PID = pid
	return e
}

// Error returns the formatted error message.
func (e *ProcessError) Error() string {
	var parts []string
	if e.Command != "" {
		parts = append(parts, fmt.Sprintf("command=%s", e.Command))
	}
	if e.PID > 0 {
		parts = append(parts, fmt.Sprintf("pid=%d", e.PID))
	}

	prefix := "process error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("process error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ProcessError) Is(target error) bool {
	if _, ok := target.(*ProcessError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("unknown stderr mode")
//	err = err.WithField("stderr.mode").WithValue("panic")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:  message,
			severity: SeverityWarning,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// TimeoutError represents a wait that did not observe its condition in time.
//
// Example:
//
//	err := errors.NewTimeoutError("wait for output", 50*time.Millisecond).
//	    WithTarget(`"ready"`).WithLastOutput("booting\n")
//	fmt.Println(err)
//	// timeout error: wait for output "ready" (timeout: 50ms), last output "booting\n"
type TimeoutError struct {
	baseError
	Operation  string
	Duration   time.Duration
	Target     string
	LastOutput string
	HasOutput  bool
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{
		baseError: baseError{
			message:   operation,
			severity:  SeverityWarning,
			retryable: true, // Timeouts are generally retryable
		},
		Operation: operation,
		Duration:  duration,
	}
}

// WithTarget records what the wait was looking for.
func (e *TimeoutError) WithTarget(target string) *TimeoutError {
	e.Target = target
	return e
}

// WithLastOutput records the last chunk observed before the timeout.
func (e *TimeoutError) WithLastOutput(chunk string) *TimeoutError {
	e.LastOutput = chunk
	e.HasOutput = true
	return e
}

// WithCause adds a cause to the error.
func (e *TimeoutError) WithCause(cause error) *TimeoutError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *TimeoutError) Error() string {
	op := e.Operation
	if e.Target != "" {
		op = fmt.Sprintf("%s %s", op, e.Target)
	}
	base := fmt.Sprintf("timeout error: %s (timeout: %s)", op, e.Duration)
	if e.HasOutput {
		base = fmt.Sprintf("%s, last output %q", base, e.LastOutput)
	} else if e.Target != "" {
		base += ", no output"
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", base, e.cause)
	}
	return base
}

// Is checks if this error matches the target.
func (e *TimeoutError) Is(target error) bool {
	if _, ok := target.(*TimeoutError); ok {
		return true
	}
	if errors.Is(target, ErrTimeout) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry, such as a wait timeout.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var ttyErr TTYError
	if As(err, &ttyErr) {
		return ttyErr.IsRetryable()
	}

	return Is(err, ErrTimeout)
}

// IsFatal returns true if the error aborts the whole run.
func IsFatal(err error) bool {
	return GetSeverity(err) == SeverityCritical
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement TTYError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var ttyErr TTYError
	if As(err, &ttyErr) {
		return ttyErr.Severity()
	}

	return SeverityError
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
