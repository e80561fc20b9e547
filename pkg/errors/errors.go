// Package errors provides coded error types for shwrap. Every failure raised by
// the wrapper core, the artifact store or the CLI carries a code, an optional
// suggestion, a context map and a short stack so the CLI can render it well.
package errors

import (
	stderrors "errors"
	"runtime"
	"strings"
)

// ErrorCode categorizes errors for handling
type ErrorCode string

const (
	// Input validation
	ErrInvalidInput      ErrorCode = "INVALID_INPUT"
	ErrInvalidEnvName    ErrorCode = "INVALID_ENV_NAME"
	ErrInvalidDependency ErrorCode = "INVALID_DEPENDENCY"

	// Artifact store
	ErrVerifyFailed     ErrorCode = "VERIFY_FAILED"
	ErrStoreIO          ErrorCode = "STORE_IO"
	ErrArtifactNotFound ErrorCode = "ARTIFACT_NOT_FOUND"

	// Configuration
	ErrInvalidConfig ErrorCode = "INVALID_CONFIG"
	ErrMissingConfig ErrorCode = "MISSING_CONFIG"

	ErrUnknown ErrorCode = "UNKNOWN"
)

// StackFrame represents a single stack frame
type StackFrame struct {
	Function string `json:"function"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}

// ShwrapError is the base error type with rich context
type ShwrapError struct {
	Code        ErrorCode         `json:"code"`
	Message     string            `json:"message"`
	Details     string            `json:"details,omitempty"`
	Suggestion  string            `json:"suggestion,omitempty"`
	Cause       error             `json:"-"`
	Context     map[string]string `json:"context,omitempty"`
	Recoverable bool              `json:"recoverable"`
	Stack       []StackFrame      `json:"stack,omitempty"`
}

// Error implements the error interface
func (e *ShwrapError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	if e.Details != "" {
		sb.WriteString("\n")
		sb.WriteString(e.Details)
	}
	if e.Cause != nil {
		sb.WriteString("\nCaused by: ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *ShwrapError) Unwrap() error { return e.Cause }

// Is matches another *ShwrapError by code, so sentinel-style checks such as
// errors.Is(err, errors.New(ErrVerifyFailed, "")) work through wrapping.
func (e *ShwrapError) Is(target error) bool {
	t, ok := target.(*ShwrapError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithSuggestion adds a suggestion for fixing the error
func (e *ShwrapError) WithSuggestion(suggestion string) *ShwrapError {
	e.Suggestion = suggestion
	return e
}

// WithContext adds contextual information
func (e *ShwrapError) WithContext(key, value string) *ShwrapError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithCause wraps another error
func (e *ShwrapError) WithCause(cause error) *ShwrapError {
	e.Cause = cause
	return e
}

// WithDetails adds detailed information
func (e *ShwrapError) WithDetails(details string) *ShwrapError {
	e.Details = details
	return e
}

// New creates a new ShwrapError
func New(code ErrorCode, message string) *ShwrapError {
	err := &ShwrapError{
		Code:        code,
		Message:     message,
		Recoverable: isRecoverable(code),
		Context:     make(map[string]string),
	}
	err.captureStack()
	err.Suggestion = getDefaultSuggestion(code)
	return err
}

// Wrap wraps a standard error with ShwrapError. An error that already is a
// ShwrapError keeps its code and gets the message prepended.
func Wrap(err error, code ErrorCode, message string) *ShwrapError {
	if err == nil {
		return nil
	}
	var se *ShwrapError
	if stderrors.As(err, &se) {
		if message != "" {
			se.Message = message + ": " + se.Message
		}
		return se
	}
	return New(code, message).WithCause(err)
}

// CodeOf returns the code of the first ShwrapError in err's chain, or
// ErrUnknown.
func CodeOf(err error) ErrorCode {
	var se *ShwrapError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ErrUnknown
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// captureStack captures the current stack trace
func (e *ShwrapError) captureStack() {
	const maxFrames = 10
	pc := make([]uintptr, maxFrames)
	n := runtime.Callers(3, pc) // Skip runtime.Callers, captureStack, New/Wrap
	frames := runtime.CallersFrames(pc[:n])
	for {
		frame, more := frames.Next()
		if strings.Contains(frame.File, "runtime/") || strings.Contains(frame.File, "testing/") {
			if !more {
				break
			}
			continue
		}
		e.Stack = append(e.Stack, StackFrame{
			Function: frame.Function,
			File:     frame.File,
			Line:     frame.Line,
		})
		if !more {
			break
		}
	}
}

// isRecoverable determines if an error can be automatically recovered
func isRecoverable(code ErrorCode) bool {
	switch code {
	case ErrStoreIO:
		return true
	default:
		return false
	}
}

// getDefaultSuggestion provides default fix suggestions
func getDefaultSuggestion(code ErrorCode) string {
	suggestions := map[ErrorCode]string{
		ErrInvalidInput:      "Check the wrapper options: shwrap help",
		ErrInvalidEnvName:    "Environment names must start with a letter and contain only letters, digits and underscores",
		ErrInvalidDependency: "Dependencies must be store artifacts or directories containing bin/",
		ErrVerifyFailed:      "Make sure the wrapped executable and the shell exist and are executable",
		ErrStoreIO:           "Check that the store directory is writable: shwrap doctor",
		ErrArtifactNotFound:  "List known artifacts: shwrap store list",
		ErrInvalidConfig:     "Fix the manifest and retry",
		ErrMissingConfig:     "Pass a manifest path: shwrap build <manifest.yaml>",
	}
	if s, ok := suggestions[code]; ok {
		return s
	}
	return "Run 'shwrap doctor' for diagnostics"
}
