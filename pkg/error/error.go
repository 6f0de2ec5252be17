package error

import (
	"fmt"
	"runtime"
	"strings"
)

// ErrorCategory classifies errors by their nature and appropriate handling strategy.
// None of the categories are retryable: every operation either succeeds or the
// caller abandons it.
type ErrorCategory int

const (
	// ErrCategoryConfig represents relation parameters that cannot produce a usable layout.
	// Examples: a page-signature width that fits fewer than two signatures per page.
	ErrCategoryConfig ErrorCategory = iota

	// ErrCategorySchema represents input that does not fit the relation's schema.
	// Examples: a query with the wrong number of fields, a tuple too large to encode.
	ErrCategorySchema

	// ErrCategoryResource represents exhausted capacity.
	// Examples: page allocation failures, data pages beyond the bit-slice row width.
	ErrCategoryResource

	// ErrCategoryIO represents missing or unreadable files and short reads or writes.
	ErrCategoryIO

	// ErrCategoryData represents corrupted files or broken storage invariants.
	// Examples: bad metadata checksum, signature counts out of step with page counts.
	ErrCategoryData
)

// String returns the category name used in log output.
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryConfig:
		return "config"
	case ErrCategorySchema:
		return "schema"
	case ErrCategoryResource:
		return "resource"
	case ErrCategoryIO:
		return "io"
	case ErrCategoryData:
		return "data"
	default:
		return "unknown"
	}
}

// DBError represents a structured storage error with rich context information.
type DBError struct {
	// Code is a unique identifier for this error type (e.g., "SIGNATURE_SIZING", "SCHEMA_MISMATCH").
	Code string

	// Category classifies the error for appropriate handling strategy.
	Category ErrorCategory

	// Message is a human-readable description of what went wrong.
	Message string

	// Detail provides additional context about the specific error instance.
	// Example: "page signatures fit 1 per page" where Message might be "signature too wide".
	Detail string

	// Hint suggests how the user might fix or work around this error.
	Hint string

	// Operation identifies the operation that was being performed when the error occurred.
	// Examples: "Create", "Insert", "StartQuery".
	Operation string

	// Component identifies the system component where the error originated.
	// Examples: "relation", "query", "signature".
	Component string

	// Cause is the underlying error that triggered this error.
	Cause error

	// Stack contains the call stack where this error was created.
	Stack []uintptr
}

// New creates a new DBError with the specified code, category, and message.
func New(category ErrorCategory, code, message string) *DBError {
	return &DBError{
		Code:     code,
		Category: category,
		Message:  message,
		Stack:    captureStack(),
	}
}

// Wrap wraps an existing error with storage-specific context information.
// If the error is already a DBError, it enriches the existing error with
// operation and component context (only if not already set).
func Wrap(err error, code, operation, component string) *DBError {
	if err == nil {
		return nil
	}

	if dbErr, ok := err.(*DBError); ok {
		if dbErr.Operation == "" {
			dbErr.Operation = operation
		}
		if dbErr.Component == "" {
			dbErr.Component = component
		}
		return dbErr
	}

	return &DBError{
		Code:      code,
		Category:  ErrCategoryIO,
		Message:   err.Error(),
		Operation: operation,
		Component: component,
		Cause:     err,
		Stack:     captureStack(),
	}
}

// With returns a copy of a sentinel error carrying instance detail, the
// operation and component, and a fresh stack. The copy still matches the
// sentinel under errors.Is.
func (e *DBError) With(operation, component, format string, args ...any) *DBError {
	return &DBError{
		Code:      e.Code,
		Category:  e.Category,
		Message:   e.Message,
		Detail:    fmt.Sprintf(format, args...),
		Hint:      e.Hint,
		Operation: operation,
		Component: component,
		Stack:     captureStack(),
	}
}

// Because records the underlying cause on e and returns it.
func (e *DBError) Because(cause error) *DBError {
	e.Cause = cause
	return e
}

// captureStack captures the current call stack for debugging purposes.
// It skips the first 3 frames to exclude captureStack, New/Wrap, and the
// immediate caller, focusing on the actual error origin.
func captureStack() []uintptr {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	return pcs[0:n]
}

// Error implements the standard Go error interface
//
// The format follows the pattern:
// [ERROR_CODE] Message: Detail (operation: Operation, component: Component) caused by: underlying error
func (e *DBError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Detail != "" {
		b.WriteString(fmt.Sprintf(": %s", e.Detail))
	}

	if e.Operation != "" {
		b.WriteString(fmt.Sprintf(" (operation: %s", e.Operation))
		if e.Component != "" {
			b.WriteString(fmt.Sprintf(", component: %s", e.Component))
		}
		b.WriteString(")")
	}

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(" caused by: %v", e.Cause))
	}

	return b.String()
}

// Unwrap returns the underlying cause error, enabling error chain traversal
// with Go's standard error handling functions like errors.Is and errors.As.
func (e *DBError) Unwrap() error {
	return e.Cause
}

// Is matches any DBError carrying the same code.
func (e *DBError) Is(target error) bool {
	t, ok := target.(*DBError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// FormatStack returns a human-readable stack trace for debugging purposes.
func (e *DBError) FormatStack() string {
	if len(e.Stack) == 0 {
		return ""
	}

	var b strings.Builder
	frames := runtime.CallersFrames(e.Stack)

	b.WriteString("Stack trace:\n")
	for {
		f, more := frames.Next()
		b.WriteString(fmt.Sprintf("  %s\n    %s:%d\n",
			f.Function, f.File, f.Line))
		if !more {
			break
		}
	}

	return b.String()
}
