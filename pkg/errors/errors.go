// Package errors provides structured error handling for the i94dw pipeline.
//
// Every fatal condition the pipeline can hit is an *Error carrying an
// ErrorType, so callers can branch on the category with IsType instead of
// string matching:
//
//	if errors.IsType(err, errors.ErrorTypeCast) {
//	    // a raw value could not be converted to its target type
//	}
//
// IncompleteTableWarning is the one non-fatal category; it is reported by
// the quality checker and never returned from a stage.
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeInternal represents internal system errors
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeFile represents file and object-storage errors
	ErrorTypeFile ErrorType = "file"
	// ErrorTypeConnection represents connection errors
	ErrorTypeConnection ErrorType = "connection"
	// ErrorTypeCast represents a raw value that cannot be converted to its target type
	ErrorTypeCast ErrorType = "cast"
	// ErrorTypeMissingColumn represents a projection over an absent column
	ErrorTypeMissingColumn ErrorType = "missing_column"
	// ErrorTypeDatabase represents a failed DDL/DML statement
	ErrorTypeDatabase ErrorType = "database"
	// ErrorTypeIncomplete represents a produced table with zero rows
	ErrorTypeIncomplete ErrorType = "incomplete_table"
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with a formatted message
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// Cast reports a value that cannot be converted to target.
func Cast(value interface{}, target string) *Error {
	e := &Error{
		Type:    ErrorTypeCast,
		Message: fmt.Sprintf("cannot cast %#v to %s", value, target),
		Stack:   captureStack(2),
	}
	return e.WithDetail("value", value).WithDetail("target", target)
}

// MissingColumn reports a column absent from table.
func MissingColumn(table, column string) *Error {
	e := &Error{
		Type:    ErrorTypeMissingColumn,
		Message: fmt.Sprintf("column %q not found in table %q", column, table),
		Stack:   captureStack(2),
	}
	return e.WithDetail("table", table).WithDetail("column", column)
}

// Database wraps a failed statement against the warehouse.
func Database(err error, table, statement string) *Error {
	if err == nil {
		return nil
	}
	e := &Error{
		Type:    ErrorTypeDatabase,
		Message: fmt.Sprintf("%s failed for table %s", statement, table),
		Cause:   err,
		Stack:   captureStack(2),
	}
	return e.WithDetail("table", table).WithDetail("statement", statement)
}

// IncompleteTable is the warning raised for a table with no rows.
func IncompleteTable(table string) *Error {
	e := &Error{
		Type:    ErrorTypeIncomplete,
		Message: fmt.Sprintf("The %s table is not complete", table),
	}
	return e.WithDetail("table", table)
}

// IsType checks if the error is of the given type
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// Is and As re-export the standard library helpers so callers need a single import.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target interface{}) bool { return errors.As(err, target) }

// captureStack captures the current call stack
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
