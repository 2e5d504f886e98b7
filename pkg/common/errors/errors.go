package errors

import (
	"errors"
	"fmt"
)

// Common error types used across the gotick library

var (
	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrUnboundTask indicates an instant submission through a task that has
	// no owning scheduler
	ErrUnboundTask = errors.New("task is not bound to a scheduler")

	// ErrNotRunning indicates a submission while the scheduler is not running
	ErrNotRunning = errors.New("scheduler is not running")

	// ErrShutdown indicates that an operation was attempted after shutdown
	ErrShutdown = errors.New("executor has been shut down")

	// ErrNotSerializable indicates a payload that cannot cross the process
	// boundary of an isolated-memory executor
	ErrNotSerializable = errors.New("payload is not serializable")
)

// IsConfiguration returns true if the error was raised at construction time
// due to invalid parameters
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration)
}

// IsSubmission returns true if the error indicates that an executor backend
// rejected or failed to accept a payload
func IsSubmission(err error) bool {
	return errors.Is(err, ErrShutdown) || errors.Is(err, ErrNotSerializable)
}

// ValidationError describes an invalid configuration value. It wraps
// ErrInvalidConfiguration so callers can match the whole class with errors.Is.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string
}

// NewValidationError creates a validation error for the given module field.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint attaches a remediation hint and returns the same error for chaining.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s (%v): %s", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

// Unwrap makes the error match ErrInvalidConfiguration.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// OperationError describes a failed runtime operation with its originating
// module and operation name.
type OperationError struct {
	Module    string
	Operation string
	Cause     error
	Context   string
}

// NewOperationError creates an operation error wrapping cause.
func NewOperationError(module, operation string, cause error) *OperationError {
	return &OperationError{
		Module:    module,
		Operation: operation,
		Cause:     cause,
	}
}

// WithContext attaches extra context and returns the same error for chaining.
func (e *OperationError) WithContext(context string) *OperationError {
	e.Context = context
	return e
}

func (e *OperationError) Error() string {
	msg := fmt.Sprintf("%s.%s failed: %v", e.Module, e.Operation, e.Cause)
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *OperationError) Unwrap() error {
	return e.Cause
}
