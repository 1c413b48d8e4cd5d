// Package domain defines domain-specific errors.
// These errors represent pipeline failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that components can return.
var (
	// ErrNotInitialized is returned when an operation is attempted on an uninitialized component.
	ErrNotInitialized = errors.New("component not initialized")

	// ErrAlreadyInitialized is returned when attempting to initialize an already initialized component.
	ErrAlreadyInitialized = errors.New("component already initialized")

	// ErrAlreadyRunning is returned when starting something that is already running.
	ErrAlreadyRunning = errors.New("already running")

	// ErrNotRunning is returned when stopping something that is not running.
	ErrNotRunning = errors.New("not running")

	// ErrInvalidChipCount is returned when an engine reports a chip count outside 1-3.
	ErrInvalidChipCount = errors.New("invalid chip count: must be between 1 and 3")

	// ErrInvalidChannelCount is returned when a channel count is neither mono nor stereo.
	ErrInvalidChannelCount = errors.New("invalid channel count: must be 1 or 2")

	// ErrInvalidLength is returned when a buffer length is zero or negative.
	ErrInvalidLength = errors.New("invalid length: must be greater than zero")

	// ErrMissingChipBuffer is returned when an engine exposes fewer buffers than chips.
	ErrMissingChipBuffer = errors.New("engine did not provide a buffer for every chip")

	// ErrInvalidVoice is returned when a chip is given more than three voices or an attenuation above 15.
	ErrInvalidVoice = errors.New("invalid voice: at most 3 per chip, attenuation 0-15")

	// ErrFormatMismatch is returned when the output and the engine disagree on the channel layout.
	ErrFormatMismatch = errors.New("output format does not match engine format")
)

// EngineError represents an error from a synthesis engine or audio output.
// This wraps low-level library errors with additional context.
type EngineError struct {
	Op      string // Operation that failed (e.g., "open", "play", "close")
	Code    int    // Error code from an underlying library
	Message string // Error message
	Err     error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("engine %s failed: %s (code: %d): %v", e.Op, e.Message, e.Code, e.Err)
	}
	return fmt.Sprintf("engine %s failed: %s (code: %d)", e.Op, e.Message, e.Code)
}

// Unwrap returns the underlying error.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// NewEngineError creates a new EngineError.
func NewEngineError(op string, code int, message string, err error) *EngineError {
	return &EngineError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string // Field that failed validation
	Value   any    // Value that failed validation
	Message string // Error message
	Err     error  // Sentinel the failure maps to (if any)
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// Unwrap returns the sentinel error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value any, err error) *ValidationError {
	msg := "invalid value"
	if err != nil {
		msg = err.Error()
	}
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: msg,
		Err:     err,
	}
}

// ServiceError represents an error from a service layer operation.
type ServiceError struct {
	Service string // Service name (e.g., "PlaybackService")
	Op      string // Operation that failed
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("service %s.%s failed: %s", e.Service, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, op, message string, err error) *ServiceError {
	return &ServiceError{
		Service: service,
		Op:      op,
		Message: message,
		Err:     err,
	}
}
