package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrNotFound indicates that a requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that the input data is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrServiceUnavailable indicates that a backing service was not configured
	// at startup and cannot serve the request.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrUpstream indicates that an external API call failed.
	ErrUpstream = errors.New("upstream failure")
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Unwrap returns ErrInvalidInput so callers can use errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NotFoundError provides details about a not found entity.
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// ExternalAPIError provides details about a non-success response from an external API.
type ExternalAPIError struct {
	Source     string
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *ExternalAPIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Source, e.StatusCode, e.Message)
}

// Unwrap returns the underlying cause error, or ErrUpstream when there is none.
func (e *ExternalAPIError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return ErrUpstream
}

// LookupError wraps any failure of a paper lookup. The cause is kept for
// logging; callers only branch on ErrNotFound.
type LookupError struct {
	Op    string
	Cause error
}

// Error implements the error interface.
func (e *LookupError) Error() string {
	return fmt.Sprintf("paper lookup %s failed: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *LookupError) Unwrap() error {
	return e.Cause
}

// UnavailableError reports that a capability was not initialized at startup.
// Hint, when set, tells the operator how to enable it.
type UnavailableError struct {
	Service string
	Hint    string
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s not available - %s", e.Service, e.Hint)
	}
	return fmt.Sprintf("%s not available", e.Service)
}

// Unwrap returns ErrServiceUnavailable.
func (e *UnavailableError) Unwrap() error {
	return ErrServiceUnavailable
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{
		Entity: entity,
		ID:     id,
	}
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewExternalAPIError creates a new ExternalAPIError.
func NewExternalAPIError(source string, statusCode int, message string, cause error) *ExternalAPIError {
	return &ExternalAPIError{
		Source:     source,
		StatusCode: statusCode,
		Message:    message,
		Cause:      cause,
	}
}

// NewLookupError wraps cause as a LookupError for the named operation.
func NewLookupError(op string, cause error) *LookupError {
	return &LookupError{Op: op, Cause: cause}
}

// NewUnavailableError creates a new UnavailableError.
func NewUnavailableError(service, hint string) *UnavailableError {
	return &UnavailableError{Service: service, Hint: hint}
}
