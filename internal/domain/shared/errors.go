// Package shared contains common domain types, errors, and events that are
// used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation    = errors.New("validation error")
	ErrInvalidID     = errors.New("invalid ID")
	ErrInvalidInput  = errors.New("invalid input")
	ErrEmptyValue    = errors.New("value cannot be empty")
	ErrNegativeValue = errors.New("value cannot be negative")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrOperationDenied = errors.New("operation denied")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "transcript", "planner", "advisor"
	Op      string // Operation that failed, e.g., "UpdateCourse", "Suggest"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Transcript domain errors
var (
	ErrSemesterNotFound  = NewDomainError("transcript", "Find", ErrNotFound, "semester not found")
	ErrCourseNotFound    = NewDomainError("transcript", "Find", ErrNotFound, "course not found")
	ErrEmptySemesterName = NewDomainError("transcript", "Rename", ErrEmptyValue, "semester name cannot be empty")
	ErrLastSemester      = NewDomainError("transcript", "DeleteSemester", ErrOperationDenied, "cannot delete the only semester")
	ErrLastCourse        = NewDomainError("transcript", "DeleteCourse", ErrOperationDenied, "cannot delete the only course in a semester")
)

// Advisor domain errors
var (
	ErrNoGradedCourses = NewDomainError("advisor", "Suggest", ErrValidation, "add at least one graded course before requesting a suggestion")
	ErrAdvisorFailed   = NewDomainError("advisor", "Suggest", ErrExternalService, "advisory service is unavailable")
)
