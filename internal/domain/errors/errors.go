package errors

import (
	"errors"
	"fmt"
)

var (
	// Course errors
	ErrCourseNotFound     = errors.New("course not found")
	ErrCourseNotPublished = errors.New("course is not published")
	ErrCourseNotPremium   = errors.New("course is free, no payment required")

	// User errors
	ErrUserNotFound = errors.New("user not found")

	// Payment errors
	ErrPaymentNotFound        = errors.New("payment record not found")
	ErrAlreadyEnrolled        = errors.New("already enrolled in this course")
	ErrAlreadyPurchased       = errors.New("course already purchased")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrValidationRejected     = errors.New("gateway rejected payment validation")

	// Gateway errors
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrGatewayInitFailed  = errors.New("payment gateway init failed")

	// Enrollment errors
	ErrEnrollmentNotFound = errors.New("enrollment not found")

	// Auth errors
	ErrUnauthorized = errors.New("unauthorized")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")
)

// DomainError wraps errors with additional context
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
