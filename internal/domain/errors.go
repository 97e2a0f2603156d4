package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrUnauthorized ErrorCode = "UNAUTHORIZED"

	// Frontend specific errors
	ErrNetwork    ErrorCode = "NETWORK_ERROR"
	ErrPermission ErrorCode = "PERMISSION_ERROR"
	ErrValidation ErrorCode = "VALIDATION_ERROR"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
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

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
	})
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Helper functions for common errors
func NewNotFoundError(message string) *DomainError {
	return NewError(ErrNotFound, message, nil)
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(ErrInvalidInput, message, nil)
}

func NewInternalError(message string, err error) *DomainError {
	return NewError(ErrInternal, message, err)
}

func NewUnauthorizedError(message string) *DomainError {
	return NewError(ErrUnauthorized, message, nil)
}

// NewNetworkError wraps a failed backend round trip: transport failure,
// non-success status or an undecodable body.
func NewNetworkError(operation string, err error) *DomainError {
	return NewError(ErrNetwork, operation+" failed", err)
}

// NewPermissionError reports that a camera stream could not be acquired.
func NewPermissionError(err error) *DomainError {
	return NewError(ErrPermission, "camera access denied or unavailable", err)
}

// NewActionDisabledError is returned when a disabled action is triggered anyway
// (submit without all answers, upload without an image, ...).
func NewActionDisabledError(message string) *DomainError {
	return NewError(ErrValidation, message, nil)
}

// HasCode reports whether err is a DomainError carrying code.
func HasCode(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// ValidationError describes a single invalid field of a record.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every invalid field of a record.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, v := range e {
		parts = append(parts, v.Error())
	}
	return strings.Join(parts, "; ")
}

func NewMissingFieldError(field string) ValidationError {
	return ValidationError{Field: field, Message: "is required"}
}

func NewDuplicateValueError(field, value string) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf("duplicate value %q", value)}
}

func NewInvalidFormatError(field, value string) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf("invalid format %q", value)}
}

func NewOutOfRangeError(field string, value, lo, hi int64) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf("%d is out of range [%d, %d]", value, lo, hi)}
}
