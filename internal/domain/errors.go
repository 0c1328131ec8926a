package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeConfiguration = "CONFIGURATION_ERROR"
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeTransient     = "PROVIDER_TRANSIENT"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Configuration errors are fatal and never retried.
var (
	ErrMissingAPIKey      = NewDomainError(ErrCodeConfiguration, "generation model API key not configured")
	ErrInvalidChunkConfig = NewDomainError(ErrCodeConfiguration, "segment overlap must be smaller than chunk size")
	ErrDimensionMismatch  = NewDomainError(ErrCodeConfiguration, "embedding dimension does not match index")
)

// Validation errors mark a single malformed record; the batch continues.
var (
	ErrInvalidCaseRecord = NewDomainError(ErrCodeValidation, "invalid case record")
)

// Not found errors
var (
	ErrCaseNotFound = NewDomainError(ErrCodeNotFound, "case not found")
)

// Transient provider errors get one bounded retry, then the caller's
// degraded path.
var (
	ErrProviderUnavailable = NewDomainError(ErrCodeTransient, "model provider unavailable")
)

// IsTransient reports whether err carries the transient provider code,
// anywhere in its chain.
func IsTransient(err error) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Code == ErrCodeTransient
}

// IsConfiguration reports whether err carries the configuration code,
// anywhere in its chain.
func IsConfiguration(err error) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Code == ErrCodeConfiguration
}
