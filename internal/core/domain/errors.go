package domain

import (
	"errors"
	"strings"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrCriteriaRequired indicates a search request carries no usable criterion
	ErrCriteriaRequired = errors.New("search criteria required")

	// ErrStoreFailure indicates the record store scan failed
	ErrStoreFailure = errors.New("record store failure")
)

// ValidationError lists every violation found in a request.
// It unwraps to ErrInvalidInput.
type ValidationError struct {
	Violations []string
}

// NewValidationError returns a ValidationError, or nil when there are no violations
func NewValidationError(violations []string) *ValidationError {
	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
