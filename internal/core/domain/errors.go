// internal/core/domain/errors.go
package domain

import "fmt"

// ValidationError signals locally recoverable bad input: a malformed RUT,
// an empty required field, a non-positive quantity. Callers surface it to
// the user and keep going; it is never logged as a system fault.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for a named field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
