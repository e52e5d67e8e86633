package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced employee, allowance or
	// submission does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized is returned when the caller lacks permission for the
	// target employee or submission. It intentionally does not reveal
	// whether the resource exists.
	ErrUnauthorized = errors.New("operation not permitted")

	// ErrPersistence is returned when the store is unreachable or a
	// transaction aborted. The original cause is logged, never surfaced.
	ErrPersistence = errors.New("persistence failure")

	// ErrInvalidCredentials is returned on failed login attempts.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError names the first violated rule of an invalid request.
// It is always recoverable by the caller and never retried.
type ValidationError struct {
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s): %s", e.Rule, e.Message)
}

// NewValidation builds a ValidationError for a named rule.
func NewValidation(rule, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Rule: rule, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
