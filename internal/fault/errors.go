package fault

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrEmailTaken is the validation failure raised when a unique email
// constraint is hit.
var ErrEmailTaken = &ValidationError{Err: errors.New("email taken")}

// ValidationError marks a failure that maps to 409 Conflict.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	if e.Err == nil {
		return "validation failed"
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Validation returns a *ValidationError wrapping err.
func Validation(err error) error {
	return &ValidationError{Err: err}
}

// WebRequestError carries the HTTP status a handler wants returned as is.
type WebRequestError struct {
	Status int
	Err    error
}

func (e *WebRequestError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	if txt := http.StatusText(e.Status); txt != "" {
		return txt
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

func (e *WebRequestError) Unwrap() error { return e.Err }

// WebRequest returns a *WebRequestError with the given status.
func WebRequest(status int, err error) error {
	return &WebRequestError{Status: status, Err: err}
}

// ConstraintViolationError carries the violations of a failed validation.
type ConstraintViolationError struct {
	Violations []Violation
}

func (e *ConstraintViolationError) Error() string {
	if len(e.Violations) == 1 {
		return "1 constraint violation"
	}
	return fmt.Sprintf("%d constraint violations", len(e.Violations))
}

// ConstraintViolations returns a *ConstraintViolationError for vs.
func ConstraintViolations(vs ...Violation) error {
	return &ConstraintViolationError{Violations: vs}
}
