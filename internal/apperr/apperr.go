// Package apperr defines the error taxonomy shared by the collaboration
// services and the HTTP layer. Services wrap one of the sentinels with
// fmt.Errorf("...: %w", ...); handlers map them with errors.Is.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrInfrastructure    = errors.New("internal error")
	ErrStatusUnavailable = errors.New("status unavailable")
)

// Validation returns a validation error with a descriptive message.
func Validation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound returns a not-found error naming the missing resource.
func NotFound(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, what)
}

// Forbidden returns a forbidden error with a reason.
func Forbidden(reason string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, reason)
}

// Infra wraps a store failure. The cause is kept for logging but never shown to clients.
func Infra(op string, err error) error {
	return &infraError{op: op, err: err}
}

type infraError struct {
	op  string
	err error
}

func (e *infraError) Error() string { return e.op + ": " + e.err.Error() }

func (e *infraError) Unwrap() []error { return []error{ErrInfrastructure, e.err} }

// HTTPStatus maps an error to the status code exposed to clients and the
// message that is safe to show.
func HTTPStatus(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, ErrStatusUnavailable):
		return http.StatusInternalServerError, ErrStatusUnavailable.Error()
	}
	return http.StatusInternalServerError, ErrInfrastructure.Error()
}
