// Package apperr defines the error taxonomy shared by the workflow service and
// its transport.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrAmountMismatch      = errors.New("payment amount does not match bill amount")
	ErrMissingField        = errors.New("missing required field")
	ErrInvalidField        = errors.New("invalid field")
	ErrNoMechanicAvailable = errors.New("no mechanics available to assign the task")
	ErrConflict            = errors.New("already exists")
	ErrAlreadySettled      = errors.New("service request already settled")
)

// Missing reports an absent payload field.
func Missing(field string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, field)
}

// Invalid reports a payload field that is present but unusable.
func Invalid(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidField, field, reason)
}

// HTTPStatus maps an error from the taxonomy to a response status code.
// Errors outside the taxonomy are internal.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoMechanicAvailable):
		return http.StatusNotFound
	case errors.Is(err, ErrAmountMismatch),
		errors.Is(err, ErrMissingField),
		errors.Is(err, ErrInvalidField):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict), errors.Is(err, ErrAlreadySettled):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
