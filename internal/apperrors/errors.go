// Package apperrors holds the error taxonomy shared by the stores, the
// matchmaking engine and the HTTP layer.
package apperrors

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound is returned for unknown participants, slots or matches.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState is returned when a slot is not in the status an operation requires.
	ErrInvalidState = errors.New("invalid state")
	// ErrDuplicateSlot means a slot id would appear in more than one match.
	// It is an internal consistency fault and should never reach a caller in practice.
	ErrDuplicateSlot = errors.New("slot already recorded in a match")
	// ErrConflict signals a lost compare-and-swap on a slot status. The engine
	// retries on it and never returns it to callers.
	ErrConflict = errors.New("transaction conflict")
	// ErrInvalidArgument is returned for malformed requests.
	ErrInvalidArgument = errors.New("invalid argument")
)

// HTTPStatus maps an error from the core to an HTTP status code.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
