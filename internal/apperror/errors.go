// Package apperror defines the error taxonomy shared by the reservation
// core and the HTTP layer. Callers classify failures with errors.Is and
// wrap with fmt.Errorf("...: %w", err) to add context.
package apperror

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation marks structurally bad input: malformed or
	// non-future dates, out-of-bounds justifications, weekday
	// mismatches. Never retried.
	ErrValidation = errors.New("validation failed")

	// ErrConflict marks a slot-date that is already actively booked.
	// Expected and recoverable: the caller re-resolves availability and
	// retries with different input.
	ErrConflict = errors.New("slot already reserved")

	// ErrInvalidTransition marks a state machine violation, e.g.
	// cancelling an already-rejected reservation.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrNotFound marks an unknown facility, slot or reservation id.
	ErrNotFound = errors.New("not found")

	// ErrDependency marks an unreachable collaborator (catalog,
	// database). The core never guesses a default and never proceeds
	// with booking on top of one.
	ErrDependency = errors.New("dependency unavailable")
)

// HTTPStatus maps a classified error to a response code. Conflicts get
// their own status so clients can re-offer availability instead of
// showing a fatal error.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDependency):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
