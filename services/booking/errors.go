package booking

import (
	"fmt"

	"github.com/vridhi-nahata/ServeGo-Backend/models"
)

// ValidationError reports malformed or missing input. Never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// AuthorizationError reports that the acting user is not the relevant party
// on the booking.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string { return e.Message }

func NewAuthorizationError(format string, args ...interface{}) error {
	return &AuthorizationError{Message: fmt.Sprintf(format, args...)}
}

// PreconditionError reports a state-machine guard that did not hold, such as
// completing before code verification or cancelling inside the cutoff window.
type PreconditionError struct {
	Message string
}

func (e *PreconditionError) Error() string { return e.Message }

func NewPreconditionError(format string, args ...interface{}) error {
	return &PreconditionError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an unknown booking id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("booking %s not found", e.ID) }

// SlotConflictError reports that the requested slot overlaps an existing
// active booking; Blocking carries the occupying interval so clients can
// offer alternatives.
type SlotConflictError struct {
	Blocking models.TimeSlot
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("time slot already booked from %s to %s", e.Blocking.From, e.Blocking.To)
}

// ExternalServiceError wraps a failure of the store or the payment gateway;
// callers may retry with backoff since the cause can be transient.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }
