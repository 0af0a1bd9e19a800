package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrEventNotFound  = errors.New("event not found")
	ErrTicketNotFound = errors.New("ticket not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrEmailTaken     = errors.New("email already registered")
	ErrSoldOut        = errors.New("event is sold out")
	ErrNoUserLocation = errors.New("user location not set")

	// ErrCapacityUnderflow reports a release that would take an event's sold
	// count negative. The ledger refuses the decrement instead of clamping,
	// so a double-release bug surfaces here rather than being absorbed.
	ErrCapacityUnderflow = errors.New("capacity release underflow")
)

// InvalidStateError is returned when a ticket transition is attempted from
// a status other than the required one, e.g. paying an expired ticket.
type InvalidStateError struct {
	Current string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid ticket state: %s", e.Current)
}
