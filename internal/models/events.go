package models

import (
	"time"

	"github.com/google/uuid"
)

// NATS subjects for ticket lifecycle events
const (
	SubjectTicketReserved = "ticket.reserved"
	SubjectTicketPaid     = "ticket.paid"
	SubjectTicketExpired  = "ticket.expired"
)

// TicketReservedEvent is published when a reservation is admitted. The
// expirer consumes it to arm the one-shot expiration trigger.
type TicketReservedEvent struct {
	TicketID  uuid.UUID `json:"ticket_id"`
	EventID   uuid.UUID `json:"event_id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TicketPaidEvent is published after a successful payment transition.
type TicketPaidEvent struct {
	TicketID  uuid.UUID `json:"ticket_id"`
	EventID   uuid.UUID `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
}

// TicketExpiredEvent is published after a reservation is expired and its
// capacity unit released.
type TicketExpiredEvent struct {
	TicketID  uuid.UUID `json:"ticket_id"`
	EventID   uuid.UUID `json:"event_id"`
	Source    string    `json:"source"` // "trigger" or "sweep"
	Timestamp time.Time `json:"timestamp"`
}
