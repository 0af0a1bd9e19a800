package models

import (
	"time"

	"github.com/google/uuid"
)

// TicketStatus is the lifecycle state of a ticket.
type TicketStatus string

const (
	TicketReserved TicketStatus = "RESERVED"
	TicketPaid     TicketStatus = "PAID"
	TicketExpired  TicketStatus = "EXPIRED"
)

// Venue holds the flat venue columns of an event.
type Venue struct {
	Name      string  `json:"name" db:"venue_name"`
	Address   string  `json:"address" db:"venue_address"`
	Latitude  float64 `json:"latitude" db:"venue_latitude"`
	Longitude float64 `json:"longitude" db:"venue_longitude"`
}

// Event represents a timed event with finite ticket capacity.
// SoldCount is mutated only through the conditional ledger operations
// in the event repository.
type Event struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Title         string    `json:"title" db:"title"`
	Description   *string   `json:"description" db:"description"`
	StartTime     time.Time `json:"start_time" db:"start_time"`
	EndTime       time.Time `json:"end_time" db:"end_time"`
	Venue         Venue     `json:"venue"`
	TotalCapacity int       `json:"total_capacity" db:"total_capacity"`
	SoldCount     int       `json:"sold_count" db:"sold_count"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// Available returns the number of unsold tickets.
func (e *Event) Available() int {
	return e.TotalCapacity - e.SoldCount
}

// Ticket represents a single reservation of one capacity unit.
type Ticket struct {
	ID        uuid.UUID    `json:"id" db:"id"`
	UserID    uuid.UUID    `json:"user_id" db:"user_id"`
	EventID   uuid.UUID    `json:"event_id" db:"event_id"`
	Status    TicketStatus `json:"status" db:"status"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" db:"updated_at"`
}

// User represents a user in the system. Latitude/Longitude are optional
// and only used for proximity search.
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Latitude  *float64  `json:"latitude" db:"latitude"`
	Longitude *float64  `json:"longitude" db:"longitude"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
