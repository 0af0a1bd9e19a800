package models

import (
	"time"

	"github.com/google/uuid"
)

// CreateVenueRequest - venue part of an event creation request
type CreateVenueRequest struct {
	Name      string  `json:"name" binding:"required"`
	Address   string  `json:"address" binding:"required"`
	Latitude  float64 `json:"latitude" binding:"min=-90,max=90"`
	Longitude float64 `json:"longitude" binding:"min=-180,max=180"`
}

// CreateEventRequest - request body for creating an event
type CreateEventRequest struct {
	Title         string             `json:"title" binding:"required"`
	Description   *string            `json:"description"`
	StartTime     time.Time          `json:"start_time" binding:"required"`
	EndTime       time.Time          `json:"end_time" binding:"required"`
	TotalCapacity int                `json:"total_capacity" binding:"required,gt=0"`
	Venue         CreateVenueRequest `json:"venue" binding:"required"`
}

// EventResponse - full event representation returned by the API
type EventResponse struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	Description      *string   `json:"description"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	Venue            Venue     `json:"venue"`
	TotalCapacity    int       `json:"total_capacity"`
	SoldCount        int       `json:"sold_count"`
	AvailableTickets int       `json:"available_tickets"`
}

// NearbyEventResponse - event list item with distance from the search origin
type NearbyEventResponse struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	Venue            Venue     `json:"venue"`
	AvailableTickets int       `json:"available_tickets"`
	DistanceKm       float64   `json:"distance_km"`
}

// ReserveTicketRequest - request body for reserving a ticket
type ReserveTicketRequest struct {
	UserID  uuid.UUID `json:"user_id" binding:"required"`
	EventID uuid.UUID `json:"event_id" binding:"required"`
}

// TicketResponse - ticket representation returned by the API
type TicketResponse struct {
	ID        uuid.UUID    `json:"id"`
	UserID    uuid.UUID    `json:"user_id"`
	EventID   uuid.UUID    `json:"event_id"`
	Status    TicketStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

// TicketWithEventResponse - ticket history item with event details attached
type TicketWithEventResponse struct {
	ID             uuid.UUID    `json:"id"`
	UserID         uuid.UUID    `json:"user_id"`
	EventID        uuid.UUID    `json:"event_id"`
	Status         TicketStatus `json:"status"`
	CreatedAt      time.Time    `json:"created_at"`
	EventTitle     string       `json:"event_title"`
	EventStartTime time.Time    `json:"event_start_time"`
	VenueName      string       `json:"venue_name"`
}

// CreateUserRequest - request body for creating a user
type CreateUserRequest struct {
	Name      string   `json:"name" binding:"required"`
	Email     string   `json:"email" binding:"required,email"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" binding:"omitempty,min=-180,max=180"`
}

// UserResponse - user representation returned by the API
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
}

func (e *Event) ToResponse() EventResponse {
	return EventResponse{
		ID:               e.ID,
		Title:            e.Title,
		Description:      e.Description,
		StartTime:        e.StartTime,
		EndTime:          e.EndTime,
		Venue:            e.Venue,
		TotalCapacity:    e.TotalCapacity,
		SoldCount:        e.SoldCount,
		AvailableTickets: e.Available(),
	}
}

func (t *Ticket) ToResponse() TicketResponse {
	return TicketResponse{
		ID:        t.ID,
		UserID:    t.UserID,
		EventID:   t.EventID,
		Status:    t.Status,
		CreatedAt: t.CreatedAt,
	}
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Latitude:  u.Latitude,
		Longitude: u.Longitude,
	}
}
