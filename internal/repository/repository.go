package repository

import (
	"gotix/internal/database"
)

type Repositories struct {
	Events  *EventRepository
	Tickets *TicketRepository
	Users   *UserRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Events:  NewEventRepository(db),
		Tickets: NewTicketRepository(db),
		Users:   NewUserRepository(db),
	}
}
