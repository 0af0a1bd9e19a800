package service

import (
	"context"
	"time"

	"gotix/internal/clock"
	"gotix/internal/config"
	"gotix/internal/messaging"
	"gotix/internal/models"
	"gotix/internal/repository"

	"github.com/google/uuid"
)

// EventStore is the durable-store surface the services need for events,
// including the capacity ledger's two conditional operations.
type EventStore interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	List(ctx context.Context, skip, limit int) ([]models.Event, error)
	TryReserve(ctx context.Context, eventID uuid.UUID) error
	Release(ctx context.Context, eventID uuid.UUID, amount int) error
	GetNear(ctx context.Context, lat, lon, radiusKm float64, skip, limit int) ([]models.Event, []float64, error)
}

// TicketStore is the durable-store surface for tickets. Transition is the
// state machine's compare-and-set primitive.
type TicketStore interface {
	Create(ctx context.Context, ticket *models.Ticket) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error)
	Transition(ctx context.Context, id uuid.UUID, from, to models.TicketStatus) (bool, error)
	GetExpired(ctx context.Context, cutoff time.Time, limit int) ([]models.Ticket, error)
	GetByUserID(ctx context.Context, userID uuid.UUID, skip, limit int) ([]models.TicketWithEventResponse, error)
}

// UserStore is the durable-store surface for users.
type UserStore interface {
	Create(ctx context.Context, user *models.User) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// EventIndex is the search-side read model for events. A nil index
// disables Elasticsearch and the event service falls back to the store's
// proximity query.
type EventIndex interface {
	IndexEvent(ctx context.Context, event *models.Event) error
	SearchNear(ctx context.Context, lat, lon, radiusKm float64, skip, limit int) ([]models.Event, []float64, error)
}

type Services struct {
	Events  *EventService
	Tickets *TicketService
	Users   *UserService
}

func NewServices(cfg *config.Config, repos *repository.Repositories, index EventIndex, publisher messaging.Publisher) *Services {
	clk := clock.NewSystem()
	eventService := NewEventService(repos.Events, index, cfg.DefaultSearchRadiusKm)
	ticketService := NewTicketService(repos.Tickets, repos.Events, repos.Users, publisher, clk, cfg.ReservationTimeout)
	userService := NewUserService(repos.Users, repos.Tickets, eventService)

	return &Services{
		Events:  eventService,
		Tickets: ticketService,
		Users:   userService,
	}
}
