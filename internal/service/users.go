package service

import (
	"context"
	"fmt"

	"gotix/internal/apperrors"
	"gotix/internal/models"

	"github.com/google/uuid"
)

type UserService struct {
	users   UserStore
	tickets TicketStore
	events  *EventService
}

func NewUserService(users UserStore, tickets TicketStore, events *EventService) *UserService {
	return &UserService{
		users:   users,
		tickets: tickets,
		events:  events,
	}
}

// Create registers a new user. Email uniqueness is enforced by the store.
func (s *UserService) Create(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	user := &models.User{
		Name:      req.Name,
		Email:     req.Email,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}

	inserted, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if !inserted {
		return nil, apperrors.ErrEmailTaken
	}
	return user, nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}
	return user, nil
}

// RelevantEvents returns events near the user's stored location. A user
// without coordinates cannot be served.
func (s *UserService) RelevantEvents(ctx context.Context, userID uuid.UUID, radiusKm float64, skip, limit int) ([]models.NearbyEventResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}
	if user.Latitude == nil || user.Longitude == nil {
		return nil, apperrors.ErrNoUserLocation
	}

	if radiusKm <= 0 {
		radiusKm = s.events.DefaultRadiusKm()
	}

	return s.events.SearchNear(ctx, *user.Latitude, *user.Longitude, radiusKm, skip, limit)
}

// TicketHistory returns the user's tickets with event details, newest
// first.
func (s *UserService) TicketHistory(ctx context.Context, userID uuid.UUID, skip, limit int) ([]models.TicketWithEventResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}

	return s.tickets.GetByUserID(ctx, userID, skip, limit)
}
