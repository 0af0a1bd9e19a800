package service

import (
	"context"
	"fmt"

	"gotix/internal/apperrors"
	"gotix/internal/geo"
	"gotix/internal/logger"
	"gotix/internal/models"

	"github.com/google/uuid"
)

type EventService struct {
	events        EventStore
	index         EventIndex
	defaultRadius float64
}

func NewEventService(events EventStore, index EventIndex, defaultRadiusKm float64) *EventService {
	return &EventService{
		events:        events,
		index:         index,
		defaultRadius: defaultRadiusKm,
	}
}

// DefaultRadiusKm returns the radius used when a proximity search does not
// supply one.
func (s *EventService) DefaultRadiusKm() float64 {
	return s.defaultRadius
}

// Create validates and persists a new event, then indexes it for proximity
// search. Indexing failures are logged, not returned: the store row is the
// source of truth and the search index is a read model.
func (s *EventService) Create(ctx context.Context, req *models.CreateEventRequest) (*models.Event, error) {
	if !req.EndTime.After(req.StartTime) {
		return nil, fmt.Errorf("end_time must be after start_time")
	}

	event := &models.Event{
		Title:         req.Title,
		Description:   req.Description,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		TotalCapacity: req.TotalCapacity,
		Venue: models.Venue{
			Name:      req.Venue.Name,
			Address:   req.Venue.Address,
			Latitude:  req.Venue.Latitude,
			Longitude: req.Venue.Longitude,
		},
	}

	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	if s.index != nil {
		if err := s.index.IndexEvent(ctx, event); err != nil {
			logger.WithContext(ctx).Error("Failed to index event",
				"error", err,
				"event_id", event.ID)
		}
	}

	return event, nil
}

// Get returns an event by id.
func (s *EventService) Get(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, apperrors.ErrEventNotFound
	}
	return event, nil
}

// List returns a page of events.
func (s *EventService) List(ctx context.Context, skip, limit int) ([]models.EventResponse, error) {
	events, err := s.events.List(ctx, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	responses := make([]models.EventResponse, 0, len(events))
	for i := range events {
		responses = append(responses, events[i].ToResponse())
	}
	return responses, nil
}

// SearchNear returns events whose venue lies within radiusKm of the given
// point, nearest first with id as tiebreak. The search index serves the
// query when available; otherwise the store computes distances itself.
// Distances are rounded to two decimals.
func (s *EventService) SearchNear(ctx context.Context, lat, lon, radiusKm float64, skip, limit int) ([]models.NearbyEventResponse, error) {
	var (
		events    []models.Event
		distances []float64
		err       error
	)

	if s.index != nil {
		events, distances, err = s.index.SearchNear(ctx, lat, lon, radiusKm, skip, limit)
		if err != nil {
			logger.WithContext(ctx).Error("Search index query failed, falling back to store",
				"error", err)
			events, distances, err = s.events.GetNear(ctx, lat, lon, radiusKm, skip, limit)
		}
	} else {
		events, distances, err = s.events.GetNear(ctx, lat, lon, radiusKm, skip, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to search events: %w", err)
	}

	responses := make([]models.NearbyEventResponse, 0, len(events))
	for i := range events {
		responses = append(responses, models.NearbyEventResponse{
			ID:               events[i].ID,
			Title:            events[i].Title,
			StartTime:        events[i].StartTime,
			EndTime:          events[i].EndTime,
			Venue:            events[i].Venue,
			AvailableTickets: events[i].Available(),
			DistanceKm:       geo.Round2(distances[i]),
		})
	}
	return responses, nil
}
