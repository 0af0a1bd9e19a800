package repository

import (
	"context"
	"database/sql"
	"fmt"

	"gotix/internal/apperrors"
	"gotix/internal/database"
	"gotix/internal/models"

	"github.com/google/uuid"
)

type EventRepository struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, title, description, start_time, end_time,
       venue_name, venue_address, venue_latitude, venue_longitude,
       total_capacity, sold_count, created_at, updated_at`

func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (title, description, start_time, end_time,
		                    venue_name, venue_address, venue_latitude, venue_longitude,
		                    total_capacity, sold_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0)
		RETURNING id, sold_count, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		event.Title,
		event.Description,
		event.StartTime,
		event.EndTime,
		event.Venue.Name,
		event.Venue.Address,
		event.Venue.Latitude,
		event.Venue.Longitude,
		event.TotalCapacity,
	).Scan(&event.ID, &event.SoldCount, &event.CreatedAt, &event.UpdatedAt)

	return err
}

func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	event := &models.Event{}
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.StartTime,
		&event.EndTime,
		&event.Venue.Name,
		&event.Venue.Address,
		&event.Venue.Latitude,
		&event.Venue.Longitude,
		&event.TotalCapacity,
		&event.SoldCount,
		&event.CreatedAt,
		&event.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return event, err
}

func (r *EventRepository) List(ctx context.Context, skip, limit int) ([]models.Event, error) {
	var events []models.Event
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY id ASC LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var event models.Event
		err := rows.Scan(
			&event.ID,
			&event.Title,
			&event.Description,
			&event.StartTime,
			&event.EndTime,
			&event.Venue.Name,
			&event.Venue.Address,
			&event.Venue.Latitude,
			&event.Venue.Longitude,
			&event.TotalCapacity,
			&event.SoldCount,
			&event.CreatedAt,
			&event.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

// TryReserve atomically admits one capacity unit. The check and the
// increment happen in a single conditional UPDATE, so concurrent callers
// racing for the last unit see exactly one winner.
func (r *EventRepository) TryReserve(ctx context.Context, eventID uuid.UUID) error {
	query := `
		UPDATE events
		SET sold_count = sold_count + 1, updated_at = NOW()
		WHERE id = $1 AND sold_count < total_capacity`

	result, err := r.db.ExecContext(ctx, query, eventID)
	if err != nil {
		return fmt.Errorf("try reserve: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	// Denied: distinguish a missing event from a sold-out one.
	event, err := r.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event == nil {
		return apperrors.ErrEventNotFound
	}
	return apperrors.ErrSoldOut
}

// Release atomically returns capacity units to an event. The decrement is
// conditional on sold_count staying non-negative; a release that would
// underflow is reported, not clamped.
func (r *EventRepository) Release(ctx context.Context, eventID uuid.UUID, amount int) error {
	query := `
		UPDATE events
		SET sold_count = sold_count - $2, updated_at = NOW()
		WHERE id = $1 AND sold_count >= $2`

	result, err := r.db.ExecContext(ctx, query, eventID, amount)
	if err != nil {
		return fmt.Errorf("release: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	event, err := r.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event == nil {
		return apperrors.ErrEventNotFound
	}
	return apperrors.ErrCapacityUnderflow
}

// GetNear returns events within radiusKm of the origin ordered by
// ascending distance, with the event id as a stable tiebreaker so
// pagination is deterministic. Distance is computed with the haversine
// formula in SQL; this is the fallback path when Elasticsearch is not
// configured.
func (r *EventRepository) GetNear(ctx context.Context, lat, lon, radiusKm float64, skip, limit int) ([]models.Event, []float64, error) {
	query := `
		SELECT ` + eventColumns + `,
		       2 * 6371 * asin(sqrt(
		           pow(sin(radians(venue_latitude - $1) / 2), 2) +
		           cos(radians($1)) * cos(radians(venue_latitude)) *
		           pow(sin(radians(venue_longitude - $2) / 2), 2)
		       )) AS distance_km
		FROM events
		WHERE 2 * 6371 * asin(sqrt(
		          pow(sin(radians(venue_latitude - $1) / 2), 2) +
		          cos(radians($1)) * cos(radians(venue_latitude)) *
		          pow(sin(radians(venue_longitude - $2) / 2), 2)
		      )) <= $3
		ORDER BY distance_km ASC, id ASC
		LIMIT $4 OFFSET $5`

	rows, err := r.db.QueryContext(ctx, query, lat, lon, radiusKm, limit, skip)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var events []models.Event
	var distances []float64

	for rows.Next() {
		var event models.Event
		var distance float64
		err := rows.Scan(
			&event.ID,
			&event.Title,
			&event.Description,
			&event.StartTime,
			&event.EndTime,
			&event.Venue.Name,
			&event.Venue.Address,
			&event.Venue.Latitude,
			&event.Venue.Longitude,
			&event.TotalCapacity,
			&event.SoldCount,
			&event.CreatedAt,
			&event.UpdatedAt,
			&distance,
		)
		if err != nil {
			return nil, nil, err
		}
		events = append(events, event)
		distances = append(distances, distance)
	}

	return events, distances, rows.Err()
}
