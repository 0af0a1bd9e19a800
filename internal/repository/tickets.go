package repository

import (
	"context"
	"database/sql"
	"time"

	"gotix/internal/database"
	"gotix/internal/models"

	"github.com/google/uuid"
)

type TicketRepository struct {
	db *database.DB
}

func NewTicketRepository(db *database.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

func (r *TicketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	query := `
		INSERT INTO tickets (user_id, event_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		ticket.UserID,
		ticket.EventID,
		ticket.Status,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)

	return err
}

func (r *TicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	ticket := &models.Ticket{}
	query := `
		SELECT id, user_id, event_id, status, created_at, updated_at
		FROM tickets
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.UserID,
		&ticket.EventID,
		&ticket.Status,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return ticket, err
}

// Transition applies a status change only if the ticket currently has the
// expected status. The compare and the set are one conditional UPDATE, so
// competing transitions on the same ticket see exactly one winner. Returns
// whether the transition was applied.
func (r *TicketRepository) Transition(ctx context.Context, id uuid.UUID, from, to models.TicketStatus) (bool, error) {
	query := `
		UPDATE tickets
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2`

	result, err := r.db.ExecContext(ctx, query, id, from, to)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

// GetExpired returns RESERVED tickets created at or before the cutoff,
// oldest first, bounded by limit. Used by the periodic sweep.
func (r *TicketRepository) GetExpired(ctx context.Context, cutoff time.Time, limit int) ([]models.Ticket, error) {
	var tickets []models.Ticket
	query := `
		SELECT id, user_id, event_id, status, created_at, updated_at
		FROM tickets
		WHERE status = $1 AND created_at <= $2
		ORDER BY created_at ASC
		LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, models.TicketReserved, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var ticket models.Ticket
		err := rows.Scan(
			&ticket.ID,
			&ticket.UserID,
			&ticket.EventID,
			&ticket.Status,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}

	return tickets, rows.Err()
}

// GetByUserID returns a user's tickets joined with event details, newest
// first.
func (r *TicketRepository) GetByUserID(ctx context.Context, userID uuid.UUID, skip, limit int) ([]models.TicketWithEventResponse, error) {
	var tickets []models.TicketWithEventResponse
	query := `
		SELECT t.id, t.user_id, t.event_id, t.status, t.created_at,
		       e.title, e.start_time, e.venue_name
		FROM tickets t
		JOIN events e ON e.id = t.event_id
		WHERE t.user_id = $1
		ORDER BY t.created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var t models.TicketWithEventResponse
		err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.EventID,
			&t.Status,
			&t.CreatedAt,
			&t.EventTitle,
			&t.EventStartTime,
			&t.VenueName,
		)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}

	return tickets, rows.Err()
}
