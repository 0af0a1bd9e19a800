package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gotix/internal/apperrors"
	"gotix/internal/clock"
	"gotix/internal/logger"
	"gotix/internal/messaging"
	"gotix/internal/metrics"
	"gotix/internal/models"

	"github.com/google/uuid"
)

// ExpireOutcome reports what an idempotent expire call did.
type ExpireOutcome int

const (
	// ExpireApplied means this call won the RESERVED→EXPIRED transition
	// and released the capacity unit.
	ExpireApplied ExpireOutcome = iota
	// ExpireAlreadyResolved means the ticket had already reached PAID or
	// EXPIRED. Expected under racing expiration paths, not a fault.
	ExpireAlreadyResolved
	// ExpireNotFound means no such ticket exists.
	ExpireNotFound
)

const (
	releaseMaxRetries = 3
	releaseBackoff    = time.Second
)

type TicketService struct {
	tickets   TicketStore
	events    EventStore
	users     UserStore
	publisher messaging.Publisher
	clock     clock.Clock
	timeout   time.Duration
}

func NewTicketService(tickets TicketStore, events EventStore, users UserStore, publisher messaging.Publisher, clk clock.Clock, timeout time.Duration) *TicketService {
	return &TicketService{
		tickets:   tickets,
		events:    events,
		users:     users,
		publisher: publisher,
		clock:     clk,
		timeout:   timeout,
	}
}

// Timeout returns the reservation window shared by both expiration paths.
func (s *TicketService) Timeout() time.Duration {
	return s.timeout
}

// Reserve admits a reservation: one capacity unit is taken from the event
// ledger, then the ticket row is created in RESERVED state. If the ticket
// cannot be created after capacity was granted, the unit is released again
// so it is not lost. On success a ticket.reserved event is published; the
// expirer arms the one-shot expiration trigger from it.
func (s *TicketService) Reserve(ctx context.Context, userID, eventID uuid.UUID) (*models.Ticket, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}

	if err := s.events.TryReserve(ctx, eventID); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrSoldOut):
			metrics.ReservationsDenied.WithLabelValues("sold_out").Inc()
		case errors.Is(err, apperrors.ErrEventNotFound):
			metrics.ReservationsDenied.WithLabelValues("event_not_found").Inc()
		}
		return nil, err
	}

	ticket := &models.Ticket{
		UserID:  userID,
		EventID: eventID,
		Status:  models.TicketReserved,
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		// Capacity was already granted; give the unit back so it is not
		// permanently lost.
		if relErr := s.releaseWithRetry(ctx, eventID); relErr != nil {
			logger.WithContext(ctx).Error("Failed to release capacity after ticket create failure",
				"error", relErr,
				"event_id", eventID)
		}
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	metrics.TicketsReserved.Inc()

	reserved := models.TicketReservedEvent{
		TicketID:  ticket.ID,
		EventID:   ticket.EventID,
		UserID:    ticket.UserID,
		CreatedAt: ticket.CreatedAt,
		ExpiresAt: ticket.CreatedAt.Add(s.timeout),
	}
	if err := s.publisher.Publish(models.SubjectTicketReserved, reserved); err != nil {
		// The sweep is the safety net for a lost trigger message.
		logger.WithContext(ctx).Error("Failed to publish ticket reserved event",
			"error", err,
			"ticket_id", ticket.ID,
			"event_type", models.SubjectTicketReserved)
	}

	return ticket, nil
}

// Pay transitions a ticket RESERVED→PAID. The capacity unit stays sold.
// A ticket that already reached PAID or EXPIRED fails with the current
// status named.
func (s *TicketService) Pay(ctx context.Context, ticketID uuid.UUID) (*models.Ticket, error) {
	applied, err := s.tickets.Transition(ctx, ticketID, models.TicketReserved, models.TicketPaid)
	if err != nil {
		return nil, fmt.Errorf("failed to transition ticket: %w", err)
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	if ticket == nil {
		return nil, apperrors.ErrTicketNotFound
	}

	if !applied {
		return nil, &apperrors.InvalidStateError{Current: string(ticket.Status)}
	}

	metrics.TicketsPaid.Inc()

	paid := models.TicketPaidEvent{
		TicketID:  ticket.ID,
		EventID:   ticket.EventID,
		Timestamp: s.clock.Now(),
	}
	if err := s.publisher.Publish(models.SubjectTicketPaid, paid); err != nil {
		logger.WithContext(ctx).Error("Failed to publish ticket paid event",
			"error", err,
			"ticket_id", ticket.ID,
			"event_type", models.SubjectTicketPaid)
	}

	return ticket, nil
}

// Expire resolves a reservation that was never paid. It is idempotent:
// the RESERVED→EXPIRED compare-and-set decides a single winner among the
// one-shot trigger, the sweep and any racing payment, and capacity is
// released exactly once, by the winner. source labels the calling path
// for metrics and the published event.
func (s *TicketService) Expire(ctx context.Context, ticketID uuid.UUID, source string) (ExpireOutcome, error) {
	// Resolve the ticket before the transition. A fetch failure here leaves
	// the ticket RESERVED so the sweep simply retries; once the CAS has won,
	// the only remaining failure point is the release, which is retried.
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return ExpireAlreadyResolved, fmt.Errorf("failed to get ticket: %w", err)
	}
	if ticket == nil {
		return ExpireNotFound, nil
	}

	applied, err := s.tickets.Transition(ctx, ticketID, models.TicketReserved, models.TicketExpired)
	if err != nil {
		return ExpireAlreadyResolved, fmt.Errorf("failed to transition ticket: %w", err)
	}
	if !applied {
		return ExpireAlreadyResolved, nil
	}

	if err := s.releaseWithRetry(ctx, ticket.EventID); err != nil {
		// The transition already won; a lost release here is a durably
		// lost capacity unit, so surface it loudly.
		logger.WithContext(ctx).Error("Failed to release capacity for expired ticket",
			"error", err,
			"ticket_id", ticketID,
			"event_id", ticket.EventID)
		return ExpireApplied, err
	}

	metrics.TicketsExpired.WithLabelValues(source).Inc()

	expired := models.TicketExpiredEvent{
		TicketID:  ticket.ID,
		EventID:   ticket.EventID,
		Source:    source,
		Timestamp: s.clock.Now(),
	}
	if err := s.publisher.Publish(models.SubjectTicketExpired, expired); err != nil {
		logger.WithContext(ctx).Error("Failed to publish ticket expired event",
			"error", err,
			"ticket_id", ticket.ID,
			"event_type", models.SubjectTicketExpired)
	}

	return ExpireApplied, nil
}

// Get returns a ticket by id.
func (s *TicketService) Get(ctx context.Context, ticketID uuid.UUID) (*models.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	if ticket == nil {
		return nil, apperrors.ErrTicketNotFound
	}
	return ticket, nil
}

// ExpiredBatch returns RESERVED tickets older than the reservation window,
// bounded by limit. Used by the sweep.
func (s *TicketService) ExpiredBatch(ctx context.Context, limit int) ([]models.Ticket, error) {
	cutoff := s.clock.Now().Add(-s.timeout)
	return s.tickets.GetExpired(ctx, cutoff, limit)
}

// History returns a user's tickets with event details, newest first.
func (s *TicketService) History(ctx context.Context, userID uuid.UUID, skip, limit int) ([]models.TicketWithEventResponse, error) {
	tickets, err := s.tickets.GetByUserID(ctx, userID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get user tickets: %w", err)
	}
	return tickets, nil
}

// releaseWithRetry gives a capacity unit back, retrying transient store
// failures so the unit is not durably lost. Underflow is not retried: it
// signals a double release and must surface.
func (s *TicketService) releaseWithRetry(ctx context.Context, eventID uuid.UUID) error {
	var lastErr error
	for attempt := 0; attempt < releaseMaxRetries; attempt++ {
		if attempt > 0 {
			metrics.CapacityReleaseRetries.Inc()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(1<<attempt) * releaseBackoff / 2):
			}
		}

		err := s.events.Release(ctx, eventID, 1)
		if err == nil {
			return nil
		}
		if errors.Is(err, apperrors.ErrCapacityUnderflow) || errors.Is(err, apperrors.ErrEventNotFound) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("release failed after %d attempts: %w", releaseMaxRetries, lastErr)
}
