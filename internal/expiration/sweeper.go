package expiration

import (
	"context"
	"log/slog"
	"time"

	"gotix/internal/clock"
	"gotix/internal/service"
)

const sourceSweep = "sweep"

// Sweeper is the periodic safety net of the expiration pipeline. It scans
// for RESERVED tickets older than the reservation window and expires them
// in bounded batches. Any ticket the one-shot trigger missed (lost
// message, expirer restart) is caught here within one interval.
type Sweeper struct {
	tickets   *service.TicketService
	clock     clock.Clock
	interval  time.Duration
	batchSize int
	ticker    *time.Ticker
	done      chan bool
}

func NewSweeper(tickets *service.TicketService, clk clock.Clock, interval time.Duration, batchSize int) *Sweeper {
	return &Sweeper{
		tickets:   tickets,
		clock:     clk,
		interval:  interval,
		batchSize: batchSize,
		done:      make(chan bool),
	}
}

// Start begins the background sweep loop.
func (s *Sweeper) Start(ctx context.Context) {
	slog.Info("Starting expiration sweeper",
		"interval", s.interval.String(),
		"batch_size", s.batchSize,
		"reservation_timeout", s.tickets.Timeout().String())

	s.ticker = time.NewTicker(s.interval)

	// Run initial sweep immediately
	go s.Sweep(ctx)

	go func() {
		for {
			select {
			case <-s.ticker.C:
				go s.Sweep(ctx)
			case <-s.done:
				slog.Info("Expiration sweeper stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the sweep loop.
func (s *Sweeper) Stop() {
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.done)
}

// Sweep runs one pass: fetch a batch of overdue RESERVED tickets and
// expire each. A failure on one ticket never blocks the rest; whatever
// remains is picked up on the next pass. Returns the number of tickets
// this pass actually expired.
func (s *Sweeper) Sweep(ctx context.Context) int {
	tickets, err := s.tickets.ExpiredBatch(ctx, s.batchSize)
	if err != nil {
		slog.Error("Failed to fetch overdue tickets", "error", err)
		return 0
	}

	if len(tickets) == 0 {
		slog.Debug("No overdue tickets found")
		return 0
	}

	slog.Info("Found overdue tickets to expire", "count", len(tickets))

	expired := 0
	for _, ticket := range tickets {
		outcome, err := s.tickets.Expire(ctx, ticket.ID, sourceSweep)
		if err != nil {
			slog.Error("Failed to expire ticket",
				"error", err,
				"ticket_id", ticket.ID,
				"event_id", ticket.EventID,
				"created_at", ticket.CreatedAt)
			continue
		}
		if outcome == service.ExpireApplied {
			expired++
			slog.Info("Expired overdue ticket",
				"ticket_id", ticket.ID,
				"event_id", ticket.EventID,
				"overdue_by", s.clock.Now().Sub(ticket.CreatedAt.Add(s.tickets.Timeout())).String())
		}
	}
	return expired
}
