package expiration

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"gotix/internal/clock"
	"gotix/internal/messaging"
	"gotix/internal/models"
	"gotix/internal/service"

	"github.com/nats-io/stan.go"
)

const (
	sourceTrigger = "trigger"
	triggerQueue  = "expirer"
)

// Trigger is the precise arm of the expiration pipeline. It consumes
// ticket.reserved events and arms one timer per reservation, firing at
// the reservation's ExpiresAt. Expiration itself goes through the same
// idempotent transition as the sweep, so a timer firing after payment or
// after the sweep already handled the ticket is harmless.
type Trigger struct {
	tickets *service.TicketService
	nats    *messaging.NATSClient
	clock   clock.Clock

	mu     sync.Mutex
	timers map[string]*time.Timer
	sub    stan.Subscription
}

func NewTrigger(tickets *service.TicketService, nats *messaging.NATSClient, clk clock.Clock) *Trigger {
	return &Trigger{
		tickets: tickets,
		nats:    nats,
		clock:   clk,
		timers:  make(map[string]*time.Timer),
	}
}

// Start subscribes to ticket.reserved on a queue group so that multiple
// expirer instances split the load without double-arming.
func (t *Trigger) Start(ctx context.Context) error {
	sub, err := t.nats.SubscribeQueue(models.SubjectTicketReserved, triggerQueue, func(msg *stan.Msg) {
		var reserved models.TicketReservedEvent
		if err := json.Unmarshal(msg.Data, &reserved); err != nil {
			slog.Error("Failed to unmarshal ticket reserved event", "error", err)
			return
		}
		t.Arm(ctx, reserved)
	})
	if err != nil {
		return err
	}
	t.sub = sub

	slog.Info("Expiration trigger started", "subject", models.SubjectTicketReserved, "queue", triggerQueue)
	return nil
}

// Stop closes the subscription and cancels all armed timers.
func (t *Trigger) Stop() {
	if t.sub != nil {
		if err := t.sub.Close(); err != nil {
			slog.Error("Failed to close trigger subscription", "error", err)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for id, timer := range t.timers {
		timer.Stop()
		delete(t.timers, id)
	}
	slog.Info("Expiration trigger stopped")
}

// Arm schedules a one-shot expiration for the reservation. A reservation
// already past its deadline (redelivered message, expirer restart) fires
// immediately.
func (t *Trigger) Arm(ctx context.Context, reserved models.TicketReservedEvent) {
	delay := reserved.ExpiresAt.Sub(t.clock.Now())
	if delay < 0 {
		delay = 0
	}

	slog.Debug("Arming expiration timer",
		"ticket_id", reserved.TicketID,
		"expires_at", reserved.ExpiresAt,
		"delay", delay.String())

	key := reserved.TicketID.String()

	t.mu.Lock()
	if old, ok := t.timers[key]; ok {
		old.Stop()
	}
	t.timers[key] = time.AfterFunc(delay, func() {
		t.mu.Lock()
		delete(t.timers, key)
		t.mu.Unlock()
		t.fire(ctx, reserved)
	})
	t.mu.Unlock()
}

func (t *Trigger) fire(ctx context.Context, reserved models.TicketReservedEvent) {
	outcome, err := t.tickets.Expire(ctx, reserved.TicketID, sourceTrigger)
	if err != nil {
		// The sweep will retry this ticket.
		slog.Error("Trigger failed to expire ticket",
			"error", err,
			"ticket_id", reserved.TicketID,
			"event_id", reserved.EventID)
		return
	}

	switch outcome {
	case service.ExpireApplied:
		slog.Info("Trigger expired ticket",
			"ticket_id", reserved.TicketID,
			"event_id", reserved.EventID)
	case service.ExpireAlreadyResolved:
		slog.Debug("Ticket already resolved when trigger fired",
			"ticket_id", reserved.TicketID)
	case service.ExpireNotFound:
		slog.Warn("Ticket not found when trigger fired",
			"ticket_id", reserved.TicketID)
	}
}
