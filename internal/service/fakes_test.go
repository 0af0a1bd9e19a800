package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"gotix/internal/apperrors"
	"gotix/internal/geo"
	"gotix/internal/models"

	"github.com/google/uuid"
)

// In-memory stores mirroring the conditional semantics of the SQL
// repositories, so reservation and expiration logic can be exercised
// without a database.

type memEventStore struct {
	mu     sync.Mutex
	events map[uuid.UUID]*models.Event

	releaseErrs int // transient errors to inject before Release succeeds
}

func newMemEventStore() *memEventStore {
	return &memEventStore{events: make(map[uuid.UUID]*models.Event)}
}

func (s *memEventStore) Create(_ context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.CreatedAt = time.Now().UTC()
	event.UpdatedAt = event.CreatedAt
	cp := *event
	s.events[event.ID] = &cp
	return nil
}

func (s *memEventStore) GetByID(_ context.Context, id uuid.UUID) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[id]
	if !ok {
		return nil, nil
	}
	cp := *event
	return &cp, nil
}

func (s *memEventStore) List(_ context.Context, skip, limit int) ([]models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]models.Event, 0, len(s.events))
	for _, e := range s.events {
		all = append(all, *e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID.String() < all[j].ID.String() })
	if skip >= len(all) {
		return nil, nil
	}
	end := skip + limit
	if end > len(all) {
		end = len(all)
	}
	return all[skip:end], nil
}

func (s *memEventStore) TryReserve(_ context.Context, eventID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[eventID]
	if !ok {
		return apperrors.ErrEventNotFound
	}
	if event.SoldCount >= event.TotalCapacity {
		return apperrors.ErrSoldOut
	}
	event.SoldCount++
	return nil
}

func (s *memEventStore) Release(_ context.Context, eventID uuid.UUID, amount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.releaseErrs > 0 {
		s.releaseErrs--
		return context.DeadlineExceeded
	}
	event, ok := s.events[eventID]
	if !ok {
		return apperrors.ErrEventNotFound
	}
	if event.SoldCount < amount {
		return apperrors.ErrCapacityUnderflow
	}
	event.SoldCount -= amount
	return nil
}

func (s *memEventStore) GetNear(_ context.Context, lat, lon, radiusKm float64, skip, limit int) ([]models.Event, []float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type hit struct {
		event models.Event
		dist  float64
	}
	var hits []hit
	for _, e := range s.events {
		d := geo.DistanceKm(lat, lon, e.Venue.Latitude, e.Venue.Longitude)
		if d <= radiusKm {
			hits = append(hits, hit{event: *e, dist: d})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].event.ID.String() < hits[j].event.ID.String()
	})

	if skip >= len(hits) {
		return nil, nil, nil
	}
	end := skip + limit
	if end > len(hits) {
		end = len(hits)
	}
	hits = hits[skip:end]

	events := make([]models.Event, len(hits))
	distances := make([]float64, len(hits))
	for i, h := range hits {
		events[i] = h.event
		distances[i] = h.dist
	}
	return events, distances, nil
}

func (s *memEventStore) sold(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[id].SoldCount
}

type memTicketStore struct {
	mu      sync.Mutex
	tickets map[uuid.UUID]*models.Ticket
	titles  map[uuid.UUID]string // event id -> title, for history joins

	createErr error
	now       func() time.Time

	// one-shot GetByID failures: getErr fires on the next read,
	// getErrAfterTransition on the first read after an applied transition
	getErr                error
	getErrAfterTransition error
	pendingGetErr         error
}

func newMemTicketStore() *memTicketStore {
	return &memTicketStore{
		tickets: make(map[uuid.UUID]*models.Ticket),
		titles:  make(map[uuid.UUID]string),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *memTicketStore) Create(_ context.Context, ticket *models.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	ticket.ID = uuid.New()
	ticket.CreatedAt = s.now()
	ticket.UpdatedAt = ticket.CreatedAt
	cp := *ticket
	s.tickets[ticket.ID] = &cp
	return nil
}

func (s *memTicketStore) GetByID(_ context.Context, id uuid.UUID) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		err := s.getErr
		s.getErr = nil
		return nil, err
	}
	if s.pendingGetErr != nil {
		err := s.pendingGetErr
		s.pendingGetErr = nil
		return nil, err
	}
	ticket, ok := s.tickets[id]
	if !ok {
		return nil, nil
	}
	cp := *ticket
	return &cp, nil
}

func (s *memTicketStore) Transition(_ context.Context, id uuid.UUID, from, to models.TicketStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[id]
	if !ok || ticket.Status != from {
		return false, nil
	}
	ticket.Status = to
	ticket.UpdatedAt = s.now()
	if s.getErrAfterTransition != nil {
		s.pendingGetErr = s.getErrAfterTransition
		s.getErrAfterTransition = nil
	}
	return true, nil
}

func (s *memTicketStore) GetExpired(_ context.Context, cutoff time.Time, limit int) ([]models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var overdue []models.Ticket
	for _, t := range s.tickets {
		if t.Status == models.TicketReserved && !t.CreatedAt.After(cutoff) {
			overdue = append(overdue, *t)
		}
	}
	sort.Slice(overdue, func(i, j int) bool { return overdue[i].CreatedAt.Before(overdue[j].CreatedAt) })
	if len(overdue) > limit {
		overdue = overdue[:limit]
	}
	return overdue, nil
}

func (s *memTicketStore) GetByUserID(_ context.Context, userID uuid.UUID, skip, limit int) ([]models.TicketWithEventResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.TicketWithEventResponse
	for _, t := range s.tickets {
		if t.UserID != userID {
			continue
		}
		out = append(out, models.TicketWithEventResponse{
			ID:         t.ID,
			UserID:     t.UserID,
			EventID:    t.EventID,
			Status:     t.Status,
			CreatedAt:  t.CreatedAt,
			EventTitle: s.titles[t.EventID],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if skip >= len(out) {
		return nil, nil
	}
	end := skip + limit
	if end > len(out) {
		end = len(out)
	}
	return out[skip:end], nil
}

type memUserStore struct {
	mu     sync.Mutex
	users  map[uuid.UUID]*models.User
	emails map[string]bool
}

func newMemUserStore() *memUserStore {
	return &memUserStore{
		users:  make(map[uuid.UUID]*models.User),
		emails: make(map[string]bool),
	}
}

func (s *memUserStore) Create(_ context.Context, user *models.User) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emails[user.Email] {
		return false, nil
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now().UTC()
	s.emails[user.Email] = true
	cp := *user
	s.users[user.ID] = &cp
	return true, nil
}

func (s *memUserStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *user
	return &cp, nil
}

// capturePublisher records published messages for assertions.
type capturePublisher struct {
	mu       sync.Mutex
	subjects []string
	payloads []interface{}
}

func (p *capturePublisher) Publish(subject string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, data)
	return nil
}

func (p *capturePublisher) published(subject string) []interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []interface{}
	for i, s := range p.subjects {
		if s == subject {
			out = append(out, p.payloads[i])
		}
	}
	return out
}
