package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"gotix/internal/apperrors"
	"gotix/internal/clock"
	"gotix/internal/models"
	"gotix/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore backs all three store interfaces for handler tests.
type memStore struct {
	mu     sync.Mutex
	events map[uuid.UUID]*models.Event
	ticks  map[uuid.UUID]*models.Ticket
	users  map[uuid.UUID]*models.User
	emails map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		events: make(map[uuid.UUID]*models.Event),
		ticks:  make(map[uuid.UUID]*models.Ticket),
		users:  make(map[uuid.UUID]*models.User),
		emails: make(map[string]bool),
	}
}

func (s *memStore) Create(_ context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	event.ID = uuid.New()
	event.CreatedAt = time.Now().UTC()
	cp := *event
	s.events[event.ID] = &cp
	return nil
}

func (s *memStore) GetByID(_ context.Context, id uuid.UUID) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (s *memStore) List(_ context.Context, _, _ int) ([]models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, *e)
	}
	return out, nil
}

func (s *memStore) TryReserve(_ context.Context, eventID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return apperrors.ErrEventNotFound
	}
	if e.SoldCount >= e.TotalCapacity {
		return apperrors.ErrSoldOut
	}
	e.SoldCount++
	return nil
}

func (s *memStore) Release(_ context.Context, eventID uuid.UUID, amount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return apperrors.ErrEventNotFound
	}
	if e.SoldCount < amount {
		return apperrors.ErrCapacityUnderflow
	}
	e.SoldCount -= amount
	return nil
}

func (s *memStore) GetNear(_ context.Context, _, _, _ float64, _, _ int) ([]models.Event, []float64, error) {
	return nil, nil, nil
}

type memTickets struct{ store *memStore }

func (s memTickets) Create(_ context.Context, ticket *models.Ticket) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	ticket.ID = uuid.New()
	ticket.CreatedAt = time.Now().UTC()
	cp := *ticket
	s.store.ticks[ticket.ID] = &cp
	return nil
}

func (s memTickets) GetByID(_ context.Context, id uuid.UUID) (*models.Ticket, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	t, ok := s.store.ticks[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (s memTickets) Transition(_ context.Context, id uuid.UUID, from, to models.TicketStatus) (bool, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	t, ok := s.store.ticks[id]
	if !ok || t.Status != from {
		return false, nil
	}
	t.Status = to
	return true, nil
}

func (s memTickets) GetExpired(_ context.Context, _ time.Time, _ int) ([]models.Ticket, error) {
	return nil, nil
}

func (s memTickets) GetByUserID(_ context.Context, userID uuid.UUID, _, _ int) ([]models.TicketWithEventResponse, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	var out []models.TicketWithEventResponse
	for _, t := range s.store.ticks {
		if t.UserID == userID {
			out = append(out, models.TicketWithEventResponse{
				ID: t.ID, UserID: t.UserID, EventID: t.EventID,
				Status: t.Status, CreatedAt: t.CreatedAt,
			})
		}
	}
	return out, nil
}

type memUsers struct{ store *memStore }

func (s memUsers) Create(_ context.Context, user *models.User) (bool, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if s.store.emails[user.Email] {
		return false, nil
	}
	user.ID = uuid.New()
	s.store.emails[user.Email] = true
	cp := *user
	s.store.users[user.ID] = &cp
	return true, nil
}

func (s memUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	u, ok := s.store.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(_ string, _ interface{}) error { return nil }

type apiFixture struct {
	router *gin.Engine
	store  *memStore
}

func setupRouter(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newMemStore()
	eventService := service.NewEventService(store, nil, 50)
	ticketService := service.NewTicketService(memTickets{store}, store, memUsers{store}, noopPublisher{}, clock.NewSystem(), 120*time.Second)
	userService := service.NewUserService(memUsers{store}, memTickets{store}, eventService)

	h := NewHandlers(&service.Services{
		Events:  eventService,
		Tickets: ticketService,
		Users:   userService,
	}, nil)

	r := gin.New()
	api := r.Group("/api")
	{
		events := api.Group("/events")
		{
			events.POST("", h.CreateEvent)
			events.GET("", h.ListEvents)
			events.GET("/:id", h.GetEvent)
		}
		tickets := api.Group("/tickets")
		{
			tickets.POST("", h.ReserveTicket)
			tickets.GET("/:id", h.GetTicket)
			tickets.POST("/:id/pay", h.PayTicket)
		}
		users := api.Group("/users")
		{
			users.POST("", h.CreateUser)
			users.GET("/:id", h.GetUser)
			users.GET("/:id/relevant-events", h.RelevantEvents)
			users.GET("/:id/tickets", h.UserTickets)
		}
	}

	return &apiFixture{router: r, store: store}
}

func (f *apiFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewBuffer(jsonBody)
	} else {
		buf = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, path, buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *apiFixture) createUser(t *testing.T) models.UserResponse {
	t.Helper()
	w := f.do(t, "POST", "/api/users", models.CreateUserRequest{
		Name:  "Alice",
		Email: uuid.New().String() + "@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var user models.UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	return user
}

func (f *apiFixture) createEvent(t *testing.T, capacity int) models.EventResponse {
	t.Helper()
	w := f.do(t, "POST", "/api/events", models.CreateEventRequest{
		Title:         "Jazz Night",
		StartTime:     time.Now().Add(24 * time.Hour),
		EndTime:       time.Now().Add(27 * time.Hour),
		TotalCapacity: capacity,
		Venue: models.CreateVenueRequest{
			Name:      "City Hall",
			Address:   "1 Main St",
			Latitude:  6.5244,
			Longitude: 3.3792,
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var event models.EventResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &event))
	return event
}

func TestCreateEventEndpoint(t *testing.T) {
	f := setupRouter(t)
	event := f.createEvent(t, 100)

	assert.Equal(t, "Jazz Night", event.Title)
	assert.Equal(t, 100, event.AvailableTickets)
}

func TestCreateEventRejectsZeroCapacity(t *testing.T) {
	f := setupRouter(t)

	w := f.do(t, "POST", "/api/events", gin.H{
		"title":          "Bad Event",
		"start_time":     time.Now().Add(24 * time.Hour),
		"end_time":       time.Now().Add(26 * time.Hour),
		"total_capacity": 0,
		"venue": gin.H{
			"name": "Hall", "address": "1 Main St",
			"latitude": 6.5, "longitude": 3.4,
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetEventNotFoundEndpoint(t *testing.T) {
	f := setupRouter(t)

	w := f.do(t, "GET", "/api/events/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetEventBadID(t *testing.T) {
	f := setupRouter(t)

	w := f.do(t, "GET", "/api/events/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReserveTicketEndpoint(t *testing.T) {
	f := setupRouter(t)
	user := f.createUser(t)
	event := f.createEvent(t, 1)

	w := f.do(t, "POST", "/api/tickets", models.ReserveTicketRequest{
		UserID:  user.ID,
		EventID: event.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var ticket models.TicketResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ticket))
	assert.Equal(t, models.TicketReserved, ticket.Status)
}

func TestReserveTicketSoldOutEndpoint(t *testing.T) {
	f := setupRouter(t)
	user := f.createUser(t)
	event := f.createEvent(t, 1)

	w := f.do(t, "POST", "/api/tickets", models.ReserveTicketRequest{UserID: user.ID, EventID: event.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, "POST", "/api/tickets", models.ReserveTicketRequest{UserID: user.ID, EventID: event.ID})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPayTicketEndpoint(t *testing.T) {
	f := setupRouter(t)
	user := f.createUser(t)
	event := f.createEvent(t, 1)

	w := f.do(t, "POST", "/api/tickets", models.ReserveTicketRequest{UserID: user.ID, EventID: event.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	var ticket models.TicketResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ticket))

	w = f.do(t, "POST", fmt.Sprintf("/api/tickets/%s/pay", ticket.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var paid models.TicketResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &paid))
	assert.Equal(t, models.TicketPaid, paid.Status)

	// Paying again conflicts with the current state
	w = f.do(t, "POST", fmt.Sprintf("/api/tickets/%s/pay", ticket.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPayUnknownTicketEndpoint(t *testing.T) {
	f := setupRouter(t)

	w := f.do(t, "POST", fmt.Sprintf("/api/tickets/%s/pay", uuid.New()), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateUserEndpoint(t *testing.T) {
	f := setupRouter(t)
	user := f.createUser(t)
	assert.NotEqual(t, uuid.Nil, user.ID)
}

func TestCreateUserDuplicateEmailEndpoint(t *testing.T) {
	f := setupRouter(t)

	req := models.CreateUserRequest{Name: "Alice", Email: "dup@example.com"}
	w := f.do(t, "POST", "/api/users", req)
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, "POST", "/api/users", req)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateUserInvalidEmail(t *testing.T) {
	f := setupRouter(t)

	w := f.do(t, "POST", "/api/users", models.CreateUserRequest{Name: "Alice", Email: "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRelevantEventsNoLocationEndpoint(t *testing.T) {
	f := setupRouter(t)
	user := f.createUser(t)

	w := f.do(t, "GET", fmt.Sprintf("/api/users/%s/relevant-events", user.ID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRelevantEventsBadRadius(t *testing.T) {
	f := setupRouter(t)
	user := f.createUser(t)

	w := f.do(t, "GET", fmt.Sprintf("/api/users/%s/relevant-events?radius_km=9999", user.ID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUserTicketsEndpoint(t *testing.T) {
	f := setupRouter(t)
	user := f.createUser(t)
	event := f.createEvent(t, 5)

	for i := 0; i < 2; i++ {
		w := f.do(t, "POST", "/api/tickets", models.ReserveTicketRequest{UserID: user.ID, EventID: event.ID})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := f.do(t, "GET", fmt.Sprintf("/api/users/%s/tickets", user.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var history []models.TicketWithEventResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	assert.Len(t, history, 2)
}

func TestListEventsPaginationValidation(t *testing.T) {
	f := setupRouter(t)

	w := f.do(t, "GET", "/api/events?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, "GET", "/api/events?limit=101", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, "GET", "/api/events?skip=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
