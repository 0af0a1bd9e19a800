package handlers

import (
	"net/http"
	"strconv"

	"gotix/internal/models"

	"github.com/gin-gonic/gin"
)

// CreateUser - POST /api/users
func (h *Handlers) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.services.Users.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err, "Failed to create user")
		return
	}

	c.JSON(http.StatusCreated, user.ToResponse())
}

// GetUser - GET /api/users/:id
func (h *Handlers) GetUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	user, err := h.services.Users.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err, "Failed to get user")
		return
	}

	c.JSON(http.StatusOK, user.ToResponse())
}

// RelevantEvents - GET /api/users/:id/relevant-events
func (h *Handlers) RelevantEvents(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	skip, limit, ok := parsePagination(c)
	if !ok {
		return
	}

	radiusKm := 0.0
	if radiusParam := c.Query("radius_km"); radiusParam != "" {
		r, err := strconv.ParseFloat(radiusParam, 64)
		if err != nil || r < 1 || r > maxRadiusKm {
			c.JSON(http.StatusBadRequest, gin.H{"error": "radius_km must be between 1 and 500"})
			return
		}
		radiusKm = r
	}

	events, err := h.services.Users.RelevantEvents(c.Request.Context(), id, radiusKm, skip, limit)
	if err != nil {
		h.handleServiceError(c, err, "Failed to search events")
		return
	}

	c.JSON(http.StatusOK, events)
}

// UserTickets - GET /api/users/:id/tickets
func (h *Handlers) UserTickets(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	skip, limit, ok := parsePagination(c)
	if !ok {
		return
	}

	tickets, err := h.services.Users.TicketHistory(c.Request.Context(), id, skip, limit)
	if err != nil {
		h.handleServiceError(c, err, "Failed to get user tickets")
		return
	}

	c.JSON(http.StatusOK, tickets)
}
