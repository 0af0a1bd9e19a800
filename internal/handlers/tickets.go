package handlers

import (
	"net/http"

	"gotix/internal/models"

	"github.com/gin-gonic/gin"
)

// ReserveTicket - POST /api/tickets
func (h *Handlers) ReserveTicket(c *gin.Context) {
	var req models.ReserveTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ticket, err := h.services.Tickets.Reserve(c.Request.Context(), req.UserID, req.EventID)
	if err != nil {
		h.handleServiceError(c, err, "Failed to reserve ticket")
		return
	}

	c.JSON(http.StatusCreated, ticket.ToResponse())
}

// GetTicket - GET /api/tickets/:id
func (h *Handlers) GetTicket(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ticket, err := h.services.Tickets.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err, "Failed to get ticket")
		return
	}

	c.JSON(http.StatusOK, ticket.ToResponse())
}

// PayTicket - POST /api/tickets/:id/pay
func (h *Handlers) PayTicket(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ticket, err := h.services.Tickets.Pay(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err, "Failed to pay ticket")
		return
	}

	c.JSON(http.StatusOK, ticket.ToResponse())
}
