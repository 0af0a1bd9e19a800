package handlers

import (
	"log/slog"
	"net/http"

	"gotix/internal/models"

	"github.com/gin-gonic/gin"
)

// CreateEvent - POST /api/events
func (h *Handlers) CreateEvent(c *gin.Context) {
	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.services.Events.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err, "Failed to create event")
		return
	}

	// Listing pages are stale now
	if h.cacheClient != nil {
		if err := h.cacheClient.InvalidateEventsList(c.Request.Context()); err != nil {
			slog.Error("Failed to invalidate events cache", "error", err)
		}
	}

	c.JSON(http.StatusCreated, event.ToResponse())
}

// GetEvent - GET /api/events/:id
func (h *Handlers) GetEvent(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	event, err := h.services.Events.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err, "Failed to get event")
		return
	}

	c.JSON(http.StatusOK, event.ToResponse())
}

// ListEvents - GET /api/events
func (h *Handlers) ListEvents(c *gin.Context) {
	skip, limit, ok := parsePagination(c)
	if !ok {
		return
	}

	if h.cacheClient != nil {
		rawJSON, err := h.cacheClient.GetEventsListRaw(c.Request.Context(), skip, limit)
		if err == nil {
			slog.Debug("Cache hit for events list", "skip", skip, "limit", limit)
			c.Data(http.StatusOK, "application/json", rawJSON)
			return
		}
	}

	response, err := h.services.Events.List(c.Request.Context(), skip, limit)
	if err != nil {
		h.handleServiceError(c, err, "Failed to list events")
		return
	}

	if h.cacheClient != nil {
		if err := h.cacheClient.SetEventsList(c.Request.Context(), skip, limit, response); err != nil {
			slog.Error("Failed to cache events list", "error", err)
		}
	}

	c.JSON(http.StatusOK, response)
}
