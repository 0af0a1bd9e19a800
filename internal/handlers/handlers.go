package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"gotix/internal/apperrors"
	"gotix/internal/cache"
	"gotix/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	maxRadiusKm      = 500.0
)

type Handlers struct {
	services    *service.Services
	cacheClient *cache.Client
}

func NewHandlers(services *service.Services, cacheClient *cache.Client) *Handlers {
	return &Handlers{
		services:    services,
		cacheClient: cacheClient,
	}
}

// handleServiceError maps domain errors to HTTP statuses. Anything
// unrecognized is a 500 with a generic message.
func (h *Handlers) handleServiceError(c *gin.Context, err error, fallback string) {
	var invalidState *apperrors.InvalidStateError

	switch {
	case errors.Is(err, apperrors.ErrEventNotFound),
		errors.Is(err, apperrors.ErrTicketNotFound),
		errors.Is(err, apperrors.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrSoldOut),
		errors.Is(err, apperrors.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &invalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNoUserLocation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// parseID parses a uuid path parameter, responding 400 on failure.
func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param + " format"})
		return uuid.Nil, false
	}
	return id, true
}

// parsePagination reads skip/limit query parameters, responding 400 on
// out-of-range values.
func parsePagination(c *gin.Context) (skip, limit int, ok bool) {
	skip, _ = strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageLimit)))

	if skip < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "skip must be >= 0"})
		return 0, 0, false
	}
	if limit < 1 || limit > maxPageLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
		return 0, 0, false
	}
	return skip, limit, true
}
