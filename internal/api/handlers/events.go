package handlers

import (
	"context"

	"github.com/dhima/audittrail/internal/api/response"
	"github.com/dhima/audittrail/internal/logging"
	"github.com/dhima/audittrail/internal/models"
	"github.com/dhima/audittrail/pkg/audittrail"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EventQueryService reads stored audit events.
type EventQueryService interface {
	QueryEvents(ctx context.Context, query models.ListEventsQuery) ([]audittrail.Event, models.Pagination, error)
	GetEvent(ctx context.Context, eventID string) (*audittrail.Event, error)
}

// EventHandler handles audit event query requests.
type EventHandler struct {
	logger  logging.Logger
	service EventQueryService
}

// NewEventHandler creates a new event handler.
func NewEventHandler(logger logging.Logger, service EventQueryService) *EventHandler {
	return &EventHandler{
		logger:  logger.With(zap.String("handler", "event")),
		service: service,
	}
}

// ListEvents godoc
// @Summary List audit events
// @Description Retrieves audit events, newest first, with filtering and pagination.
// @Tags Events
// @Produce json
// @Param user_id query string false "Filter by acting user ID"
// @Param content_type query string false "Filter by object type"
// @Param object_id query string false "Filter by object ID"
// @Param request_path query string false "Filter by request path"
// @Param page query int false "Page number" default(1) minimum(1)
// @Param limit query int false "Items per page" default(20) minimum(1) maximum(100)
// @Success 200 {object} models.EventListResponse
// @Failure 400 {object} response.ErrorResponse "Invalid query parameters"
// @Failure 401 {object} response.ErrorResponse "Invalid bearer token"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /events [get]
func (h *EventHandler) ListEvents(c *gin.Context) {
	var query models.ListEventsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.logger.Warn("invalid list events query",
			zap.Error(err),
			zap.String("request_id", response.GetRequestID(c)),
		)
		response.BindError(c, err)
		return
	}

	events, pagination, err := h.service.QueryEvents(c.Request.Context(), query)
	if err != nil {
		h.logger.Error("failed to list events",
			zap.Error(err),
			zap.String("request_id", response.GetRequestID(c)),
		)
		response.InternalServerError(c, "failed to list events")
		return
	}

	result := models.EventListResponse{
		Events:     make([]models.EventResponse, 0, len(events)),
		Pagination: pagination,
	}
	for _, e := range events {
		result.Events = append(result.Events, models.NewEventResponse(e))
	}

	response.OK(c, result)
}

// GetEvent godoc
// @Summary Get audit event details
// @Description Retrieves a single audit event by ID.
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} models.EventResponse
// @Failure 401 {object} response.ErrorResponse "Invalid bearer token"
// @Failure 404 {object} response.ErrorResponse "Event not found"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /events/{id} [get]
func (h *EventHandler) GetEvent(c *gin.Context) {
	eventID := c.Param("id")

	event, err := h.service.GetEvent(c.Request.Context(), eventID)
	if err != nil {
		h.logger.Error("failed to get event",
			zap.String("event_id", eventID),
			zap.Error(err),
		)
		response.InternalServerError(c, "failed to get event")
		return
	}
	if event == nil {
		response.NotFound(c, "event not found")
		return
	}

	response.OK(c, models.NewEventResponse(*event))
}
