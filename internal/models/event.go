package models

import (
	"time"

	"github.com/dhima/audittrail/pkg/audittrail"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListEventsQuery represents query parameters for listing audit events.
type ListEventsQuery struct {
	UserID      string `form:"user_id" example:"17"`
	ContentType string `form:"content_type" example:"auth.user"`
	ObjectID    string `form:"object_id" example:"42"`
	RequestPath string `form:"request_path" example:"/api/v1/events"`
	Page        int    `form:"page" binding:"omitempty,min=1" example:"1"`
	Limit       int    `form:"limit" binding:"omitempty,min=1,max=100" example:"20"`
} // @name ListEventsQuery

// Normalize returns the effective page and page size.
func (q ListEventsQuery) Normalize() (page, limit int) {
	page, limit = q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

// ObjectResponse is the object an audit event points at.
type ObjectResponse struct {
	Type string `json:"type" example:"auth.user"`
	ID   string `json:"id" example:"42"`
} // @name ObjectResponse

// EventResponse represents a single audit event in API responses.
type EventResponse struct {
	ID               string          `json:"id" example:"660e8400-e29b-41d4-a716-446655440000"`
	UserID           *string         `json:"user_id,omitempty" example:"17"`
	UserDescription  string          `json:"user_description" example:"jane <jane@example.com>"`
	IPAddr           string          `json:"ip_addr" example:"203.0.113.7"`
	EventTime        time.Time       `json:"event_time" example:"2025-11-05T10:30:00Z"`
	RequestPath      string          `json:"request_path" example:"/api/v1/invoices/42"`
	EventDescription string          `json:"event_description" example:"Invoice 42 approved"`
	Object           *ObjectResponse `json:"object,omitempty"`
	RequestID        string          `json:"request_id,omitempty" example:"4b8f6c1e-2d7a-4f53-9d2e-0f1a2b3c4d5e"`
	Method           string          `json:"method" example:"POST"`
	StatusCode       int             `json:"status_code" example:"200"`
} // @name EventResponse

// NewEventResponse maps a stored event to its API representation.
func NewEventResponse(e audittrail.Event) EventResponse {
	resp := EventResponse{
		ID:               e.ID,
		UserID:           e.UserID,
		UserDescription:  e.UserDescription,
		IPAddr:           e.IPAddr,
		EventTime:        e.EventTime,
		RequestPath:      e.RequestPath,
		EventDescription: e.EventDescription,
		RequestID:        e.RequestID,
		Method:           e.Method,
		StatusCode:       e.StatusCode,
	}
	if obj, ok := e.Object(); ok {
		resp.Object = &ObjectResponse{Type: obj.Type, ID: obj.ID}
	}
	return resp
}

// EventListResponse represents the response for listing audit events.
type EventListResponse struct {
	Events     []EventResponse `json:"events"`
	Pagination Pagination      `json:"pagination"`
} // @name EventListResponse

// Pagination represents pagination metadata.
type Pagination struct {
	CurrentPage  int   `json:"current_page" example:"1"`
	PageSize     int   `json:"page_size" example:"20"`
	TotalPages   int   `json:"total_pages" example:"5"`
	TotalRecords int64 `json:"total_records" example:"100"`
} // @name Pagination

// NewPagination computes page counts for a result set.
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := int(total) / limit
	if int(total)%limit != 0 {
		totalPages++
	}
	return Pagination{
		CurrentPage:  page,
		PageSize:     limit,
		TotalPages:   totalPages,
		TotalRecords: total,
	}
}
