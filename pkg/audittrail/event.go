// Package audittrail records who did what, from where and on which object
// for gin handlers. Wrap a handler with Recorder.Handler (or mount
// Recorder.Middleware on a route) and one Event is persisted after every
// invocation.
package audittrail

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// Event is a single audit trail record.
type Event struct {
	ID string `json:"id"`
	// UserID is nil when the action was performed without an authenticated user.
	UserID           *string   `json:"user_id,omitempty"`
	UserDescription  string    `json:"user_description"`
	IPAddr           string    `json:"ip_addr"`
	EventTime        time.Time `json:"event_time"`
	RequestPath      string    `json:"request_path"`
	EventDescription string    `json:"event_description"`
	// ContentType and ObjectID form the optional reference to the domain
	// object the action was performed on. Both are set or both are nil.
	ContentType *string `json:"content_type,omitempty"`
	ObjectID    *string `json:"object_id,omitempty"`

	RequestID  string `json:"request_id,omitempty"`
	Method     string `json:"method"`
	StatusCode int    `json:"status_code"`
}

// Object returns the referenced domain object, if any.
func (e Event) Object() (ObjectRef, bool) {
	if e.ContentType == nil || e.ObjectID == nil {
		return ObjectRef{}, false
	}
	return ObjectRef{Type: *e.ContentType, ID: *e.ObjectID}, true
}

// Store persists audit events.
type Store interface {
	SaveEvent(ctx context.Context, event *Event) error
}

// Identity is the acting user as seen by the audit trail. String is stored
// as the user description.
type Identity interface {
	fmt.Stringer
	// AuditUserID returns the stable user identifier, or "" for anonymous users.
	AuditUserID() string
}

// Object is anything an event can point at.
type Object interface {
	AuditObjectType() string
	AuditObjectID() string
}

// ObjectRef is a literal Object.
type ObjectRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

func (o ObjectRef) AuditObjectType() string { return o.Type }
func (o ObjectRef) AuditObjectID() string   { return o.ID }

const (
	userKey = "audittrail.user"

	// RequestIDKey is the gin context key holding the request correlation ID.
	RequestIDKey = "request_id"
	// RequestIDHeader is consulted when RequestIDKey is not set.
	RequestIDHeader = "X-Request-ID"
	// MaxRequestIDLength bounds the correlation ID copied into an Event.
	// Longer values are dropped.
	MaxRequestIDLength = 128
)

// SetUser attaches the acting user to the request.
func SetUser(c *gin.Context, user Identity) {
	c.Set(userKey, user)
}

// UserFromContext returns the user attached with SetUser.
func UserFromContext(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(userKey)
	if !ok || v == nil {
		return nil, false
	}
	user, ok := v.(Identity)
	if !ok || isNil(user) {
		return nil, false
	}
	return user, true
}

func requestID(c *gin.Context) string {
	id := c.GetString(RequestIDKey)
	if id == "" {
		id = c.GetHeader(RequestIDHeader)
	}
	if len(id) > MaxRequestIDLength {
		return ""
	}
	return id
}
