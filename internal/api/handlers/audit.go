package handlers

import (
	"net/http"

	"github.com/dhima/audittrail/pkg/audittrail"
	"github.com/gin-gonic/gin"
)

// EventContentType is the object type recorded when an audit event is viewed.
const EventContentType = "audittrail.event"

// Descriptions for the audited read endpoints.
const ListEventsDescription = "Listed audit events"

// DescribeEventView names the event being viewed.
func DescribeEventView(_ *gin.Context, params gin.Params) string {
	return "Viewed audit event " + params.ByName("id")
}

// ViewedEvent points the audit record at the event being viewed. Nothing is
// referenced when the lookup answered 404.
func ViewedEvent(c *gin.Context, params gin.Params) (audittrail.Object, error) {
	if c != nil && c.Writer.Status() == http.StatusNotFound {
		return nil, nil
	}
	return audittrail.ObjectRef{Type: EventContentType, ID: params.ByName("id")}, nil
}
