package middleware

import (
	"github.com/dhima/audittrail/pkg/audittrail"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader is the header name for request ID.
	RequestIDHeader = audittrail.RequestIDHeader
	// RequestIDKey is the context key for request ID. Audit events copy it.
	RequestIDKey = audittrail.RequestIDKey

	maxRequestIDLength = audittrail.MaxRequestIDLength
)

// RequestID injects a request ID into each request. A client supplied
// X-Request-ID is reused unless it is longer than maxRequestIDLength;
// otherwise a new UUID is generated.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.New().String()
		}

		c.Set(RequestIDKey, requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)

		c.Next()
	}
}
