package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveWithRequestID(t *testing.T, header string) (string, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())

	var seen string
	router.GET("/test", func(c *gin.Context) {
		value, exists := c.Get(RequestIDKey)
		require.True(t, exists, "expected request ID to exist in context")
		seen = value.(string)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if header != "" {
		req.Header.Set(RequestIDHeader, header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return seen, w
}

func TestRequestID_WhenClientProvidesRequestID_ThenUsesProvidedID(t *testing.T) {
	// Act
	seen, w := serveWithRequestID(t, "client-provided-request-id")

	// Assert
	assert.Equal(t, "client-provided-request-id", seen)
	assert.Equal(t, "client-provided-request-id", w.Header().Get(RequestIDHeader))
}

func TestRequestID_WhenClientDoesNotProvideRequestID_ThenGeneratesNewID(t *testing.T) {
	// Act
	seen, w := serveWithRequestID(t, "")

	// Assert
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
}

func TestRequestID_WhenClientIDTooLong_ThenGeneratesNewID(t *testing.T) {
	long := strings.Repeat("x", maxRequestIDLength+1)

	seen, _ := serveWithRequestID(t, long)

	assert.NotEqual(t, long, seen)
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
}

func TestRequestID_WhenMultipleRequests_ThenGeneratesUniqueIDs(t *testing.T) {
	first, _ := serveWithRequestID(t, "")
	second, _ := serveWithRequestID(t, "")

	assert.NotEqual(t, first, second)
}
