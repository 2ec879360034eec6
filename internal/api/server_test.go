package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dhima/audittrail/internal/api/handlers"
	"github.com/dhima/audittrail/internal/auth"
	"github.com/dhima/audittrail/internal/logging"
	"github.com/dhima/audittrail/internal/testutil/fakes"
	"github.com/dhima/audittrail/pkg/audittrail"
	"github.com/dhima/audittrail/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	server    *Server
	store     *fakes.FakeEventStore
	publisher *fakes.FakePublisher
}

func newTestServer(t *testing.T, vars map[string]string) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if vars == nil {
		vars = map[string]string{}
	}
	vars["ENVIRONMENT"] = "test"
	cfg, err := config.LoadFrom(vars)
	require.NoError(t, err)

	store := fakes.NewFakeEventStore()
	publisher := &fakes.FakePublisher{}
	srv := New(cfg, logging.NewNoOpLogger(), Dependencies{
		Store:     store,
		Publisher: publisher,
		Registry:  prometheus.NewRegistry(),
	})
	return testServer{server: srv, store: store, publisher: publisher}
}

func (ts testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(w, req)
	return w
}

func TestListEvents_WhenAnonymous_ThenRecordsAnonymousAuditEvent(t *testing.T) {
	// Arrange
	ts := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	req.Header.Set("X-Request-ID", "req-42")

	// Act
	w := ts.do(req)

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	ev, ok := ts.store.Last()
	require.True(t, ok)
	assert.Nil(t, ev.UserID)
	assert.Equal(t, "", ev.UserDescription)
	assert.Equal(t, "192.0.2.1", ev.IPAddr)
	assert.Equal(t, "/api/v1/events", ev.RequestPath)
	assert.Equal(t, handlers.ListEventsDescription, ev.EventDescription)
	assert.Equal(t, "req-42", ev.RequestID)
	assert.Equal(t, http.StatusOK, ev.StatusCode)
	assert.Nil(t, ev.ContentType)
	assert.WithinDuration(t, time.Now().UTC(), ev.EventTime, time.Minute)

	published := ts.publisher.Published()
	require.Len(t, published, 1)
	assert.Equal(t, ev.ID, published[0].EventID)
}

func TestGetEvent_WhenAuthenticated_ThenRecordsUserAndViewedObject(t *testing.T) {
	// Arrange
	ts := newTestServer(t, map[string]string{"JWT_SECRET": "s3cret"})
	token, err := auth.NewTokenService("s3cret", "audittrail").IssueToken(auth.User{ID: "17", Name: "jane"}, time.Minute)
	require.NoError(t, err)

	ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))
	listed, ok := ts.store.Last()
	require.True(t, ok)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events/"+listed.ID, nil)
	req.Header.Set("Authorization", "Bearer "+token)

	// Act
	w := ts.do(req)

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), listed.ID)
	ev, ok := ts.store.Last()
	require.True(t, ok)
	require.NotNil(t, ev.UserID)
	assert.Equal(t, "17", *ev.UserID)
	assert.Equal(t, "jane", ev.UserDescription)
	assert.Equal(t, "Viewed audit event "+listed.ID, ev.EventDescription)
	obj, ok := ev.Object()
	require.True(t, ok)
	assert.Equal(t, audittrail.ObjectRef{Type: handlers.EventContentType, ID: listed.ID}, obj)
}

func TestGetEvent_WhenMissing_ThenRecordsWithoutObjectReference(t *testing.T) {
	// Arrange
	ts := newTestServer(t, nil)

	// Act
	w := ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/events/missing", nil))

	// Assert
	assert.Equal(t, http.StatusNotFound, w.Code)
	ev, ok := ts.store.Last()
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, ev.StatusCode)
	assert.Equal(t, "Viewed audit event missing", ev.EventDescription)
	assert.Nil(t, ev.ContentType)
	assert.Nil(t, ev.ObjectID)
}

func TestGetEvent_WhenPathAndRequestIDLong_ThenRecordedIntact(t *testing.T) {
	// Arrange
	ts := newTestServer(t, nil)
	id := strings.Repeat("a", 2100)
	requestID := strings.Repeat("r", 100)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events/"+id, nil)
	req.Header.Set("X-Request-ID", requestID)

	// Act
	w := ts.do(req)

	// Assert
	assert.Equal(t, http.StatusNotFound, w.Code)
	ev, ok := ts.store.Last()
	require.True(t, ok)
	assert.Equal(t, "/api/v1/events/"+id, ev.RequestPath)
	assert.Equal(t, requestID, ev.RequestID)
	assert.LessOrEqual(t, len(ev.RequestID), audittrail.MaxRequestIDLength)
}

func TestListEvents_WhenTokenInvalid_ThenRejectsWithoutRecording(t *testing.T) {
	// Arrange
	ts := newTestServer(t, map[string]string{"JWT_SECRET": "s3cret"})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	req.Header.Set("Authorization", "Bearer forged")

	// Act
	w := ts.do(req)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, ts.store.Events())
}

func TestListEvents_WhenStoreFails_ThenResponseStillSucceeds(t *testing.T) {
	// Arrange
	ts := newTestServer(t, nil)
	ts.store.FailNext = true

	// Act
	w := ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, ts.store.Events())
}

func TestClientIP_WhenProxyTrusted_ThenUsesForwardedAddress(t *testing.T) {
	tests := []struct {
		name       string
		vars       map[string]string
		expectedIP string
	}{
		{name: "untrusted proxy", vars: nil, expectedIP: "192.0.2.1"},
		{name: "trusted proxy", vars: map[string]string{"TRUSTED_PROXIES": "192.0.2.0/24"}, expectedIP: "203.0.113.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			ts := newTestServer(t, tt.vars)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
			req.Header.Set("X-Forwarded-For", "203.0.113.9")

			// Act
			ts.do(req)

			// Assert
			ev, ok := ts.store.Last()
			require.True(t, ok)
			assert.Equal(t, tt.expectedIP, ev.IPAddr)
		})
	}
}

func TestHealth_WhenNoDatabase_ThenReturns200(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, ts.store.Events())
}

func TestMetrics_WhenEventRecorded_ThenCounterExposed(t *testing.T) {
	// Arrange
	ts := newTestServer(t, nil)
	ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))

	// Act
	w := ts.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "audittrail_events_recorded_total 1")
}

func TestRecorder_WhenExtraRouteDecorated_ThenRecordsThroughSameStore(t *testing.T) {
	// Arrange
	ts := newTestServer(t, nil)
	engine := ts.server.router
	engine.POST("/api/v1/invoices/:id/approve", ts.server.Recorder().Handler(
		func(c *gin.Context) { c.Status(http.StatusNoContent) },
		audittrail.Describe(func(_ *gin.Context, p gin.Params) string { return "Approved invoice " + p.ByName("id") }),
		audittrail.Target(func(_ *gin.Context, p gin.Params) (audittrail.Object, error) {
			return audittrail.ObjectRef{Type: "billing.invoice", ID: p.ByName("id")}, nil
		}),
	))

	// Act
	w := ts.do(httptest.NewRequest(http.MethodPost, "/api/v1/invoices/42/approve", nil))

	// Assert
	assert.Equal(t, http.StatusNoContent, w.Code)
	ev, ok := ts.store.Last()
	require.True(t, ok)
	assert.Equal(t, "Approved invoice 42", ev.EventDescription)
	assert.Equal(t, http.MethodPost, ev.Method)
	require.NotNil(t, ev.ContentType)
	assert.Equal(t, "billing.invoice", *ev.ContentType)
}
