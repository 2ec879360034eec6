package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dhima/audittrail/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_WhenCountersRecorded_ThenExposesPrometheusText(t *testing.T) {
	// Arrange
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.IncrementRecorded()
	m.IncrementFailure(metrics.StageMirror)
	router := gin.New()
	router.GET("/metrics", Metrics(reg))
	w := httptest.NewRecorder()

	// Act
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "audittrail_events_recorded_total 1")
	assert.Contains(t, body, `audittrail_event_failures_total{stage="mirror"} 1`)
}
