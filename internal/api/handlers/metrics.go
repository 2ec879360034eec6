package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics godoc
// @Summary Prometheus metrics
// @Description Exposes audit trail counters in the Prometheus text format
// @Tags System
// @Produce plain
// @Success 200 {string} string "Prometheus exposition"
// @Router /metrics [get]
func Metrics(gatherer prometheus.Gatherer) gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}
