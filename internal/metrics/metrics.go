package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Failure stages reported on EventFailures.
const (
	StagePersist = "persist"
	StageMirror  = "mirror"
)

// Metrics holds the Prometheus collectors for the audit trail.
type Metrics struct {
	EventsRecorded prometheus.Counter
	EventFailures  *prometheus.CounterVec
	EventsPurged   prometheus.Counter
	SaveDuration   prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EventsRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "audittrail_events_recorded_total",
			Help: "Total number of audit events persisted",
		}),
		EventFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "audittrail_event_failures_total",
			Help: "Audit event write failures by stage (persist, mirror)",
		}, []string{"stage"}),
		EventsPurged: factory.NewCounter(prometheus.CounterOpts{
			Name: "audittrail_events_purged_total",
			Help: "Total number of audit events removed by retention",
		}),
		SaveDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "audittrail_save_duration_seconds",
			Help:    "Duration of audit event persistence including the mirror write",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementRecorded records a persisted event.
func (m *Metrics) IncrementRecorded() {
	m.EventsRecorded.Inc()
}

// IncrementFailure records a failure at the given stage.
func (m *Metrics) IncrementFailure(stage string) {
	m.EventFailures.WithLabelValues(stage).Inc()
}

// AddPurged records events removed by retention.
func (m *Metrics) AddPurged(n int64) {
	if n > 0 {
		m.EventsPurged.Add(float64(n))
	}
}

// ObserveSave records the duration of a save. Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSave(start time.Time) {
	m.SaveDuration.Observe(time.Since(start).Seconds())
}
