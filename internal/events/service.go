package events

import (
	"context"
	"fmt"
	"time"

	"github.com/dhima/audittrail/internal/metrics"
	"github.com/dhima/audittrail/internal/models"
	"github.com/dhima/audittrail/pkg/audittrail"
	platformEvents "github.com/dhima/audittrail/platform/events"
	"go.uber.org/zap"
)

// Service stores audit events, mirrors them to Kafka and serves queries.
// It satisfies audittrail.Store.
type Service struct {
	store     EventStore
	publisher EventPublisher
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

var _ audittrail.Store = (*Service)(nil)

// NewService creates a new Service. publisher and m may be nil.
func NewService(store EventStore, publisher EventPublisher, logger *zap.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		publisher: publisher,
		logger:    logger,
		metrics:   m,
	}
}

// SaveEvent persists the event and then mirrors it. The database row is the
// record of truth: a mirror failure is logged and counted but not returned.
func (s *Service) SaveEvent(ctx context.Context, event *audittrail.Event) error {
	start := time.Now()
	if s.metrics != nil {
		defer s.metrics.ObserveSave(start)
	}

	if err := s.store.CreateEvent(ctx, event); err != nil {
		s.logger.Error("failed to create audit event",
			zap.String("event_id", event.ID),
			zap.String("request_path", event.RequestPath),
			zap.Error(err))
		s.countFailure(metrics.StagePersist)
		return fmt.Errorf("failed to create audit event: %w", err)
	}

	if s.metrics != nil {
		s.metrics.IncrementRecorded()
	}
	s.logger.Info("audit event recorded",
		zap.String("event_id", event.ID),
		zap.String("request_path", event.RequestPath),
		zap.String("request_id", event.RequestID))

	if s.publisher == nil {
		return nil
	}

	if err := s.publisher.Publish(ctx, platformEvents.NewAuditMessage(event)); err != nil {
		s.logger.Warn("failed to mirror audit event to Kafka",
			zap.String("event_id", event.ID),
			zap.Error(err))
		s.countFailure(metrics.StageMirror)
	}

	return nil
}

// QueryEvents retrieves audit events with filtering and pagination.
func (s *Service) QueryEvents(ctx context.Context, query models.ListEventsQuery) ([]audittrail.Event, models.Pagination, error) {
	events, totalCount, err := s.store.ListEvents(ctx, query)
	if err != nil {
		s.logger.Error("failed to query audit events",
			zap.String("user_id", query.UserID),
			zap.String("content_type", query.ContentType),
			zap.Error(err))
		return nil, models.Pagination{}, fmt.Errorf("failed to query audit events: %w", err)
	}

	page, limit := query.Normalize()
	pagination := models.NewPagination(page, limit, totalCount)

	s.logger.Debug("queried audit events",
		zap.Int("count", len(events)),
		zap.Int64("total", totalCount),
		zap.Int("page", page))

	return events, pagination, nil
}

// GetEvent retrieves a single audit event by ID; nil when not found.
func (s *Service) GetEvent(ctx context.Context, eventID string) (*audittrail.Event, error) {
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		s.logger.Error("failed to get audit event",
			zap.String("event_id", eventID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get audit event: %w", err)
	}
	return event, nil
}

// PurgeBefore deletes events recorded before cutoff.
func (s *Service) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	deleted, err := s.store.DeleteEventsBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("failed to purge audit events",
			zap.Time("cutoff", cutoff),
			zap.Error(err))
		return 0, fmt.Errorf("failed to purge audit events: %w", err)
	}

	if s.metrics != nil {
		s.metrics.AddPurged(deleted)
	}
	s.logger.Info("purged audit events",
		zap.Time("cutoff", cutoff),
		zap.Int64("deleted", deleted))

	return deleted, nil
}

func (s *Service) countFailure(stage string) {
	if s.metrics != nil {
		s.metrics.IncrementFailure(stage)
	}
}
