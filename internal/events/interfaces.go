package events

import (
	"context"
	"time"

	"github.com/dhima/audittrail/internal/models"
	"github.com/dhima/audittrail/pkg/audittrail"
	platformEvents "github.com/dhima/audittrail/platform/events"
)

// EventStore defines persistence required by the audit event service.
type EventStore interface {
	CreateEvent(ctx context.Context, event *audittrail.Event) error
	GetEvent(ctx context.Context, eventID string) (*audittrail.Event, error)
	ListEvents(ctx context.Context, query models.ListEventsQuery) ([]audittrail.Event, int64, error)
	DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// EventPublisher abstracts the Kafka mirror for testability.
type EventPublisher interface {
	Publish(ctx context.Context, msg platformEvents.AuditMessage) error
}
