package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dhima/audittrail/pkg/audittrail"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// AuditMessage is the JSON document mirrored to Kafka for every stored event.
type AuditMessage struct {
	EventID          string    `json:"event_id"`
	UserID           *string   `json:"user_id,omitempty"`
	UserDescription  string    `json:"user_description"`
	IPAddr           string    `json:"ip_addr"`
	EventTime        time.Time `json:"event_time"`
	RequestPath      string    `json:"request_path"`
	EventDescription string    `json:"event_description"`
	ContentType      *string   `json:"content_type,omitempty"`
	ObjectID         *string   `json:"object_id,omitempty"`
	RequestID        string    `json:"request_id,omitempty"`
	Method           string    `json:"method"`
	StatusCode       int       `json:"status_code"`
}

// NewAuditMessage builds the mirrored document for an event.
func NewAuditMessage(e *audittrail.Event) AuditMessage {
	return AuditMessage{
		EventID:          e.ID,
		UserID:           e.UserID,
		UserDescription:  e.UserDescription,
		IPAddr:           e.IPAddr,
		EventTime:        e.EventTime,
		RequestPath:      e.RequestPath,
		EventDescription: e.EventDescription,
		ContentType:      e.ContentType,
		ObjectID:         e.ObjectID,
		RequestID:        e.RequestID,
		Method:           e.Method,
		StatusCode:       e.StatusCode,
	}
}

// Publisher mirrors audit events to a Kafka topic. Writes are synchronous
// and attempted once.
type Publisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewPublisher creates a Kafka publisher for the given brokers and topic.
func NewPublisher(brokers []string, topic string, logger *zap.Logger) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  1,
			BatchSize:    1,
			WriteTimeout: 10 * time.Second,
			Async:        false,
		},
		logger: logger,
	}
}

// Publish writes one message keyed by event ID, so all copies of an event
// land on the same partition.
func (p *Publisher) Publish(ctx context.Context, msg AuditMessage) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal audit message: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.EventID),
		Value: value,
		Time:  msg.EventTime,
	})
	if err != nil {
		p.logger.Error("failed to publish audit message",
			zap.String("event_id", msg.EventID),
			zap.String("topic", p.writer.Topic),
			zap.Error(err),
		)
		return fmt.Errorf("write audit message: %w", err)
	}

	p.logger.Debug("audit message published",
		zap.String("event_id", msg.EventID),
		zap.String("topic", p.writer.Topic),
	)
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
