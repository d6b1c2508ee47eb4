// Package events announces committed reservation changes to other services.
package events

import (
	"context"
	"fmt"
	"time"

	"staybook/pkg/kafka"
	"staybook/pkg/logger"
	"staybook/pkg/model"
)

const (
	TypeCreated       = "reservation.created"
	TypeAmended       = "reservation.amended"
	TypeStatusChanged = "reservation.status_changed"

	schemaVersion = "1"
)

type Event struct {
	Type           string
	Reservation    *model.Reservation
	PreviousStatus *model.Status
	OccurredAt     time.Time
}

type payload struct {
	Type           string             `json:"type"`
	Reservation    *model.Reservation `json:"reservation"`
	PreviousStatus *model.Status      `json:"previous_status,omitempty"`
	OccurredAt     time.Time          `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type messageProducer interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// KafkaPublisher writes events keyed by resource id so every resource's
// history lands on one partition in commit order.
type KafkaPublisher struct {
	producer messageProducer
	source   string
}

func NewKafkaPublisher(producer messageProducer, source string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, source: source}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	if event.Reservation == nil {
		return fmt.Errorf("%w: event %s has no reservation", kafka.ErrInvalidMessage, event.Type)
	}

	msg := kafka.NewMessage().
		WithKey(event.Reservation.ResourceID).
		WithValue(payload{
			Type:           event.Type,
			Reservation:    event.Reservation,
			PreviousStatus: event.PreviousStatus,
			OccurredAt:     event.OccurredAt,
		}).
		WithEventType(event.Type).
		WithSchemaVersion(schemaVersion).
		WithSource(p.source).
		WithTimestamp(event.OccurredAt)

	if id := logger.RequestIDFromContext(ctx); id != "" {
		msg = msg.WithCorrelationID(id)
	}

	return p.producer.Publish(ctx, msg.Build())
}

// NopPublisher drops every event. Used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
