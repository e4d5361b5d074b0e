package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/karahan-cpu/martek-marina/internal/core/domain"
	"github.com/karahan-cpu/martek-marina/internal/core/port"
	"github.com/karahan-cpu/martek-marina/internal/infra/config"
)

const schemaVersion = "1.0"

// Event types carried on the bus. The producer prefixes the configured topic
// prefix, so "access.denied" becomes "marina.access.denied" by default.
const (
	EventAccessDenied    = "access.denied"
	EventAccessGranted   = "access.granted"
	EventServicesUpdated = "pedestal.services.updated"
)

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	UserID    string           `json:"user_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventType, userID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	if span := trace.SpanFromContext(ctx); span != nil {
		if sc := span.SpanContext(); sc.IsValid() {
			metadata["trace_id"] = sc.TraceID().String()
		}
	}

	envelope := eventEnvelope{
		EventID:   uuid.NewString(),
		EventType: eventType,
		UserID:    userID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishAccessDenied publishes marina.access.denied events.
func (p *EventPublisher) PublishAccessDenied(ctx context.Context, event domain.AccessDeniedEvent) error {
	payload := struct {
		UserID        string    `json:"user_id"`
		PedestalID    string    `json:"pedestal_id"`
		TotalFailed   int       `json:"total_failed"`
		LockedSeconds int       `json:"locked_seconds"`
		OccurredAt    time.Time `json:"occurred_at"`
	}{
		UserID:        event.UserID,
		PedestalID:    event.PedestalID,
		TotalFailed:   event.TotalFailed,
		LockedSeconds: int(event.LockedFor.Seconds()),
		OccurredAt:    event.OccurredAt.UTC(),
	}

	return p.publish(ctx, EventAccessDenied, event.UserID, event.OccurredAt, payload)
}

// PublishAccessGranted publishes marina.access.granted events.
func (p *EventPublisher) PublishAccessGranted(ctx context.Context, event domain.AccessGrantedEvent) error {
	payload := struct {
		UserID           string    `json:"user_id"`
		PedestalID       string    `json:"pedestal_id"`
		PreviousFailures int       `json:"previous_failures"`
		OccurredAt       time.Time `json:"occurred_at"`
	}{
		UserID:           event.UserID,
		PedestalID:       event.PedestalID,
		PreviousFailures: event.PreviousFailures,
		OccurredAt:       event.OccurredAt.UTC(),
	}

	return p.publish(ctx, EventAccessGranted, event.UserID, event.OccurredAt, payload)
}

// PublishServicesUpdated publishes marina.pedestal.services.updated events.
func (p *EventPublisher) PublishServicesUpdated(ctx context.Context, event domain.ServicesUpdatedEvent) error {
	payload := struct {
		UserID             string    `json:"user_id"`
		PedestalID         string    `json:"pedestal_id"`
		WaterEnabled       bool      `json:"water_enabled"`
		ElectricityEnabled bool      `json:"electricity_enabled"`
		OccurredAt         time.Time `json:"occurred_at"`
	}{
		UserID:             event.UserID,
		PedestalID:         event.PedestalID,
		WaterEnabled:       event.WaterEnabled,
		ElectricityEnabled: event.ElectricityEnabled,
		OccurredAt:         event.OccurredAt.UTC(),
	}

	return p.publish(ctx, EventServicesUpdated, event.UserID, event.OccurredAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
