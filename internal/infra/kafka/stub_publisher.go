package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/karahan-cpu/martek-marina/internal/core/domain"
	"github.com/karahan-cpu/martek-marina/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for development environments.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, userID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.String("user_id", userID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishAccessDenied logs marina.access.denied events.
func (p *StubPublisher) PublishAccessDenied(_ context.Context, event domain.AccessDeniedEvent) error {
	payload := map[string]any{
		"user_id":        event.UserID,
		"pedestal_id":    event.PedestalID,
		"total_failed":   event.TotalFailed,
		"locked_seconds": int(event.LockedFor.Seconds()),
	}
	p.logEvent(EventAccessDenied, event.UserID, event.OccurredAt, payload)
	return nil
}

// PublishAccessGranted logs marina.access.granted events.
func (p *StubPublisher) PublishAccessGranted(_ context.Context, event domain.AccessGrantedEvent) error {
	payload := map[string]any{
		"user_id":           event.UserID,
		"pedestal_id":       event.PedestalID,
		"previous_failures": event.PreviousFailures,
	}
	p.logEvent(EventAccessGranted, event.UserID, event.OccurredAt, payload)
	return nil
}

// PublishServicesUpdated logs marina.pedestal.services.updated events.
func (p *StubPublisher) PublishServicesUpdated(_ context.Context, event domain.ServicesUpdatedEvent) error {
	payload := map[string]any{
		"user_id":             event.UserID,
		"pedestal_id":         event.PedestalID,
		"water_enabled":       event.WaterEnabled,
		"electricity_enabled": event.ElectricityEnabled,
	}
	p.logEvent(EventServicesUpdated, event.UserID, event.OccurredAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
