package port

import (
	"context"

	"github.com/karahan-cpu/martek-marina/internal/core/domain"
)

// EventPublisher publishes access security events to the message bus.
type EventPublisher interface {
	PublishAccessDenied(ctx context.Context, event domain.AccessDeniedEvent) error
	PublishAccessGranted(ctx context.Context, event domain.AccessGrantedEvent) error
	PublishServicesUpdated(ctx context.Context, event domain.ServicesUpdatedEvent) error
}
