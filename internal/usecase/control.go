package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/karahan-cpu/martek-marina/internal/core/domain"
	"github.com/karahan-cpu/martek-marina/internal/core/port"
	"github.com/karahan-cpu/martek-marina/internal/repository"
)

// ControlService gates mutating pedestal operations behind a verified grant.
type ControlService struct {
	pedestals port.PedestalRepository
	grants    port.GrantCache
	events    port.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewControlService(
	pedestals port.PedestalRepository,
	grants port.GrantCache,
	events port.EventPublisher,
	logger *zap.Logger,
) *ControlService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ControlService{
		pedestals: pedestals,
		grants:    grants,
		events:    events,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock injects a custom clock, primarily for tests.
func (s *ControlService) WithClock(now func() time.Time) *ControlService {
	if now != nil {
		s.now = now
	}
	return s
}

// UpdateServices toggles water and electricity on a pedestal. The caller must
// hold a grant for the pedestal obtained through code verification; an update
// without one is rejected before any lookup so unverified users learn nothing
// about the pedestal.
func (s *ControlService) UpdateServices(ctx context.Context, userID, pedestalID string, update domain.ServiceUpdate) (*domain.Pedestal, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	granted, err := s.grants.HasAccess(ctx, userID, pedestalID)
	if err != nil {
		return nil, fmt.Errorf("check access grant: %w", err)
	}
	if !granted {
		s.logger.Warn("pedestal control rejected without grant",
			zap.String("user_id", userID),
			zap.String("pedestal_id", pedestalID),
		)
		return nil, ErrAccessDenied
	}

	pedestal, err := s.pedestals.UpdateServices(ctx, pedestalID, update)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPedestalNotFound
		}
		return nil, fmt.Errorf("update pedestal services: %w", err)
	}

	s.logger.Info("pedestal services updated",
		zap.String("user_id", userID),
		zap.String("pedestal_id", pedestalID),
		zap.Bool("water_enabled", pedestal.WaterEnabled),
		zap.Bool("electricity_enabled", pedestal.ElectricityEnabled),
	)

	if s.events != nil && !update.Empty() {
		if err := s.events.PublishServicesUpdated(ctx, domain.ServicesUpdatedEvent{
			UserID:             userID,
			PedestalID:         pedestalID,
			WaterEnabled:       pedestal.WaterEnabled,
			ElectricityEnabled: pedestal.ElectricityEnabled,
			OccurredAt:         s.now().UTC(),
		}); err != nil {
			s.logger.Warn("publish services updated event", zap.Error(err))
		}
	}

	return pedestal, nil
}
