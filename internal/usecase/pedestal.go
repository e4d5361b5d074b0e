package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/karahan-cpu/martek-marina/internal/core/domain"
	"github.com/karahan-cpu/martek-marina/internal/core/port"
	"github.com/karahan-cpu/martek-marina/internal/repository"
)

// PedestalService serves read-only pedestal queries.
type PedestalService struct {
	pedestals port.PedestalRepository
}

func NewPedestalService(pedestals port.PedestalRepository) *PedestalService {
	return &PedestalService{pedestals: pedestals}
}

// List returns all pedestals ordered by berth number.
func (s *PedestalService) List(ctx context.Context) ([]domain.Pedestal, error) {
	pedestals, err := s.pedestals.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pedestals: %w", err)
	}
	return pedestals, nil
}

// Get returns a single pedestal by id.
func (s *PedestalService) Get(ctx context.Context, pedestalID string) (*domain.Pedestal, error) {
	pedestal, err := s.pedestals.GetByID(ctx, pedestalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPedestalNotFound
		}
		return nil, fmt.Errorf("get pedestal: %w", err)
	}
	return pedestal, nil
}
