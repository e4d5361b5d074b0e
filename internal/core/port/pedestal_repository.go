package port

import (
	"context"

	"github.com/karahan-cpu/martek-marina/internal/core/domain"
)

// PedestalRepository exposes read access to pedestals plus the single
// mutation this service performs: toggling utility services.
type PedestalRepository interface {
	List(ctx context.Context) ([]domain.Pedestal, error)
	GetByID(ctx context.Context, id string) (*domain.Pedestal, error)
	GetByAccessCode(ctx context.Context, code string) (*domain.Pedestal, error)
	UpdateServices(ctx context.Context, id string, update domain.ServiceUpdate) (*domain.Pedestal, error)
}
