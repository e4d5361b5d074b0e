package port

import (
	"context"

	"github.com/karahan-cpu/martek-marina/internal/core/domain"
)

// IdentityVerifier validates a bearer token minted by the external auth
// provider and returns the opaque verified identity.
type IdentityVerifier interface {
	VerifyToken(ctx context.Context, token string) (*domain.Identity, error)
}
