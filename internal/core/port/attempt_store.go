package port

import (
	"context"
	"time"

	"github.com/karahan-cpu/martek-marina/internal/core/domain"
)

// AttemptStore persists failed-verification history per (user, pedestal)
// pair. Implementations never cache: every call is a fresh round trip so
// concurrent verification attempts always observe committed state.
type AttemptStore interface {
	// Get returns the attempt record or repository.ErrNotFound.
	Get(ctx context.Context, userID, pedestalID string) (*domain.VerificationAttempt, error)

	// Upsert creates or overwrites the record's failure count and lockout,
	// refreshing the last-attempt timestamp.
	Upsert(ctx context.Context, attempt domain.VerificationAttempt) (*domain.VerificationAttempt, error)

	// RecordFailure atomically increments the failure count and stores the
	// lockout computed from the new total. Concurrent calls for the same key
	// must serialize so no failure is lost.
	RecordFailure(ctx context.Context, userID, pedestalID string, at time.Time, lockoutFor domain.LockoutFunc) (*domain.VerificationAttempt, error)

	// Delete removes the record. Absent records are not an error.
	Delete(ctx context.Context, userID, pedestalID string) error
}
