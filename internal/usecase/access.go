package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/karahan-cpu/martek-marina/internal/core/domain"
	"github.com/karahan-cpu/martek-marina/internal/core/port"
	appLogger "github.com/karahan-cpu/martek-marina/internal/infra/logger"
	"github.com/karahan-cpu/martek-marina/internal/repository"
)

var codePattern = regexp.MustCompile(`^[0-9]{6}$`)

// AccessService verifies pedestal access codes with progressive lockout.
//
// Each verification walks resolve -> lockout check -> code comparison. Every
// failed comparison immediately establishes a lockout per the progressive
// staircase; a store fault anywhere denies the attempt rather than letting a
// comparison proceed unprotected.
type AccessService struct {
	pedestals port.PedestalRepository
	attempts  port.AttemptStore
	grants    port.GrantCache
	events    port.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewAccessService constructs an AccessService.
func NewAccessService(
	pedestals port.PedestalRepository,
	attempts port.AttemptStore,
	grants port.GrantCache,
	events port.EventPublisher,
	logger *zap.Logger,
) *AccessService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessService{
		pedestals: pedestals,
		attempts:  attempts,
		grants:    grants,
		events:    events,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock injects a custom clock, primarily for tests.
func (s *AccessService) WithClock(now func() time.Time) *AccessService {
	if now != nil {
		s.now = now
	}
	return s
}

// VerifyPedestal verifies a candidate code against an explicitly selected
// pedestal. On success the attempt history is cleared and the grant recorded.
func (s *AccessService) VerifyPedestal(ctx context.Context, userID, pedestalID, code string) (*domain.Pedestal, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if !codePattern.MatchString(code) {
		return nil, ErrMalformedCode
	}

	pedestal, err := s.pedestals.GetByID(ctx, pedestalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPedestalNotFound
		}
		return nil, fmt.Errorf("lookup pedestal: %w", err)
	}

	attempt, err := s.loadAttempt(ctx, userID, pedestal.ID)
	if err != nil {
		return nil, err
	}
	if err := s.checkLockout(attempt, userID, pedestal.ID); err != nil {
		return nil, err
	}

	if pedestal.AccessCode != code {
		return nil, s.recordFailure(ctx, userID, pedestal.ID, code)
	}

	return pedestal, s.finishSuccess(ctx, userID, pedestal.ID, attempt)
}

// VerifyByCode resolves the pedestal solely by matching the candidate against
// stored codes. A candidate matching no pedestal yields the same generic
// denial regardless of what exists, so callers cannot enumerate pedestals.
func (s *AccessService) VerifyByCode(ctx context.Context, userID, code string) (*domain.Pedestal, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if !codePattern.MatchString(code) {
		return nil, ErrMalformedCode
	}

	pedestal, err := s.pedestals.GetByAccessCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("lookup pedestal by code: %w", err)
	}

	attempt, err := s.loadAttempt(ctx, userID, pedestal.ID)
	if err != nil {
		return nil, err
	}
	if err := s.checkLockout(attempt, userID, pedestal.ID); err != nil {
		return nil, err
	}

	// Resolution by code implies the comparison already succeeded.
	return pedestal, s.finishSuccess(ctx, userID, pedestal.ID, attempt)
}

// loadAttempt reads the current attempt record, mapping "no history" to nil.
// Store faults propagate so the caller denies rather than proceeding without
// lockout protection.
func (s *AccessService) loadAttempt(ctx context.Context, userID, pedestalID string) (*domain.VerificationAttempt, error) {
	attempt, err := s.attempts.Get(ctx, userID, pedestalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("read verification attempt: %w", err)
	}
	return attempt, nil
}

// checkLockout rejects the call while a lockout is active. Counters are left
// untouched: a call during lockout neither extends nor resets the window.
func (s *AccessService) checkLockout(attempt *domain.VerificationAttempt, userID, pedestalID string) error {
	now := s.now().UTC()
	remaining, active := attempt.ActiveLockout(now)
	if !active {
		return nil
	}

	s.logger.Warn("verification rejected during lockout",
		zap.String("user_id", userID),
		zap.String("pedestal_id", pedestalID),
		zap.Int("total_failed", attempt.TotalFailed),
		zap.Duration("remaining", remaining),
	)
	return &LockoutError{RetryAfter: remaining, Until: *attempt.LockoutUntil}
}

func (s *AccessService) recordFailure(ctx context.Context, userID, pedestalID, code string) error {
	now := s.now().UTC()

	attempt, err := s.attempts.RecordFailure(ctx, userID, pedestalID, now, domain.LockoutDuration)
	if err != nil {
		// Fail closed: an unrecorded failure must not look like a clean
		// invalid-code rejection.
		return fmt.Errorf("record failed attempt: %w", err)
	}

	lockedFor := domain.LockoutDuration(attempt.TotalFailed)
	if attempt.LockoutUntil != nil {
		lockedFor = attempt.LockoutUntil.Sub(now)
	}

	s.logger.Warn("failed pedestal verification",
		zap.String("user_id", userID),
		zap.String("pedestal_id", pedestalID),
		zap.String("access_code", appLogger.MaskCode(code)),
		zap.Int("total_failed", attempt.TotalFailed),
		zap.Duration("locked_for", lockedFor),
	)

	if s.events != nil {
		if err := s.events.PublishAccessDenied(ctx, domain.AccessDeniedEvent{
			UserID:      userID,
			PedestalID:  pedestalID,
			TotalFailed: attempt.TotalFailed,
			LockedFor:   lockedFor,
			OccurredAt:  now,
		}); err != nil {
			s.logger.Warn("publish access denied event", zap.Error(err))
		}
	}

	return &CodeRejectedError{TotalFailed: attempt.TotalFailed, LockedFor: lockedFor}
}

func (s *AccessService) finishSuccess(ctx context.Context, userID, pedestalID string, attempt *domain.VerificationAttempt) error {
	now := s.now().UTC()

	previousFailures := 0
	if attempt != nil {
		previousFailures = attempt.TotalFailed
		if err := s.attempts.Delete(ctx, userID, pedestalID); err != nil {
			return fmt.Errorf("clear verification attempts: %w", err)
		}
	}

	if err := s.grants.Grant(ctx, userID, pedestalID); err != nil {
		return fmt.Errorf("record access grant: %w", err)
	}

	s.logger.Info("pedestal access verified",
		zap.String("user_id", userID),
		zap.String("pedestal_id", pedestalID),
		zap.Int("previous_failures", previousFailures),
	)

	if s.events != nil {
		if err := s.events.PublishAccessGranted(ctx, domain.AccessGrantedEvent{
			UserID:           userID,
			PedestalID:       pedestalID,
			PreviousFailures: previousFailures,
			OccurredAt:       now,
		}); err != nil {
			s.logger.Warn("publish access granted event", zap.Error(err))
		}
	}

	return nil
}
