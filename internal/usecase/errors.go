package usecase

import (
	"errors"
	"fmt"
	"time"

	"github.com/karahan-cpu/martek-marina/internal/core/domain"
)

var (
	// ErrMalformedCode indicates the candidate is not exactly six ASCII digits.
	ErrMalformedCode = errors.New("access code must be exactly 6 digits")
	// ErrPedestalNotFound indicates the requested pedestal does not exist.
	ErrPedestalNotFound = errors.New("pedestal not found")
	// ErrInvalidCode is the generic denial for a code that resolves no
	// pedestal. The message must not reveal whether such a pedestal exists.
	ErrInvalidCode = errors.New("invalid access code")
	// ErrLockedOut indicates an active lockout rejected the call before any
	// code comparison.
	ErrLockedOut = errors.New("too many failed attempts")
	// ErrAccessDenied indicates a control mutation without a prior grant.
	ErrAccessDenied = errors.New("pedestal access not verified")
)

// LockoutError rejects a verification arriving during an active lockout,
// carrying the remaining wait. The correct code does not bypass it.
type LockoutError struct {
	RetryAfter time.Duration
	Until      time.Time
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("too many failed attempts; retry in %s", domain.FormatWait(e.RetryAfter))
}

// Unwrap lets callers match the ErrLockedOut sentinel.
func (e *LockoutError) Unwrap() error { return ErrLockedOut }

// CodeRejectedError reports a failed code comparison together with the
// lockout the failure just established.
type CodeRejectedError struct {
	TotalFailed int
	LockedFor   time.Duration
}

func (e *CodeRejectedError) Error() string {
	return fmt.Sprintf("invalid access code; access locked for %s", domain.FormatWait(e.LockedFor))
}

// Unwrap lets callers match the ErrInvalidCode sentinel.
func (e *CodeRejectedError) Unwrap() error { return ErrInvalidCode }
