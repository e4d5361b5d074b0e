package domain

import (
	"fmt"
	"time"
)

// VerificationAttempt is the persisted failure history for one
// (user, pedestal) pair. A row exists only while the user has uncleared
// failures; successful verification deletes it.
type VerificationAttempt struct {
	UserID       string
	PedestalID   string
	TotalFailed  int
	LockoutUntil *time.Time
	FirstAttempt time.Time
	LastAttempt  time.Time
}

// ActiveLockout reports whether the attempt's lockout extends strictly past
// now, and if so how long remains. Safe to call on a nil receiver.
func (a *VerificationAttempt) ActiveLockout(now time.Time) (time.Duration, bool) {
	if a == nil || a.LockoutUntil == nil {
		return 0, false
	}
	if !a.LockoutUntil.After(now) {
		return 0, false
	}
	return a.LockoutUntil.Sub(now), true
}

// LockoutFunc maps a cumulative failure count to a lockout duration.
type LockoutFunc func(totalFailed int) time.Duration

// LockoutDuration is the progressive lockout schedule. Every failure locks
// the pair out, starting at five minutes and climbing to a 24 hour ceiling.
func LockoutDuration(totalFailed int) time.Duration {
	switch {
	case totalFailed <= 2:
		return 5 * time.Minute
	case totalFailed <= 4:
		return 15 * time.Minute
	case totalFailed <= 6:
		return time.Hour
	case totalFailed <= 9:
		return 4 * time.Hour
	case totalFailed <= 14:
		return 12 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// FormatWait renders a remaining lockout for user-facing messages. Sub-hour
// waits round up to whole minutes; anything longer reports whole hours.
func FormatWait(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d >= time.Hour {
		return fmt.Sprintf("%d hour(s)", int(d.Hours()))
	}
	minutes := int((d + time.Minute - 1) / time.Minute)
	return fmt.Sprintf("%d minute(s)", minutes)
}
