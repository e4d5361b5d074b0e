package domain

import "time"

// AccessDeniedEvent is emitted for every failed code verification, including
// the lockout window the failure just established.
type AccessDeniedEvent struct {
	UserID      string
	PedestalID  string
	TotalFailed int
	LockedFor   time.Duration
	OccurredAt  time.Time
}

// AccessGrantedEvent is emitted when a user successfully verifies a pedestal
// access code.
type AccessGrantedEvent struct {
	UserID           string
	PedestalID       string
	PreviousFailures int
	OccurredAt       time.Time
}

// ServicesUpdatedEvent is emitted when a verified user toggles pedestal
// utility services.
type ServicesUpdatedEvent struct {
	UserID             string
	PedestalID         string
	WaterEnabled       bool
	ElectricityEnabled bool
	OccurredAt         time.Time
}
