package domain

import (
	"testing"
	"time"
)

func TestLockoutDuration_Staircase(t *testing.T) {
	cases := []struct {
		totalFailed int
		want        time.Duration
	}{
		{1, 5 * time.Minute},
		{2, 5 * time.Minute},
		{3, 15 * time.Minute},
		{4, 15 * time.Minute},
		{5, time.Hour},
		{6, time.Hour},
		{7, 4 * time.Hour},
		{8, 4 * time.Hour},
		{9, 4 * time.Hour},
		{10, 12 * time.Hour},
		{12, 12 * time.Hour},
		{14, 12 * time.Hour},
		{15, 24 * time.Hour},
		{16, 24 * time.Hour},
		{100, 24 * time.Hour},
	}

	for _, tc := range cases {
		if got := LockoutDuration(tc.totalFailed); got != tc.want {
			t.Errorf("LockoutDuration(%d) = %v, want %v", tc.totalFailed, got, tc.want)
		}
	}
}

func TestLockoutDuration_Monotonic(t *testing.T) {
	prev := time.Duration(0)
	for n := 1; n <= 30; n++ {
		got := LockoutDuration(n)
		if got < prev {
			t.Fatalf("LockoutDuration(%d) = %v decreased from %v", n, got, prev)
		}
		prev = got
	}
}

func TestFormatWait(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "1 minute(s)"},
		{5 * time.Minute, "5 minute(s)"},
		{14*time.Minute + time.Second, "15 minute(s)"},
		{59 * time.Minute, "59 minute(s)"},
		{time.Hour, "1 hour(s)"},
		{90 * time.Minute, "1 hour(s)"},
		{4 * time.Hour, "4 hour(s)"},
		{24 * time.Hour, "24 hour(s)"},
		{-time.Minute, "0 minute(s)"},
	}

	for _, tc := range cases {
		if got := FormatWait(tc.d); got != tc.want {
			t.Errorf("FormatWait(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}

func TestVerificationAttempt_ActiveLockout(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	var nilAttempt *VerificationAttempt
	if _, active := nilAttempt.ActiveLockout(now); active {
		t.Fatal("nil attempt should not report an active lockout")
	}

	attempt := &VerificationAttempt{UserID: "u1", PedestalID: "p1", TotalFailed: 3}
	if _, active := attempt.ActiveLockout(now); active {
		t.Fatal("attempt without lockout_until should not be locked")
	}

	past := now.Add(-time.Minute)
	attempt.LockoutUntil = &past
	if _, active := attempt.ActiveLockout(now); active {
		t.Fatal("expired lockout should not be active")
	}

	// Boundary: lockout_until exactly now is not "strictly in the future".
	attempt.LockoutUntil = &now
	if _, active := attempt.ActiveLockout(now); active {
		t.Fatal("lockout expiring exactly now should not be active")
	}

	future := now.Add(42 * time.Minute)
	attempt.LockoutUntil = &future
	remaining, active := attempt.ActiveLockout(now)
	if !active {
		t.Fatal("expected active lockout")
	}
	if remaining != 42*time.Minute {
		t.Fatalf("expected 42m remaining, got %v", remaining)
	}
}
