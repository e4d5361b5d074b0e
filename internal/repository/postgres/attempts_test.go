package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/karahan-cpu/martek-marina/internal/core/domain"
	"github.com/karahan-cpu/martek-marina/internal/repository"
)

func TestAttemptRepository_Get(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewAttemptRepository(mock)

	first := time.Now().UTC().Add(-time.Hour)
	last := time.Now().UTC()
	until := last.Add(15 * time.Minute)

	rows := pgxmock.NewRows([]string{
		"user_id", "pedestal_id", "total_failed", "lockout_until", "first_attempt", "last_attempt",
	}).AddRow("user-1", "pedestal-1", 3, &until, first, last)

	// squirrel sorts Eq keys, so pedestal_id binds before user_id.
	mock.ExpectQuery(`SELECT .*FROM marina\.pedestal_access_attempts`).
		WithArgs("pedestal-1", "user-1").
		WillReturnRows(rows)

	attempt, err := repo.Get(context.Background(), "user-1", "pedestal-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if attempt.TotalFailed != 3 {
		t.Fatalf("expected total_failed 3, got %d", attempt.TotalFailed)
	}
	if attempt.LockoutUntil == nil || !attempt.LockoutUntil.Equal(until) {
		t.Fatalf("expected lockout_until %v, got %v", until, attempt.LockoutUntil)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAttemptRepository_GetNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewAttemptRepository(mock)

	mock.ExpectQuery(`SELECT .*FROM marina\.pedestal_access_attempts`).
		WithArgs("pedestal-1", "user-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"user_id", "pedestal_id", "total_failed", "lockout_until", "first_attempt", "last_attempt",
		}))

	if _, err := repo.Get(context.Background(), "user-1", "pedestal-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAttemptRepository_Upsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewAttemptRepository(mock)

	last := time.Now().UTC()
	first := last.Add(-10 * time.Minute)
	until := last.Add(5 * time.Minute)

	mock.ExpectQuery(`INSERT INTO marina\.pedestal_access_attempts`).
		WithArgs("user-1", "pedestal-1", 2, &until, first, last).
		WillReturnRows(pgxmock.NewRows([]string{"first_attempt"}).AddRow(first))

	stored, err := repo.Upsert(context.Background(), domain.VerificationAttempt{
		UserID:       "user-1",
		PedestalID:   "pedestal-1",
		TotalFailed:  2,
		LockoutUntil: &until,
		FirstAttempt: first,
		LastAttempt:  last,
	})
	if err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}
	if stored.TotalFailed != 2 {
		t.Fatalf("expected total_failed 2, got %d", stored.TotalFailed)
	}
	if !stored.FirstAttempt.Equal(first) {
		t.Fatalf("expected first_attempt %v, got %v", first, stored.FirstAttempt)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAttemptRepository_RecordFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewAttemptRepository(mock)

	at := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO marina\.pedestal_access_attempts`).
		WithArgs("user-1", "pedestal-1", 1, at, at).
		WillReturnRows(pgxmock.NewRows([]string{"total_failed", "first_attempt"}).AddRow(5, at.Add(-time.Hour)))
	mock.ExpectExec(`UPDATE marina\.pedestal_access_attempts`).
		WithArgs(at.Add(time.Hour), "pedestal-1", "user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	attempt, err := repo.RecordFailure(context.Background(), "user-1", "pedestal-1", at, domain.LockoutDuration)
	if err != nil {
		t.Fatalf("RecordFailure returned error: %v", err)
	}
	if attempt.TotalFailed != 5 {
		t.Fatalf("expected total_failed 5, got %d", attempt.TotalFailed)
	}
	// Failure #5 lands in the 5-6 band: one hour.
	wantUntil := at.Add(time.Hour)
	if attempt.LockoutUntil == nil || !attempt.LockoutUntil.Equal(wantUntil) {
		t.Fatalf("expected lockout_until %v, got %v", wantUntil, attempt.LockoutUntil)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAttemptRepository_RecordFailureRequiresSchedule(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewAttemptRepository(mock)

	if _, err := repo.RecordFailure(context.Background(), "user-1", "pedestal-1", time.Now(), nil); err == nil {
		t.Fatal("expected error for nil lockout schedule")
	}
}

func TestAttemptRepository_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewAttemptRepository(mock)

	mock.ExpectExec(`DELETE FROM marina\.pedestal_access_attempts`).
		WithArgs("pedestal-1", "user-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	// Deleting an absent record must not fail.
	if err := repo.Delete(context.Background(), "user-1", "pedestal-1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
