package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/karahan-cpu/martek-marina/internal/core/domain"
	"github.com/karahan-cpu/martek-marina/internal/core/port"
	"github.com/karahan-cpu/martek-marina/internal/repository"
)

const attemptsTable = "marina.pedestal_access_attempts"

// AttemptRepository implements port.AttemptStore backed by PostgreSQL. The
// (user_id, pedestal_id) composite primary key carries the uniqueness the
// atomic failure bookkeeping relies on.
type AttemptRepository struct {
	exec    txExecutor
	builder squirrel.StatementBuilderType
}

// NewAttemptRepository constructs a repository over the supplied executor.
func NewAttemptRepository(exec txExecutor) *AttemptRepository {
	return &AttemptRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Get fetches the attempt record for the (user, pedestal) pair.
func (r *AttemptRepository) Get(ctx context.Context, userID, pedestalID string) (*domain.VerificationAttempt, error) {
	stmt, args, err := r.builder.
		Select("user_id", "pedestal_id", "total_failed", "lockout_until", "first_attempt", "last_attempt").
		From(attemptsTable).
		Where(squirrel.Eq{"user_id": userID, "pedestal_id": pedestalID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select attempt sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)
	attempt, err := scanAttempt(row)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan attempt: %w", err)
	}

	return attempt, nil
}

// Upsert creates the record or overwrites its failure count and lockout,
// refreshing the last-attempt timestamp. Repeated identical upserts converge
// to the same stored state.
func (r *AttemptRepository) Upsert(ctx context.Context, attempt domain.VerificationAttempt) (*domain.VerificationAttempt, error) {
	now := attempt.LastAttempt
	if now.IsZero() {
		now = time.Now().UTC()
	}
	first := attempt.FirstAttempt
	if first.IsZero() {
		first = now
	}

	stmt, args, err := r.builder.
		Insert(attemptsTable).
		Columns("user_id", "pedestal_id", "total_failed", "lockout_until", "first_attempt", "last_attempt").
		Values(attempt.UserID, attempt.PedestalID, attempt.TotalFailed, attempt.LockoutUntil, first, now).
		Suffix(`ON CONFLICT (user_id, pedestal_id) DO UPDATE SET
			total_failed = EXCLUDED.total_failed,
			lockout_until = EXCLUDED.lockout_until,
			last_attempt = EXCLUDED.last_attempt
			RETURNING first_attempt`).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build upsert attempt sql: %w", err)
	}

	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&first); err != nil {
		return nil, fmt.Errorf("upsert attempt: %w", err)
	}

	stored := attempt
	stored.FirstAttempt = first
	stored.LastAttempt = now
	return &stored, nil
}

// RecordFailure increments the failure count and stores the lockout computed
// from the new total inside a single transaction. The upsert takes a row lock
// on the conflict target, so concurrent failures for the same pair serialize
// and every one is counted.
func (r *AttemptRepository) RecordFailure(ctx context.Context, userID, pedestalID string, at time.Time, lockoutFor domain.LockoutFunc) (*domain.VerificationAttempt, error) {
	if lockoutFor == nil {
		return nil, errors.New("lockout schedule is required")
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	tx, err := r.exec.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin record failure tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	incrementStmt, incrementArgs, err := r.builder.
		Insert(attemptsTable).
		Columns("user_id", "pedestal_id", "total_failed", "first_attempt", "last_attempt").
		Values(userID, pedestalID, 1, at, at).
		Suffix(`ON CONFLICT (user_id, pedestal_id) DO UPDATE SET
			total_failed = ` + attemptsTable + `.total_failed + 1,
			last_attempt = EXCLUDED.last_attempt
			RETURNING total_failed, first_attempt`).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build increment attempt sql: %w", err)
	}

	var (
		totalFailed  int
		firstAttempt time.Time
	)
	if err := tx.QueryRow(ctx, incrementStmt, incrementArgs...).Scan(&totalFailed, &firstAttempt); err != nil {
		return nil, fmt.Errorf("increment attempt: %w", err)
	}

	lockoutUntil := at.Add(lockoutFor(totalFailed))

	lockStmt, lockArgs, err := r.builder.
		Update(attemptsTable).
		Set("lockout_until", lockoutUntil).
		Where(squirrel.Eq{"user_id": userID, "pedestal_id": pedestalID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build set lockout sql: %w", err)
	}

	if _, err := tx.Exec(ctx, lockStmt, lockArgs...); err != nil {
		return nil, fmt.Errorf("set lockout: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit record failure tx: %w", err)
	}

	return &domain.VerificationAttempt{
		UserID:       userID,
		PedestalID:   pedestalID,
		TotalFailed:  totalFailed,
		LockoutUntil: &lockoutUntil,
		FirstAttempt: firstAttempt,
		LastAttempt:  at,
	}, nil
}

// Delete removes the record. Deleting an absent record is a no-op.
func (r *AttemptRepository) Delete(ctx context.Context, userID, pedestalID string) error {
	stmt, args, err := r.builder.
		Delete(attemptsTable).
		Where(squirrel.Eq{"user_id": userID, "pedestal_id": pedestalID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete attempt sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("delete attempt: %w", err)
	}

	return nil
}

func scanAttempt(row rowScanner) (*domain.VerificationAttempt, error) {
	var attempt domain.VerificationAttempt
	err := row.Scan(
		&attempt.UserID,
		&attempt.PedestalID,
		&attempt.TotalFailed,
		&attempt.LockoutUntil,
		&attempt.FirstAttempt,
		&attempt.LastAttempt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

var _ port.AttemptStore = (*AttemptRepository)(nil)
