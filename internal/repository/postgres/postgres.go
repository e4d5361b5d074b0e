package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgExecutor abstracts the subset of pgxpool.Pool used by repositories so
// tests can substitute a mock.
type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// txExecutor additionally starts transactions, required by operations that
// must read-modify-write atomically.
type txExecutor interface {
	pgExecutor
	Begin(ctx context.Context) (pgx.Tx, error)
}
