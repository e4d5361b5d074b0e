package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories aggregates the PostgreSQL-backed repositories.
type Repositories struct {
	Pedestals *PedestalRepository
	Attempts  *AttemptRepository
}

// NewRepositories wires all repositories over a shared connection pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Pedestals: NewPedestalRepository(pool),
		Attempts:  NewAttemptRepository(pool),
	}
}
