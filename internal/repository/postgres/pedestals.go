package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/karahan-cpu/martek-marina/internal/core/domain"
	"github.com/karahan-cpu/martek-marina/internal/core/port"
	"github.com/karahan-cpu/martek-marina/internal/repository"
)

const pedestalsTable = "marina.pedestals"

var pedestalColumns = []string{
	"id",
	"marina_id",
	"berth_number",
	"status",
	"water_enabled",
	"electricity_enabled",
	"water_usage",
	"electricity_usage",
	"current_user_id",
	"location_x",
	"location_y",
	"access_code",
}

// PedestalRepository implements port.PedestalRepository backed by PostgreSQL.
type PedestalRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewPedestalRepository constructs a repository backed by any executor that
// satisfies pgExecutor.
func NewPedestalRepository(exec pgExecutor) *PedestalRepository {
	return &PedestalRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// List returns all pedestals ordered by berth number.
func (r *PedestalRepository) List(ctx context.Context) ([]domain.Pedestal, error) {
	stmt, args, err := r.builder.
		Select(pedestalColumns...).
		From(pedestalsTable).
		OrderBy("berth_number").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select pedestals sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query pedestals: %w", err)
	}
	defer rows.Close()

	var pedestals []domain.Pedestal
	for rows.Next() {
		pedestal, err := scanPedestal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pedestal: %w", err)
		}
		pedestals = append(pedestals, *pedestal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pedestals: %w", err)
	}

	return pedestals, nil
}

// GetByID fetches a pedestal by its identifier.
func (r *PedestalRepository) GetByID(ctx context.Context, id string) (*domain.Pedestal, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByAccessCode fetches the unique pedestal whose stored access code equals
// the candidate. Used by the code-only verification mode.
func (r *PedestalRepository) GetByAccessCode(ctx context.Context, code string) (*domain.Pedestal, error) {
	return r.getOne(ctx, squirrel.Eq{"access_code": code})
}

func (r *PedestalRepository) getOne(ctx context.Context, pred squirrel.Eq) (*domain.Pedestal, error) {
	stmt, args, err := r.builder.
		Select(pedestalColumns...).
		From(pedestalsTable).
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select pedestal sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)
	pedestal, err := scanPedestal(row)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan pedestal: %w", err)
	}

	return pedestal, nil
}

// UpdateServices toggles the water/electricity flags and returns the updated
// row. Fields left nil are untouched; an empty update degrades to a read.
func (r *PedestalRepository) UpdateServices(ctx context.Context, id string, update domain.ServiceUpdate) (*domain.Pedestal, error) {
	if update.Empty() {
		return r.GetByID(ctx, id)
	}

	builder := r.builder.Update(pedestalsTable)
	if update.WaterEnabled != nil {
		builder = builder.Set("water_enabled", *update.WaterEnabled)
	}
	if update.ElectricityEnabled != nil {
		builder = builder.Set("electricity_enabled", *update.ElectricityEnabled)
	}

	stmt, args, err := builder.
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(pedestalColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update pedestal sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)
	pedestal, err := scanPedestal(row)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan updated pedestal: %w", err)
	}

	return pedestal, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPedestal(row rowScanner) (*domain.Pedestal, error) {
	var pedestal domain.Pedestal
	err := row.Scan(
		&pedestal.ID,
		&pedestal.MarinaID,
		&pedestal.BerthNumber,
		&pedestal.Status,
		&pedestal.WaterEnabled,
		&pedestal.ElectricityEnabled,
		&pedestal.WaterUsage,
		&pedestal.ElectricityUsage,
		&pedestal.CurrentUserID,
		&pedestal.LocationX,
		&pedestal.LocationY,
		&pedestal.AccessCode,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &pedestal, nil
}

var _ port.PedestalRepository = (*PedestalRepository)(nil)
