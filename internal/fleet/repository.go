package fleet

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/backline-app/backline/internal/shared"
)

type Repository interface {
	Get(ctx context.Context, id int64) (*Vehicle, error)
	ListActiveByCategory(ctx context.Context, companyID int64, category string) ([]Vehicle, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const vehicleColumns = `id, company_id, name, category, internal_owned, owner_id, deleted, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Vehicle, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id)
	v, err := scanVehicle(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

// ListActiveByCategory returns the non-deleted pool for one category,
// internally owned vehicles first so the allocator's first fit prefers them.
func (r *repository) ListActiveByCategory(ctx context.Context, companyID int64, category string) ([]Vehicle, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+vehicleColumns+`
		FROM vehicles
		WHERE company_id = $1 AND category = $2 AND NOT deleted
		ORDER BY internal_owned DESC, id
	`, companyID, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, *v)
	}
	return vehicles, rows.Err()
}

func scanVehicle(row pgx.Row) (*Vehicle, error) {
	var v Vehicle
	var ownerID pgtype.Int8
	var createdAt, updatedAt pgtype.Timestamptz
	err := row.Scan(&v.ID, &v.CompanyID, &v.Name, &v.Category, &v.InternalOwned, &ownerID, &v.Deleted, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if ownerID.Valid {
		v.OwnerID = &ownerID.Int64
	}
	if createdAt.Valid {
		v.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		v.UpdatedAt = updatedAt.Time
	}
	return &v, nil
}
