package bookings

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/backline-app/backline/internal/shared"
)

// Repository stores time periods and their reservations.
type Repository interface {
	// GetOrCreatePeriod resolves a period by its natural key, reviving a
	// soft-deleted row when one exists. Returns the period and whether it
	// was created by this call.
	GetOrCreatePeriod(ctx context.Context, p TimePeriod) (*TimePeriod, bool, error)
	UpdateNeededCount(ctx context.Context, periodID int64, needed int) error
	SetPeriodNote(ctx context.Context, periodID int64, note string) error
	ClearPeriodNote(ctx context.Context, periodID int64) error
	InsertReservedItem(ctx context.Context, item ReservedItem) error
	DeleteReservedItems(ctx context.Context, periodID int64) error
	// GetOrCreateReservedVehicle is idempotent per (period, vehicle).
	GetOrCreateReservedVehicle(ctx context.Context, periodID, vehicleID int64) error
	ListPeriodsByJob(ctx context.Context, jobID int64) ([]TimePeriod, error)
	ListReservedVehicles(ctx context.Context, periodID int64) ([]ReservedVehicle, error)
	PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const periodColumns = `id, job_id, category, title, starts_at, ends_at,
	needed_count, note, deleted, reserved_by_user_id, created_at, updated_at`

func (r *pgRepository) GetOrCreatePeriod(ctx context.Context, p TimePeriod) (*TimePeriod, bool, error) {
	// The natural-key unique index makes this race-safe: a concurrent
	// insert lands on the conflict arm and revives instead.
	row := r.pool.QueryRow(ctx, `
		INSERT INTO time_periods
			(job_id, category, title, starts_at, ends_at, needed_count, reserved_by_user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (job_id, category, title, starts_at, ends_at) DO UPDATE
			SET deleted = false,
			    reserved_by_user_id = CASE WHEN time_periods.deleted
			        THEN EXCLUDED.reserved_by_user_id
			        ELSE time_periods.reserved_by_user_id END,
			    updated_at = now()
		RETURNING `+periodColumns+`, (xmax = 0) AS inserted`,
		p.JobID, p.Category, p.Title, p.StartsAt, p.EndsAt, p.NeededCount, p.ReservedByUserID)

	var out TimePeriod
	var created bool
	if err := row.Scan(&out.ID, &out.JobID, &out.Category, &out.Title, &out.StartsAt, &out.EndsAt,
		&out.NeededCount, &out.Note, &out.Deleted, &out.ReservedByUserID, &out.CreatedAt, &out.UpdatedAt,
		&created); err != nil {
		return nil, false, fmt.Errorf("bookings: get or create period: %w", err)
	}
	return &out, created, nil
}

func (r *pgRepository) UpdateNeededCount(ctx context.Context, periodID int64, needed int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE time_periods SET needed_count = $2, updated_at = now() WHERE id = $1`,
		periodID, needed)
	if err != nil {
		return fmt.Errorf("bookings: update needed count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *pgRepository) SetPeriodNote(ctx context.Context, periodID int64, note string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE time_periods SET note = $2, updated_at = now() WHERE id = $1`,
		periodID, note)
	if err != nil {
		return fmt.Errorf("bookings: set period note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *pgRepository) ClearPeriodNote(ctx context.Context, periodID int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE time_periods SET note = NULL, updated_at = now() WHERE id = $1`, periodID)
	if err != nil {
		return fmt.Errorf("bookings: clear period note: %w", err)
	}
	return nil
}

func (r *pgRepository) InsertReservedItem(ctx context.Context, item ReservedItem) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reserved_items (time_period_id, catalog_item_id, quantity)
		VALUES ($1, $2, $3)`,
		item.TimePeriodID, item.CatalogItemID, item.Quantity)
	if err != nil {
		return fmt.Errorf("bookings: insert reserved item: %w", err)
	}
	return nil
}

func (r *pgRepository) DeleteReservedItems(ctx context.Context, periodID int64) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM reserved_items WHERE time_period_id = $1`, periodID)
	if err != nil {
		return fmt.Errorf("bookings: delete reserved items: %w", err)
	}
	return nil
}

func (r *pgRepository) GetOrCreateReservedVehicle(ctx context.Context, periodID, vehicleID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reserved_vehicles (time_period_id, vehicle_id)
		VALUES ($1, $2)
		ON CONFLICT (time_period_id, vehicle_id) DO NOTHING`,
		periodID, vehicleID)
	if err != nil {
		return fmt.Errorf("bookings: reserve vehicle: %w", err)
	}
	return nil
}

func (r *pgRepository) ListPeriodsByJob(ctx context.Context, jobID int64) ([]TimePeriod, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+periodColumns+`
		FROM time_periods
		WHERE job_id = $1 AND NOT deleted
		ORDER BY starts_at, category, id`, jobID)
	if err != nil {
		return nil, fmt.Errorf("bookings: list periods: %w", err)
	}
	defer rows.Close()

	var out []TimePeriod
	for rows.Next() {
		var p TimePeriod
		if err := rows.Scan(&p.ID, &p.JobID, &p.Category, &p.Title, &p.StartsAt, &p.EndsAt,
			&p.NeededCount, &p.Note, &p.Deleted, &p.ReservedByUserID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("bookings: scan period: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *pgRepository) ListReservedVehicles(ctx context.Context, periodID int64) ([]ReservedVehicle, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, time_period_id, vehicle_id
		FROM reserved_vehicles
		WHERE time_period_id = $1
		ORDER BY id`, periodID)
	if err != nil {
		return nil, fmt.Errorf("bookings: list reserved vehicles: %w", err)
	}
	defer rows.Close()

	var out []ReservedVehicle
	for rows.Next() {
		var v ReservedVehicle
		if err := rows.Scan(&v.ID, &v.TimePeriodID, &v.VehicleID); err != nil {
			return nil, fmt.Errorf("bookings: scan reserved vehicle: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *pgRepository) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM time_periods WHERE deleted AND updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("bookings: purge deleted periods: %w", err)
	}
	return tag.RowsAffected(), nil
}
