package projects

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/backline-app/backline/internal/shared"
)

type Repository interface {
	Get(ctx context.Context, id int64) (*Job, error)
	MarkInvoiced(ctx context.Context, id int64) error
	CompanyName(ctx context.Context, companyID int64) (string, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Get(ctx context.Context, id int64) (*Job, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, company_id, customer_id, name, starts_at, ends_at, invoiced, created_at, updated_at
		FROM jobs
		WHERE id = $1
	`, id)

	var j Job
	var customerID pgtype.Int8
	var startsAt, endsAt, createdAt, updatedAt pgtype.Timestamptz
	err := row.Scan(&j.ID, &j.CompanyID, &customerID, &j.Name, &startsAt, &endsAt, &j.Invoiced, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if customerID.Valid {
		j.CustomerID = &customerID.Int64
	}
	if startsAt.Valid {
		j.StartsAt = &startsAt.Time
	}
	if endsAt.Valid {
		j.EndsAt = &endsAt.Time
	}
	if createdAt.Valid {
		j.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		j.UpdatedAt = updatedAt.Time
	}
	return &j, nil
}

func (r *repository) MarkInvoiced(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE jobs SET invoiced = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) CompanyName(ctx context.Context, companyID int64) (string, error) {
	var name string
	err := r.pool.QueryRow(ctx, `SELECT name FROM companies WHERE id = $1`, companyID).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", shared.ErrNotFound
		}
		return "", err
	}
	return name, nil
}
