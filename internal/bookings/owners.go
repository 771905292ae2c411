package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/backline-app/backline/internal/shared"
)

// External equipment owners are partner companies; the directory just maps
// their ids to display names for period titles.
type pgOwnerDirectory struct {
	pool *pgxpool.Pool
}

func NewOwnerDirectory(pool *pgxpool.Pool) OwnerDirectory {
	return &pgOwnerDirectory{pool: pool}
}

func (d *pgOwnerDirectory) OwnerName(ctx context.Context, ownerID int64) (string, error) {
	var name string
	err := d.pool.QueryRow(ctx, `SELECT name FROM companies WHERE id = $1`, ownerID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", shared.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("bookings: owner name: %w", err)
	}
	return name, nil
}
