package fleet

import (
	"context"
	"errors"
	"fmt"

	"github.com/backline-app/backline/internal/shared"
)

// AllocationRequest describes what one transport line needs.
type AllocationRequest struct {
	CompanyID int64
	Category  string
	// VehicleID pins a specific vehicle chosen on the offer line.
	VehicleID *int64
	// Cached line metadata used as a fallback when the pinned vehicle is no
	// longer in the active pool.
	VehicleName   string
	InternalOwned bool
}

// Allocator matches transport lines to concrete vehicles. Greedy first fit:
// internally owned vehicles before externally owned ones, no backtracking,
// no optimality guarantee.
type Allocator struct {
	repo Repository
}

func NewAllocator(repo Repository) *Allocator {
	return &Allocator{repo: repo}
}

// Allocate resolves a vehicle for req, skipping ids already present in used.
// The used set is scoped to one materialization run and is updated in place
// on success so the same physical vehicle is never handed to two lines of
// the same run. A nil result with nil error means no vehicle is available.
func (a *Allocator) Allocate(ctx context.Context, req AllocationRequest, used map[int64]struct{}) (*Vehicle, error) {
	if req.VehicleID != nil {
		v, err := a.repo.Get(ctx, *req.VehicleID)
		if err != nil {
			if !errors.Is(err, shared.ErrNotFound) {
				return nil, fmt.Errorf("fleet: resolve pinned vehicle %d: %w", *req.VehicleID, err)
			}
			// Pinned vehicle fell out of the pool; honour the line's cached
			// metadata rather than failing the booking.
			v = &Vehicle{
				ID:            *req.VehicleID,
				CompanyID:     req.CompanyID,
				Name:          req.VehicleName,
				Category:      req.Category,
				InternalOwned: req.InternalOwned,
			}
		}
		used[v.ID] = struct{}{}
		return v, nil
	}

	pool, err := a.repo.ListActiveByCategory(ctx, req.CompanyID, req.Category)
	if err != nil {
		return nil, fmt.Errorf("fleet: list %s vehicles: %w", req.Category, err)
	}

	// Pool arrives internal-owned first; keep that order and take the first
	// vehicle not consumed earlier in this run.
	for i := range pool {
		if _, taken := used[pool[i].ID]; taken {
			continue
		}
		used[pool[i].ID] = struct{}{}
		return &pool[i], nil
	}
	return nil, nil
}
