package fleet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backline-app/backline/internal/shared"
)

type fakeFleetRepo struct {
	vehicles map[int64]Vehicle
}

func (f *fakeFleetRepo) Get(ctx context.Context, id int64) (*Vehicle, error) {
	v, ok := f.vehicles[id]
	if !ok || v.Deleted {
		return nil, shared.ErrNotFound
	}
	return &v, nil
}

func (f *fakeFleetRepo) ListActiveByCategory(ctx context.Context, companyID int64, category string) ([]Vehicle, error) {
	var internal, external []Vehicle
	for _, v := range []int64{1, 2, 3, 4, 5, 6} {
		veh, ok := f.vehicles[v]
		if !ok || veh.Deleted || veh.CompanyID != companyID || veh.Category != category {
			continue
		}
		if veh.InternalOwned {
			internal = append(internal, veh)
		} else {
			external = append(external, veh)
		}
	}
	return append(internal, external...), nil
}

func newFakeFleetRepo() *fakeFleetRepo {
	return &fakeFleetRepo{vehicles: map[int64]Vehicle{
		1: {ID: 1, CompanyID: 1, Name: "Sprinter 1", Category: "van", InternalOwned: false},
		2: {ID: 2, CompanyID: 1, Name: "Sprinter 2", Category: "van", InternalOwned: true},
		3: {ID: 3, CompanyID: 1, Name: "Sprinter 3", Category: "van", InternalOwned: true},
		4: {ID: 4, CompanyID: 1, Name: "Crane truck", Category: "truck", InternalOwned: true, Deleted: true},
		5: {ID: 5, CompanyID: 2, Name: "Other co van", Category: "van", InternalOwned: true},
	}}
}

func TestAllocatePrefersInternallyOwned(t *testing.T) {
	a := NewAllocator(newFakeFleetRepo())
	used := map[int64]struct{}{}

	v, err := a.Allocate(context.Background(), AllocationRequest{CompanyID: 1, Category: "van"}, used)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.True(t, v.InternalOwned)
	assert.Contains(t, used, v.ID)
}

func TestAllocateNeverDoubleAssignsWithinRun(t *testing.T) {
	a := NewAllocator(newFakeFleetRepo())
	used := map[int64]struct{}{}

	seen := map[int64]bool{}
	for i := 0; i < 3; i++ {
		v, err := a.Allocate(context.Background(), AllocationRequest{CompanyID: 1, Category: "van"}, used)
		require.NoError(t, err)
		require.NotNil(t, v, "run %d", i)
		assert.False(t, seen[v.ID], "vehicle %d assigned twice", v.ID)
		seen[v.ID] = true
	}

	// Pool of three vans exhausted; fourth request gets nothing.
	v, err := a.Allocate(context.Background(), AllocationRequest{CompanyID: 1, Category: "van"}, used)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestAllocateNoMatchReturnsNil(t *testing.T) {
	a := NewAllocator(newFakeFleetRepo())

	v, err := a.Allocate(context.Background(), AllocationRequest{CompanyID: 1, Category: "truck"}, map[int64]struct{}{})
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestAllocatePinnedVehicleWinsOutright(t *testing.T) {
	a := NewAllocator(newFakeFleetRepo())
	used := map[int64]struct{}{}
	pinned := int64(1)

	v, err := a.Allocate(context.Background(), AllocationRequest{CompanyID: 1, Category: "van", VehicleID: &pinned}, used)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, pinned, v.ID)
	assert.False(t, v.InternalOwned, "pinned external vehicle must not be swapped for an internal one")
}

func TestAllocatePinnedVehicleFallsBackToLineMetadata(t *testing.T) {
	a := NewAllocator(newFakeFleetRepo())
	used := map[int64]struct{}{}
	gone := int64(99)

	v, err := a.Allocate(context.Background(), AllocationRequest{
		CompanyID:     1,
		Category:      "trailer",
		VehicleID:     &gone,
		VehicleName:   "Partner trailer",
		InternalOwned: false,
	}, used)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, gone, v.ID)
	assert.Equal(t, "Partner trailer", v.Name)
	assert.Contains(t, used, gone)
}
