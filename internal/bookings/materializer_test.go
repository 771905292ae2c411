package bookings

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backline-app/backline/internal/fleet"
	"github.com/backline-app/backline/internal/offers"
	"github.com/backline-app/backline/internal/projects"
	"github.com/backline-app/backline/internal/shared"
)

type periodKey struct {
	jobID    int64
	category PeriodCategory
	title    string
	start    time.Time
	end      time.Time
}

type fakeRepo struct {
	nextID   int64
	periods  map[periodKey]*TimePeriod
	items    map[int64][]ReservedItem
	vehicles map[int64]map[int64]bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		periods:  make(map[periodKey]*TimePeriod),
		items:    make(map[int64][]ReservedItem),
		vehicles: make(map[int64]map[int64]bool),
	}
}

func (f *fakeRepo) GetOrCreatePeriod(_ context.Context, p TimePeriod) (*TimePeriod, bool, error) {
	key := periodKey{p.JobID, p.Category, p.Title, p.StartsAt, p.EndsAt}
	if existing, ok := f.periods[key]; ok {
		if existing.Deleted {
			existing.Deleted = false
			existing.ReservedByUserID = p.ReservedByUserID
		}
		cp := *existing
		return &cp, false, nil
	}
	f.nextID++
	p.ID = f.nextID
	f.periods[key] = &p
	cp := p
	return &cp, true, nil
}

func (f *fakeRepo) byID(id int64) *TimePeriod {
	for _, p := range f.periods {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (f *fakeRepo) UpdateNeededCount(_ context.Context, periodID int64, needed int) error {
	p := f.byID(periodID)
	if p == nil {
		return shared.ErrNotFound
	}
	p.NeededCount = needed
	return nil
}

func (f *fakeRepo) SetPeriodNote(_ context.Context, periodID int64, note string) error {
	p := f.byID(periodID)
	if p == nil {
		return shared.ErrNotFound
	}
	p.Note = &note
	return nil
}

func (f *fakeRepo) ClearPeriodNote(_ context.Context, periodID int64) error {
	if p := f.byID(periodID); p != nil {
		p.Note = nil
	}
	return nil
}

func (f *fakeRepo) InsertReservedItem(_ context.Context, item ReservedItem) error {
	f.items[item.TimePeriodID] = append(f.items[item.TimePeriodID], item)
	return nil
}

func (f *fakeRepo) DeleteReservedItems(_ context.Context, periodID int64) error {
	delete(f.items, periodID)
	return nil
}

func (f *fakeRepo) GetOrCreateReservedVehicle(_ context.Context, periodID, vehicleID int64) error {
	if f.vehicles[periodID] == nil {
		f.vehicles[periodID] = make(map[int64]bool)
	}
	f.vehicles[periodID][vehicleID] = true
	return nil
}

func (f *fakeRepo) ListPeriodsByJob(_ context.Context, jobID int64) ([]TimePeriod, error) {
	var out []TimePeriod
	for _, p := range f.periods {
		if p.JobID == jobID && !p.Deleted {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListReservedVehicles(_ context.Context, periodID int64) ([]ReservedVehicle, error) {
	var out []ReservedVehicle
	for id := range f.vehicles[periodID] {
		out = append(out, ReservedVehicle{TimePeriodID: periodID, VehicleID: id})
	}
	return out, nil
}

func (f *fakeRepo) PurgeDeletedBefore(context.Context, time.Time) (int64, error) { return 0, nil }

func (f *fakeRepo) periodCount() int { return len(f.periods) }

func (f *fakeRepo) itemCount() int {
	n := 0
	for _, its := range f.items {
		n += len(its)
	}
	return n
}

func (f *fakeRepo) vehicleCount() int {
	n := 0
	for _, vs := range f.vehicles {
		n += len(vs)
	}
	return n
}

type fakeOfferSource struct {
	offer *offers.Offer
}

func (f *fakeOfferSource) Get(_ context.Context, id int64) (*offers.Offer, error) {
	if f.offer == nil || f.offer.ID != id {
		return nil, shared.ErrNotFound
	}
	return f.offer, nil
}

type fakeProjects struct {
	job *projects.Job
}

func (f *fakeProjects) Get(_ context.Context, id int64) (*projects.Job, error) {
	if f.job == nil || f.job.ID != id {
		return nil, shared.ErrNotFound
	}
	return f.job, nil
}

func (f *fakeProjects) MarkInvoiced(context.Context, int64) error { return nil }

func (f *fakeProjects) CompanyName(context.Context, int64) (string, error) {
	return "Backline ApS", nil
}

type fakeOwners struct {
	names map[int64]string
}

func (f *fakeOwners) OwnerName(_ context.Context, id int64) (string, error) {
	name, ok := f.names[id]
	if !ok {
		return "", shared.ErrNotFound
	}
	return name, nil
}

type fakeFleet struct {
	pool []fleet.Vehicle
}

func (f *fakeFleet) Get(_ context.Context, id int64) (*fleet.Vehicle, error) {
	for i := range f.pool {
		if f.pool[i].ID == id {
			return &f.pool[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeFleet) ListActiveByCategory(_ context.Context, _ int64, category string) ([]fleet.Vehicle, error) {
	var out []fleet.Vehicle
	for _, v := range f.pool {
		if v.Category == category && !v.Deleted {
			out = append(out, v)
		}
	}
	return out, nil
}

var (
	testStart = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	testEnd   = time.Date(2026, 6, 4, 20, 0, 0, 0, time.UTC)
)

func ptr[T any](v T) *T { return &v }

func acceptedOffer() *offers.Offer {
	return &offers.Offer{
		ID:        10,
		JobID:     7,
		CompanyID: 1,
		Status:    offers.StatusAccepted,
		Groups: []offers.EquipmentGroup{{
			Name: "PA",
			Items: []offers.EquipmentItem{
				{CatalogItemID: ptr(int64(100)), Name: "Line array", Quantity: 2, UnitPrice: decimal.NewFromInt(500)},
				{CatalogItemID: ptr(int64(101)), Name: "Subs", Quantity: 4, UnitPrice: decimal.NewFromInt(200), OwnerID: ptr(int64(55))},
				{CatalogItemID: nil, Name: "Placeholder", Quantity: 1},
			},
		}},
		Crew: []offers.CrewItem{
			{RoleTitle: "Stagehand", CrewCount: 2, StartsAt: testStart, EndsAt: testEnd},
			{RoleTitle: "Stagehand", CrewCount: 3, StartsAt: testStart, EndsAt: testEnd},
			{RoleTitle: "Rigger", CrewCount: 1, StartsAt: testStart, EndsAt: testEnd},
		},
		Transport: []offers.TransportItem{
			{VehicleCategory: "van", StartsAt: testStart, EndsAt: testEnd},
		},
	}
}

func newTestMaterializer(repo *fakeRepo, offer *offers.Offer, pool []fleet.Vehicle) *Materializer {
	return NewMaterializer(
		repo,
		&fakeOfferSource{offer: offer},
		&fakeProjects{job: &projects.Job{ID: 7, CompanyID: 1, Name: "Summer festival", StartsAt: &testStart, EndsAt: &testEnd}},
		&fakeOwners{names: map[int64]string{55: "Nordic Backline"}},
		fleet.NewAllocator(&fakeFleet{pool: pool}),
		nil,
		shared.FixedClock{Instant: testStart},
		slog.New(slog.DiscardHandler),
	)
}

func TestMaterializeIdempotent(t *testing.T) {
	repo := newFakeRepo()
	pool := []fleet.Vehicle{{ID: 1, CompanyID: 1, Category: "van", InternalOwned: true}}
	m := newTestMaterializer(repo, acceptedOffer(), pool)

	first, err := m.Materialize(context.Background(), 10, 42)
	require.NoError(t, err)
	// Two equipment owner buckets, two crew roles, one transport line.
	assert.Equal(t, 5, first.PeriodsCreated)

	periods, items, vehicles := repo.periodCount(), repo.itemCount(), repo.vehicleCount()

	second, err := m.Materialize(context.Background(), 10, 42)
	require.NoError(t, err)
	assert.Zero(t, second.PeriodsCreated)
	assert.Equal(t, periods, repo.periodCount())
	assert.Equal(t, items, repo.itemCount())
	assert.Equal(t, vehicles, repo.vehicleCount())
}

func TestMaterializeEquipmentBuckets(t *testing.T) {
	repo := newFakeRepo()
	m := newTestMaterializer(repo, acceptedOffer(), nil)

	_, err := m.Materialize(context.Background(), 10, 42)
	require.NoError(t, err)

	periods, err := repo.ListPeriodsByJob(context.Background(), 7)
	require.NoError(t, err)

	titles := make(map[string]PeriodCategory)
	for _, p := range periods {
		titles[p.Title] = p.Category
	}
	assert.Equal(t, CategoryEquipment, titles["Internal Equipment period"])
	assert.Equal(t, CategoryEquipment, titles["Nordic Backline Equipment period"])
	// Placeholder line without a catalog reference never lands in a booking.
	assert.Equal(t, 2, repo.itemCount())
}

func TestMaterializeCrewAggregation(t *testing.T) {
	repo := newFakeRepo()
	m := newTestMaterializer(repo, acceptedOffer(), nil)

	res, err := m.Materialize(context.Background(), 10, 42)
	require.NoError(t, err)
	assert.Equal(t, 6, res.CrewDemand)

	periods, err := repo.ListPeriodsByJob(context.Background(), 7)
	require.NoError(t, err)

	byTitle := make(map[string]TimePeriod)
	for _, p := range periods {
		if p.Category == CategoryCrew {
			byTitle[p.Title] = p
		}
	}
	require.Len(t, byTitle, 2)
	assert.Equal(t, 5, byTitle["Stagehand"].NeededCount)
	assert.Equal(t, 1, byTitle["Rigger"].NeededCount)
}

func TestMaterializeVehicleGapNote(t *testing.T) {
	repo := newFakeRepo()
	m := newTestMaterializer(repo, acceptedOffer(), nil) // empty pool

	res, err := m.Materialize(context.Background(), 10, 42)
	require.NoError(t, err)
	require.Len(t, res.Notes, 1)
	assert.Equal(t, "No available vehicles found for van", res.Notes[0])
	assert.Zero(t, res.VehiclesReserved)

	periods, _ := repo.ListPeriodsByJob(context.Background(), 7)
	var transport *TimePeriod
	for i := range periods {
		if periods[i].Category == CategoryTransport {
			transport = &periods[i]
		}
	}
	require.NotNil(t, transport)
	require.NotNil(t, transport.Note)
	assert.Contains(t, *transport.Note, "No available vehicles")
}

func TestMaterializeNoteClearedOnceAllocated(t *testing.T) {
	repo := newFakeRepo()
	offer := acceptedOffer()

	m := newTestMaterializer(repo, offer, nil)
	_, err := m.Materialize(context.Background(), 10, 42)
	require.NoError(t, err)

	// Fleet gained a van since; the re-run books it and drops the gap note.
	m = newTestMaterializer(repo, offer, []fleet.Vehicle{{ID: 9, CompanyID: 1, Category: "van", InternalOwned: true}})
	res, err := m.Materialize(context.Background(), 10, 42)
	require.NoError(t, err)
	assert.Equal(t, 1, res.VehiclesReserved)

	periods, _ := repo.ListPeriodsByJob(context.Background(), 7)
	for _, p := range periods {
		if p.Category == CategoryTransport {
			assert.Nil(t, p.Note)
		}
	}
}

func TestMaterializeNoDoubleVehicleAssignment(t *testing.T) {
	repo := newFakeRepo()
	offer := acceptedOffer()
	offer.Transport = []offers.TransportItem{
		{VehicleCategory: "van", StartsAt: testStart, EndsAt: testEnd, VehicleName: "Crew van"},
		{VehicleCategory: "van", StartsAt: testStart.Add(time.Hour), EndsAt: testEnd, VehicleName: "Gear van"},
	}
	pool := []fleet.Vehicle{
		{ID: 1, CompanyID: 1, Category: "van", InternalOwned: true},
		{ID: 2, CompanyID: 1, Category: "van"},
	}
	m := newTestMaterializer(repo, offer, pool)

	res, err := m.Materialize(context.Background(), 10, 42)
	require.NoError(t, err)
	assert.Equal(t, 2, res.VehiclesReserved)

	seen := make(map[int64]int)
	for periodID := range repo.vehicles {
		vs, _ := repo.ListReservedVehicles(context.Background(), periodID)
		for _, v := range vs {
			seen[v.VehicleID]++
		}
	}
	require.Len(t, seen, 2)
	for id, n := range seen {
		assert.Equal(t, 1, n, "vehicle %d assigned more than once", id)
	}
}

func TestMaterializeRejectsNonAccepted(t *testing.T) {
	repo := newFakeRepo()
	offer := acceptedOffer()
	offer.Status = offers.StatusSent
	m := newTestMaterializer(repo, offer, nil)

	_, err := m.Materialize(context.Background(), 10, 42)
	require.ErrorIs(t, err, shared.ErrInvalidState)
	assert.Zero(t, repo.periodCount())
}

func TestMaterializeMissingOffer(t *testing.T) {
	m := newTestMaterializer(newFakeRepo(), acceptedOffer(), nil)
	_, err := m.Materialize(context.Background(), 999, 42)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
