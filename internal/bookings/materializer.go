package bookings

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/backline-app/backline/internal/fleet"
	"github.com/backline-app/backline/internal/observability"
	"github.com/backline-app/backline/internal/offers"
	"github.com/backline-app/backline/internal/projects"
	"github.com/backline-app/backline/internal/shared"
)

// OfferSource loads an offer with its full line-item graph. *offers.Service
// satisfies it.
type OfferSource interface {
	Get(ctx context.Context, id int64) (*offers.Offer, error)
}

// OwnerDirectory resolves external equipment owner ids to display names.
type OwnerDirectory interface {
	OwnerName(ctx context.Context, ownerID int64) (string, error)
}

// Result summarizes one materialization run. Notes carries the human-readable
// gaps (for example unallocatable vehicles) that did not fail the run.
type Result struct {
	RunID            string   `json:"run_id"`
	OfferID          int64    `json:"offer_id"`
	PeriodsCreated   int      `json:"periods_created"`
	PeriodsReused    int      `json:"periods_reused"`
	ItemsReserved    int      `json:"items_reserved"`
	CrewDemand       int      `json:"crew_demand"`
	VehiclesReserved int      `json:"vehicles_reserved"`
	Notes            []string `json:"notes,omitempty"`
	FailedCategories []string `json:"failed_categories,omitempty"`
}

// Materializer turns an accepted offer's line items into time periods and
// reservation rows. Re-running it over the same offer is safe: periods and
// vehicle reservations are get-or-create, and equipment reservations are
// replaced per period rather than appended.
type Materializer struct {
	repo      Repository
	offers    OfferSource
	projects  projects.Repository
	owners    OwnerDirectory
	allocator *fleet.Allocator
	metrics   *observability.Metrics
	clock     shared.Clock
	logger    *slog.Logger
}

func NewMaterializer(
	repo Repository,
	offerSrc OfferSource,
	projectsRepo projects.Repository,
	owners OwnerDirectory,
	allocator *fleet.Allocator,
	metrics *observability.Metrics,
	clock shared.Clock,
	logger *slog.Logger,
) *Materializer {
	return &Materializer{
		repo:      repo,
		offers:    offerSrc,
		projects:  projectsRepo,
		owners:    owners,
		allocator: allocator,
		metrics:   metrics,
		clock:     clock,
		logger:    logger,
	}
}

// Materialize books the offer's lines against its job. Categories are
// processed independently: a failure in one is recorded on the result and
// does not roll back the others.
func (m *Materializer) Materialize(ctx context.Context, offerID, actingUserID int64) (*Result, error) {
	offer, err := m.offers.Get(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer.Status != offers.StatusAccepted {
		return nil, fmt.Errorf("offer %d is %s, not accepted: %w", offerID, offer.Status, shared.ErrInvalidState)
	}
	equipment := offer.EquipmentItems()
	if len(equipment) == 0 && len(offer.Crew) == 0 && len(offer.Transport) == 0 {
		return nil, fmt.Errorf("offer %d has no line items: %w", offerID, shared.ErrInvalidState)
	}

	job, err := m.projects.Get(ctx, offer.JobID)
	if err != nil {
		return nil, err
	}
	jobStart, jobEnd := jobSpan(job, m.clock.Now())

	res := &Result{RunID: uuid.NewString(), OfferID: offerID}
	log := m.logger.With("run_id", res.RunID, "offer_id", offerID, "job_id", job.ID)
	log.Info("materialization started")

	attempted, failed := 0, 0
	if len(equipment) > 0 {
		attempted++
		if err := m.materializeEquipment(ctx, log, res, equipment, job.ID, jobStart, jobEnd, actingUserID); err != nil {
			failed++
			res.FailedCategories = append(res.FailedCategories, string(CategoryEquipment))
			log.Error("equipment materialization failed", "error", err)
		}
	}
	if len(offer.Crew) > 0 {
		attempted++
		if err := m.materializeCrew(ctx, res, offer.Crew, job.ID, jobStart, jobEnd, actingUserID); err != nil {
			failed++
			res.FailedCategories = append(res.FailedCategories, string(CategoryCrew))
			log.Error("crew materialization failed", "error", err)
		}
	}
	if len(offer.Transport) > 0 {
		attempted++
		if err := m.materializeTransport(ctx, log, res, offer.Transport, offer.CompanyID, job.ID, jobStart, jobEnd, actingUserID); err != nil {
			failed++
			res.FailedCategories = append(res.FailedCategories, string(CategoryTransport))
			log.Error("transport materialization failed", "error", err)
		}
	}

	outcome := "ok"
	switch {
	case failed == attempted && failed > 0:
		outcome = "failed"
	case failed > 0:
		outcome = "partial"
	}
	if m.metrics != nil {
		m.metrics.ObserveMaterialization(outcome)
	}
	log.Info("materialization finished",
		"outcome", outcome,
		"periods_created", res.PeriodsCreated,
		"periods_reused", res.PeriodsReused,
		"vehicles_reserved", res.VehiclesReserved)

	if outcome == "failed" {
		return res, fmt.Errorf("materialization of offer %d failed in all categories", offerID)
	}
	return res, nil
}

// materializeEquipment buckets lines by external owner (nil owner is the
// internal bucket), creates one period per bucket spanning the job, and
// replaces that period's reserved items with the offer's current lines.
// Lines with no catalog reference are placeholders and are skipped.
func (m *Materializer) materializeEquipment(
	ctx context.Context,
	log *slog.Logger,
	res *Result,
	items []offers.EquipmentItem,
	jobID int64,
	start, end time.Time,
	actingUserID int64,
) error {
	buckets := make(map[int64][]offers.EquipmentItem)
	var order []int64
	for _, it := range items {
		if it.CatalogItemID == nil {
			continue
		}
		key := int64(0) // internal
		if it.OwnerID != nil {
			key = *it.OwnerID
		}
		if _, seen := buckets[key]; !seen {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], it)
	}

	for _, ownerID := range order {
		name := "Internal"
		if ownerID != 0 {
			n, err := m.owners.OwnerName(ctx, ownerID)
			if err != nil {
				log.Warn("owner lookup failed, using placeholder", "owner_id", ownerID, "error", err)
				n = fmt.Sprintf("Owner %d", ownerID)
			}
			name = n
		}

		period, created, err := m.repo.GetOrCreatePeriod(ctx, TimePeriod{
			JobID:            jobID,
			Category:         CategoryEquipment,
			Title:            fmt.Sprintf("%s Equipment period", name),
			StartsAt:         start,
			EndsAt:           end,
			ReservedByUserID: &actingUserID,
		})
		if err != nil {
			return err
		}
		res.countPeriod(created)

		if err := m.repo.DeleteReservedItems(ctx, period.ID); err != nil {
			return err
		}
		for _, it := range buckets[ownerID] {
			if err := m.repo.InsertReservedItem(ctx, ReservedItem{
				TimePeriodID:  period.ID,
				CatalogItemID: *it.CatalogItemID,
				Quantity:      it.Quantity,
			}); err != nil {
				return err
			}
			res.ItemsReserved++
		}
	}
	return nil
}

type crewKey struct {
	role  string
	start time.Time
	end   time.Time
}

// materializeCrew aggregates demand by (role, start, end) and records it as
// needed_count on one period per aggregate. It never assigns people; crew
// fulfillment is a separate user-driven operation.
func (m *Materializer) materializeCrew(
	ctx context.Context,
	res *Result,
	crew []offers.CrewItem,
	jobID int64,
	jobStart, jobEnd time.Time,
	actingUserID int64,
) error {
	demand := make(map[crewKey]int)
	var order []crewKey
	for _, c := range crew {
		start, end := c.StartsAt, c.EndsAt
		if start.IsZero() {
			start, end = jobStart, jobEnd
		}
		key := crewKey{role: c.RoleTitle, start: start, end: end}
		if _, seen := demand[key]; !seen {
			order = append(order, key)
		}
		demand[key] += c.CrewCount
	}

	for _, key := range order {
		period, created, err := m.repo.GetOrCreatePeriod(ctx, TimePeriod{
			JobID:            jobID,
			Category:         CategoryCrew,
			Title:            key.role,
			StartsAt:         key.start,
			EndsAt:           key.end,
			NeededCount:      demand[key],
			ReservedByUserID: &actingUserID,
		})
		if err != nil {
			return err
		}
		res.countPeriod(created)
		res.CrewDemand += demand[key]

		if !created && period.NeededCount != demand[key] {
			if err := m.repo.UpdateNeededCount(ctx, period.ID, demand[key]); err != nil {
				return err
			}
		}
	}
	return nil
}

// materializeTransport books one period per transport line and resolves a
// concrete vehicle through the allocator. Allocation failure is not an
// error: the period gets a note so the gap stays visible.
func (m *Materializer) materializeTransport(
	ctx context.Context,
	log *slog.Logger,
	res *Result,
	lines []offers.TransportItem,
	companyID, jobID int64,
	jobStart, jobEnd time.Time,
	actingUserID int64,
) error {
	used := make(map[int64]struct{})
	for _, line := range lines {
		label := line.VehicleName
		if label == "" {
			label = line.VehicleCategory
		}
		start, end := line.StartsAt, line.EndsAt
		if start.IsZero() {
			start, end = jobStart, jobEnd
		}

		period, created, err := m.repo.GetOrCreatePeriod(ctx, TimePeriod{
			JobID:            jobID,
			Category:         CategoryTransport,
			Title:            fmt.Sprintf("Transport - %s (%s)", label, start.Format("2006-01-02")),
			StartsAt:         start,
			EndsAt:           end,
			ReservedByUserID: &actingUserID,
		})
		if err != nil {
			return err
		}
		res.countPeriod(created)

		vehicle, err := m.allocator.Allocate(ctx, fleet.AllocationRequest{
			CompanyID:     companyID,
			Category:      line.VehicleCategory,
			VehicleID:     line.VehicleID,
			VehicleName:   line.VehicleName,
			InternalOwned: line.InternalOwned,
		}, used)
		if err != nil {
			return err
		}
		if vehicle == nil {
			note := fmt.Sprintf("No available vehicles found for %s", label)
			if err := m.repo.SetPeriodNote(ctx, period.ID, note); err != nil {
				return err
			}
			res.Notes = append(res.Notes, note)
			log.Warn("no vehicle available", "category", line.VehicleCategory, "period_id", period.ID)
			continue
		}

		if err := m.repo.GetOrCreateReservedVehicle(ctx, period.ID, vehicle.ID); err != nil {
			return err
		}
		if err := m.repo.ClearPeriodNote(ctx, period.ID); err != nil {
			return err
		}
		res.VehiclesReserved++
	}
	return nil
}

func (r *Result) countPeriod(created bool) {
	if created {
		r.PeriodsCreated++
	} else {
		r.PeriodsReused++
	}
}

func jobSpan(job *projects.Job, now time.Time) (time.Time, time.Time) {
	if job.StartsAt == nil || job.EndsAt == nil {
		return now, now
	}
	return *job.StartsAt, *job.EndsAt
}
