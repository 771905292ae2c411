package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/backline-app/backline/internal/bookings"
	"github.com/backline-app/backline/internal/offers"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypePurgePeriods removes time periods soft-deleted longer than the
	// retention window.
	TaskTypePurgePeriods = "bookings:purge_periods"
	// TaskTypeOfferSweep flags sent offers that have gone unanswered past
	// their validity window.
	TaskTypeOfferSweep = "offers:sweep_stale"
)

// PurgePeriodsPayload bounds one purge run.
type PurgePeriodsPayload struct {
	Retention time.Duration `json:"retention"`
}

// OfferSweepPayload bounds one stale-offer sweep.
type OfferSweepPayload struct {
	MaxAge time.Duration `json:"max_age"`
}

// NewPurgePeriodsTask constructs an Asynq task.
func NewPurgePeriodsTask(payload PurgePeriodsPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePurgePeriods, data), nil
}

// NewOfferSweepTask constructs an Asynq task.
func NewOfferSweepTask(payload OfferSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeOfferSweep, data), nil
}

// PurgePeriodsJob deletes long-soft-deleted time periods for good.
type PurgePeriodsJob struct {
	Repo   bookings.Repository
	Logger *slog.Logger
	clock  func() time.Time
}

func NewPurgePeriodsJob(repo bookings.Repository, logger *slog.Logger) *PurgePeriodsJob {
	return &PurgePeriodsJob{
		Repo:   repo,
		Logger: logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes one purge run.
func (j *PurgePeriodsJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload PurgePeriodsPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Retention <= 0 {
		payload.Retention = 90 * 24 * time.Hour
	}

	cutoff := j.clock().Add(-payload.Retention)
	purged, err := j.Repo.PurgeDeletedBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	j.Logger.Info("purged soft-deleted time periods",
		slog.Int64("purged", purged), slog.Time("cutoff", cutoff))
	return nil
}

// OfferSweepJob logs sent offers that have been awaiting an answer longer
// than the validity window. It only flags; it never changes offer status.
type OfferSweepJob struct {
	Repo   offers.Repository
	Logger *slog.Logger
	clock  func() time.Time
}

func NewOfferSweepJob(repo offers.Repository, logger *slog.Logger) *OfferSweepJob {
	return &OfferSweepJob{
		Repo:   repo,
		Logger: logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes one sweep.
func (j *OfferSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload OfferSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.MaxAge <= 0 {
		payload.MaxAge = 30 * 24 * time.Hour
	}

	cutoff := j.clock().Add(-payload.MaxAge)
	stale, err := j.Repo.StaleSentBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	for _, id := range stale {
		j.Logger.Warn("offer still unanswered past validity window",
			slog.Int64("offer_id", id), slog.Time("sent_before", cutoff))
	}
	j.Logger.Info("offer sweep finished", slog.Int("stale", len(stale)))
	return nil
}
