package jobs

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backline-app/backline/internal/bookings"
)

type stubBookingRepo struct {
	bookings.Repository
	cutoff time.Time
	purged int64
}

func (s *stubBookingRepo) PurgeDeletedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.cutoff = cutoff
	return s.purged, nil
}

func TestPurgePeriodsJobUsesRetention(t *testing.T) {
	repo := &stubBookingRepo{purged: 3}
	job := NewPurgePeriodsJob(repo, slog.New(slog.DiscardHandler))
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	job.clock = func() time.Time { return now }

	task, err := NewPurgePeriodsTask(PurgePeriodsPayload{Retention: 48 * time.Hour})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, now.Add(-48*time.Hour), repo.cutoff)
}

func TestPurgePeriodsJobDefaultsRetention(t *testing.T) {
	repo := &stubBookingRepo{}
	job := NewPurgePeriodsJob(repo, slog.New(slog.DiscardHandler))
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	job.clock = func() time.Time { return now }

	task, err := NewPurgePeriodsTask(PurgePeriodsPayload{})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, now.Add(-90*24*time.Hour), repo.cutoff)
}
