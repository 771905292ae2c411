package money

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestApplyPercent(t *testing.T) {
	got := ApplyPercent(decimal.NewFromInt(17000), decimal.NewFromInt(10))
	assert.True(t, got.Equal(decimal.NewFromInt(1700)), "got %s", got)

	zero := ApplyPercent(decimal.Zero, decimal.NewFromInt(25))
	assert.True(t, zero.IsZero())
}

func TestRound(t *testing.T) {
	got := Round(decimal.RequireFromString("10.005"))
	assert.Equal(t, "10.01", got.StringFixed(2))
}

func TestBillableDays(t *testing.T) {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		end  time.Time
		want int64
	}{
		{"exactly 24h charges one day", base.Add(24 * time.Hour), 1},
		{"25h charges two days", base.Add(25 * time.Hour), 2},
		{"zero span charges minimum one day", base, 1},
		{"end before start charges minimum one day", base.Add(-time.Hour), 1},
		{"three full days", base.Add(72 * time.Hour), 3},
		{"just under 48h charges two days", base.Add(48*time.Hour - time.Minute), 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, BillableDays(base, tc.end))
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "19,125.00 DKK", Format(decimal.NewFromInt(19125), "DKK"))
	assert.Equal(t, "0.00", Format(decimal.Zero, ""))
}
