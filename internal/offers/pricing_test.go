package offers

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeTotalsWorkedExample(t *testing.T) {
	start := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	in := PricingInput{
		Equipment: []EquipmentItem{
			{Quantity: 4, UnitPrice: d("2000")}, // 8000
			{Quantity: 1, UnitPrice: d("2000")}, // 2000
		},
		Crew: []CrewItem{
			// 2 techs, 2 days @ 1000 = 4000
			{CrewCount: 2, DailyRate: d("1000"), StartsAt: start, EndsAt: start.Add(48 * time.Hour)},
			// 1 stagehand, 1 day @ 1000 = 1000
			{CrewCount: 1, DailyRate: d("1000"), StartsAt: start, EndsAt: start.Add(24 * time.Hour)},
		},
		Transport: []TransportItem{
			// 2 days @ 1000 = 2000
			{DailyRate: d("1000"), StartsAt: start, EndsAt: start.Add(25 * time.Hour)},
		},
		DaysOfUse:       2,
		DiscountPercent: d("10"),
		VATPercent:      d("25"),
	}

	got := ComputeTotals(in)

	assert.True(t, got.EquipmentSubtotal.Equal(d("10000")), "equipment %s", got.EquipmentSubtotal)
	assert.True(t, got.CrewSubtotal.Equal(d("5000")), "crew %s", got.CrewSubtotal)
	assert.True(t, got.TransportSubtotal.Equal(d("2000")), "transport %s", got.TransportSubtotal)
	assert.True(t, got.TotalBeforeDiscount.Equal(d("17000")), "before discount %s", got.TotalBeforeDiscount)
	assert.True(t, got.DiscountAmount.Equal(d("1700")), "discount %s", got.DiscountAmount)
	assert.True(t, got.TotalAfterDiscount.Equal(d("15300")), "after discount %s", got.TotalAfterDiscount)
	assert.True(t, got.VATAmount.Equal(d("3825")), "vat %s", got.VATAmount)
	assert.True(t, got.TotalWithVAT.Equal(d("19125")), "with vat %s", got.TotalWithVAT)
}

func TestComputeTotalsEmptyOffer(t *testing.T) {
	got := ComputeTotals(PricingInput{DaysOfUse: 3, DiscountPercent: d("10"), VATPercent: d("25")})

	assert.True(t, got.EquipmentSubtotal.IsZero())
	assert.True(t, got.CrewSubtotal.IsZero())
	assert.True(t, got.TransportSubtotal.IsZero())
	assert.True(t, got.TotalBeforeDiscount.IsZero())
	assert.True(t, got.TotalAfterDiscount.IsZero())
	assert.True(t, got.TotalWithVAT.IsZero())
}

func TestComputeTotalsDayCeiling(t *testing.T) {
	start := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	oneDay := ComputeTotals(PricingInput{
		Crew: []CrewItem{{CrewCount: 1, DailyRate: d("500"), StartsAt: start, EndsAt: start.Add(24 * time.Hour)}},
	})
	assert.True(t, oneDay.CrewSubtotal.Equal(d("500")), "24h span must charge one day, got %s", oneDay.CrewSubtotal)

	twoDays := ComputeTotals(PricingInput{
		Crew: []CrewItem{{CrewCount: 1, DailyRate: d("500"), StartsAt: start, EndsAt: start.Add(25 * time.Hour)}},
	})
	assert.True(t, twoDays.CrewSubtotal.Equal(d("1000")), "25h span must charge two days, got %s", twoDays.CrewSubtotal)
}

func TestComputeTotalsDeterministic(t *testing.T) {
	start := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	in := PricingInput{
		Equipment:       []EquipmentItem{{Quantity: 3, UnitPrice: d("123.45")}},
		Crew:            []CrewItem{{CrewCount: 2, DailyRate: d("811.11"), StartsAt: start, EndsAt: start.Add(30 * time.Hour)}},
		Transport:       []TransportItem{{DailyRate: d("75.50"), StartsAt: start, EndsAt: start.Add(3 * time.Hour)}},
		DiscountPercent: d("7.5"),
		VATPercent:      d("25"),
	}

	first := ComputeTotals(in)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ComputeTotals(in))
	}

	// Percent identities within rounding tolerance.
	wantAfter := first.TotalBeforeDiscount.Mul(d("0.925"))
	assert.True(t, first.TotalAfterDiscount.Sub(wantAfter).Abs().LessThanOrEqual(d("0.01")))
	wantWithVAT := first.TotalAfterDiscount.Mul(d("1.25"))
	assert.True(t, first.TotalWithVAT.Sub(wantWithVAT).Abs().LessThanOrEqual(d("0.01")))
}

func TestComputeTotalsDistanceRateNotFolded(t *testing.T) {
	start := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	rate := d("12.50")
	incr := d("25")

	with := ComputeTotals(PricingInput{Transport: []TransportItem{{
		DailyRate: d("900"), StartsAt: start, EndsAt: start.Add(24 * time.Hour),
		DistanceRate: &rate, DistanceIncrement: &incr,
	}}})
	without := ComputeTotals(PricingInput{Transport: []TransportItem{{
		DailyRate: d("900"), StartsAt: start, EndsAt: start.Add(24 * time.Hour),
	}}})

	assert.True(t, with.TransportSubtotal.Equal(without.TransportSubtotal))
}

func TestLineTotalsRecomputedNeverTrusted(t *testing.T) {
	items := []EquipmentItem{{Quantity: 3, UnitPrice: d("100"), TotalPrice: d("999999")}}
	LineTotals(items, nil, nil)
	assert.True(t, items[0].TotalPrice.Equal(d("300")), "got %s", items[0].TotalPrice)
}
