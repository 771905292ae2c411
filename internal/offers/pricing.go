package offers

import (
	"github.com/shopspring/decimal"

	"github.com/backline-app/backline/internal/money"
)

// Totals is the full price breakdown of one offer.
type Totals struct {
	EquipmentSubtotal   decimal.Decimal `json:"equipment_subtotal"`
	CrewSubtotal        decimal.Decimal `json:"crew_subtotal"`
	TransportSubtotal   decimal.Decimal `json:"transport_subtotal"`
	TotalBeforeDiscount decimal.Decimal `json:"total_before_discount"`
	DiscountAmount      decimal.Decimal `json:"discount_amount"`
	TotalAfterDiscount  decimal.Decimal `json:"total_after_discount"`
	VATAmount           decimal.Decimal `json:"vat_amount"`
	TotalWithVAT        decimal.Decimal `json:"total_with_vat"`
}

// PricingInput carries everything ComputeTotals looks at. DaysOfUse is part
// of the offer contract and threaded through for callers that surface it,
// but no current subtotal folds it in: equipment is priced per line and crew
// and transport charge by their own date spans.
type PricingInput struct {
	Equipment       []EquipmentItem
	Crew            []CrewItem
	Transport       []TransportItem
	DaysOfUse       int
	DiscountPercent decimal.Decimal
	VATPercent      decimal.Decimal
}

// ComputeTotals turns heterogeneous line items into a single breakdown. Pure
// and deterministic: the live recompute on edit and the authoritative
// persisted recompute both call this and must agree bit for bit.
//
// Equipment lines ignore grouping and charge unit price times quantity. Crew
// lines charge daily rate times crew count times the billable days of their
// own span. Transport lines charge daily rate times billable days; distance
// rate and increment are accepted as configuration but not folded in.
func ComputeTotals(in PricingInput) Totals {
	var t Totals

	for _, item := range in.Equipment {
		qty := decimal.NewFromInt(int64(item.Quantity))
		t.EquipmentSubtotal = t.EquipmentSubtotal.Add(item.UnitPrice.Mul(qty))
	}

	for _, c := range in.Crew {
		days := decimal.NewFromInt(money.BillableDays(c.StartsAt, c.EndsAt))
		count := decimal.NewFromInt(int64(c.CrewCount))
		t.CrewSubtotal = t.CrewSubtotal.Add(c.DailyRate.Mul(count).Mul(days))
	}

	for _, tr := range in.Transport {
		days := decimal.NewFromInt(money.BillableDays(tr.StartsAt, tr.EndsAt))
		t.TransportSubtotal = t.TransportSubtotal.Add(tr.DailyRate.Mul(days))
	}

	t.EquipmentSubtotal = money.Round(t.EquipmentSubtotal)
	t.CrewSubtotal = money.Round(t.CrewSubtotal)
	t.TransportSubtotal = money.Round(t.TransportSubtotal)

	t.TotalBeforeDiscount = t.EquipmentSubtotal.Add(t.CrewSubtotal).Add(t.TransportSubtotal)
	t.DiscountAmount = money.Round(money.ApplyPercent(t.TotalBeforeDiscount, in.DiscountPercent))
	t.TotalAfterDiscount = t.TotalBeforeDiscount.Sub(t.DiscountAmount)
	t.VATAmount = money.Round(money.ApplyPercent(t.TotalAfterDiscount, in.VATPercent))
	t.TotalWithVAT = t.TotalAfterDiscount.Add(t.VATAmount)

	return t
}

// LineTotals recomputes the per-line total prices in place, never trusting
// caller-supplied totals.
func LineTotals(equipment []EquipmentItem, crew []CrewItem, transport []TransportItem) {
	for i := range equipment {
		qty := decimal.NewFromInt(int64(equipment[i].Quantity))
		equipment[i].TotalPrice = money.Round(equipment[i].UnitPrice.Mul(qty))
	}
	for i := range crew {
		days := decimal.NewFromInt(money.BillableDays(crew[i].StartsAt, crew[i].EndsAt))
		count := decimal.NewFromInt(int64(crew[i].CrewCount))
		crew[i].TotalPrice = money.Round(crew[i].DailyRate.Mul(count).Mul(days))
	}
	for i := range transport {
		days := decimal.NewFromInt(money.BillableDays(transport[i].StartsAt, transport[i].EndsAt))
		transport[i].TotalPrice = money.Round(transport[i].DailyRate.Mul(days))
	}
}
