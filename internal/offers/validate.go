package offers

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/backline-app/backline/internal/shared"
)

var maxPercent = decimal.NewFromInt(100)

// ValidateOffer is the pre-save gate. Pricing itself never rejects inputs;
// everything that should block persistence is checked here.
func ValidateOffer(o *Offer) error {
	if o.Title == "" {
		return fmt.Errorf("%w: title is required", shared.ErrValidation)
	}
	if o.DaysOfUse < 1 {
		return fmt.Errorf("%w: days_of_use must be at least 1", shared.ErrValidation)
	}
	if o.DiscountPercent.IsNegative() || o.DiscountPercent.GreaterThan(maxPercent) {
		return fmt.Errorf("%w: discount_percent must be between 0 and 100", shared.ErrValidation)
	}
	if o.VATPercent.IsNegative() {
		return fmt.Errorf("%w: vat_percent must not be negative", shared.ErrValidation)
	}

	if len(o.EquipmentItems()) == 0 && len(o.Crew) == 0 && len(o.Transport) == 0 && o.Type != TypePretty {
		return fmt.Errorf("%w: offer has no line items", shared.ErrValidation)
	}

	for _, g := range o.Groups {
		for _, item := range g.Items {
			if item.Quantity < 1 {
				return fmt.Errorf("%w: equipment item %q quantity must be at least 1", shared.ErrValidation, item.Name)
			}
			if item.UnitPrice.IsNegative() {
				return fmt.Errorf("%w: equipment item %q unit price must not be negative", shared.ErrValidation, item.Name)
			}
		}
	}
	for _, c := range o.Crew {
		if c.CrewCount < 1 {
			return fmt.Errorf("%w: crew line %q count must be at least 1", shared.ErrValidation, c.RoleTitle)
		}
		if c.EndsAt.Before(c.StartsAt) {
			return fmt.Errorf("%w: crew line %q ends before it starts", shared.ErrValidation, c.RoleTitle)
		}
	}
	for _, tr := range o.Transport {
		if tr.VehicleCategory == "" {
			return fmt.Errorf("%w: transport line is missing a vehicle category", shared.ErrValidation)
		}
		if tr.EndsAt.Before(tr.StartsAt) {
			return fmt.Errorf("%w: transport line %q ends before it starts", shared.ErrValidation, tr.VehicleCategory)
		}
	}
	return nil
}
