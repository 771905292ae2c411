package offers

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateOfferRequest struct {
	JobID           int64           `json:"job_id" validate:"required,gt=0"`
	CompanyID       int64           `json:"company_id" validate:"required,gt=0"`
	Type            OfferType       `json:"type" validate:"required,oneof=technical pretty"`
	Title           string          `json:"title" validate:"required,max=200"`
	DaysOfUse       int             `json:"days_of_use" validate:"required,gte=1"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	VATPercent      decimal.Decimal `json:"vat_percent"`

	Groups    []EquipmentGroupReq `json:"groups" validate:"dive"`
	Crew      []CrewItemReq       `json:"crew" validate:"dive"`
	Transport []TransportItemReq  `json:"transport" validate:"dive"`
	Sections  []PrettySectionReq  `json:"sections" validate:"dive"`
}

type EquipmentGroupReq struct {
	Name      string             `json:"name" validate:"required,max=200"`
	SortOrder int                `json:"sort_order" validate:"gte=0"`
	Items     []EquipmentItemReq `json:"items" validate:"dive"`
}

type EquipmentItemReq struct {
	CatalogItemID *int64          `json:"catalog_item_id,omitempty"`
	Name          string          `json:"name" validate:"required,max=200"`
	Quantity      int             `json:"quantity" validate:"required,gte=1"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	InternalOwned bool            `json:"internal_owned"`
	OwnerID       *int64          `json:"owner_id,omitempty"`
	SortOrder     int             `json:"sort_order" validate:"gte=0"`
}

type CrewItemReq struct {
	RoleTitle string          `json:"role_title" validate:"required,max=200"`
	CrewCount int             `json:"crew_count" validate:"required,gte=1"`
	StartsAt  time.Time       `json:"starts_at" validate:"required"`
	EndsAt    time.Time       `json:"ends_at" validate:"required"`
	DailyRate decimal.Decimal `json:"daily_rate"`
}

type TransportItemReq struct {
	VehicleID         *int64           `json:"vehicle_id,omitempty"`
	VehicleName       string           `json:"vehicle_name" validate:"max=200"`
	VehicleCategory   string           `json:"vehicle_category" validate:"required,max=100"`
	StartsAt          time.Time        `json:"starts_at" validate:"required"`
	EndsAt            time.Time        `json:"ends_at" validate:"required"`
	DailyRate         decimal.Decimal  `json:"daily_rate"`
	DistanceRate      *decimal.Decimal `json:"distance_rate,omitempty"`
	DistanceIncrement *decimal.Decimal `json:"distance_increment,omitempty"`
	InternalOwned     bool             `json:"internal_owned"`
}

type PrettySectionReq struct {
	Kind      SectionKind `json:"kind" validate:"required,oneof=hero problem solution benefits testimonial"`
	Heading   string      `json:"heading" validate:"max=300"`
	Body      string      `json:"body"`
	SortOrder int         `json:"sort_order" validate:"gte=0"`
}

// UpdateOfferRequest replaces offer metadata and, when the slices are
// non-nil, the full line-item graph. Draft offers only.
type UpdateOfferRequest struct {
	Title           *string          `json:"title,omitempty" validate:"omitempty,max=200"`
	DaysOfUse       *int             `json:"days_of_use,omitempty" validate:"omitempty,gte=1"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
	VATPercent      *decimal.Decimal `json:"vat_percent,omitempty"`

	Groups    *[]EquipmentGroupReq `json:"groups,omitempty" validate:"omitempty,dive"`
	Crew      *[]CrewItemReq       `json:"crew,omitempty" validate:"omitempty,dive"`
	Transport *[]TransportItemReq  `json:"transport,omitempty" validate:"omitempty,dive"`
	Sections  *[]PrettySectionReq  `json:"sections,omitempty" validate:"omitempty,dive"`
}

type ListOffersRequest struct {
	JobID  *int64       `json:"job_id,omitempty"`
	Status *OfferStatus `json:"status,omitempty"`
	Limit  int          `json:"limit" validate:"gte=0,lte=1000"`
	Offset int          `json:"offset" validate:"gte=0"`
}

type DuplicateOfferRequest struct {
	// SupersedeOriginal displaces a sent original once the copy exists,
	// marking it superseded.
	SupersedeOriginal bool `json:"supersede_original"`
}

// PublicActionRequest carries the counterparty identity for token-gated
// accept/reject/revision actions.
type PublicActionRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Phone   string `json:"phone" validate:"required,max=50"`
	Comment string `json:"comment" validate:"max=2000"`
}
