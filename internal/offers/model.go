package offers

import (
	"time"

	"github.com/shopspring/decimal"
)

type OfferStatus string

const (
	StatusDraft             OfferStatus = "draft"
	StatusSent              OfferStatus = "sent"
	StatusViewed            OfferStatus = "viewed"
	StatusAccepted          OfferStatus = "accepted"
	StatusRejected          OfferStatus = "rejected"
	StatusRevisionRequested OfferStatus = "revision_requested"
	StatusSuperseded        OfferStatus = "superseded"
)

type OfferType string

const (
	TypeTechnical OfferType = "technical"
	TypePretty    OfferType = "pretty"
)

// Offer is a versioned, priced proposal tied to a job. Totals are always a
// pure function of the current line items plus days-of-use, discount and VAT;
// they are recomputed on every mutation and never hand-edited.
type Offer struct {
	ID            int64       `json:"id" db:"id"`
	JobID         int64       `json:"job_id" db:"job_id"`
	CompanyID     int64       `json:"company_id" db:"company_id"`
	Type          OfferType   `json:"type" db:"type"`
	VersionNumber int         `json:"version_number" db:"version_number"`
	Status        OfferStatus `json:"status" db:"status"`
	Locked        bool        `json:"locked" db:"locked"`
	AccessToken   string      `json:"-" db:"access_token"`
	Title         string      `json:"title" db:"title"`
	DaysOfUse     int         `json:"days_of_use" db:"days_of_use"`

	DiscountPercent decimal.Decimal `json:"discount_percent" db:"discount_percent"`
	VATPercent      decimal.Decimal `json:"vat_percent" db:"vat_percent"`

	EquipmentSubtotal   decimal.Decimal `json:"equipment_subtotal" db:"equipment_subtotal"`
	CrewSubtotal        decimal.Decimal `json:"crew_subtotal" db:"crew_subtotal"`
	TransportSubtotal   decimal.Decimal `json:"transport_subtotal" db:"transport_subtotal"`
	TotalBeforeDiscount decimal.Decimal `json:"total_before_discount" db:"total_before_discount"`
	TotalAfterDiscount  decimal.Decimal `json:"total_after_discount" db:"total_after_discount"`
	TotalWithVAT        decimal.Decimal `json:"total_with_vat" db:"total_with_vat"`

	SentAt              *time.Time `json:"sent_at,omitempty" db:"sent_at"`
	ViewedAt            *time.Time `json:"viewed_at,omitempty" db:"viewed_at"`
	AcceptedAt          *time.Time `json:"accepted_at,omitempty" db:"accepted_at"`
	RejectedAt          *time.Time `json:"rejected_at,omitempty" db:"rejected_at"`
	RevisionRequestedAt *time.Time `json:"revision_requested_at,omitempty" db:"revision_requested_at"`

	AcceptedByName  *string `json:"accepted_by_name,omitempty" db:"accepted_by_name"`
	AcceptedByPhone *string `json:"accepted_by_phone,omitempty" db:"accepted_by_phone"`
	RejectedByName  *string `json:"rejected_by_name,omitempty" db:"rejected_by_name"`
	RejectedByPhone *string `json:"rejected_by_phone,omitempty" db:"rejected_by_phone"`
	RevisionComment *string `json:"revision_comment,omitempty" db:"revision_comment"`

	BasedOnOfferID *int64 `json:"based_on_offer_id,omitempty" db:"based_on_offer_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	Groups    []EquipmentGroup `json:"groups,omitempty" db:"-"`
	Crew      []CrewItem       `json:"crew,omitempty" db:"-"`
	Transport []TransportItem  `json:"transport,omitempty" db:"-"`
	Sections  []PrettySection  `json:"sections,omitempty" db:"-"`
}

// EquipmentItems flattens the group tree; pricing and materialization ignore
// the grouping, it exists for display only.
func (o *Offer) EquipmentItems() []EquipmentItem {
	var items []EquipmentItem
	for _, g := range o.Groups {
		items = append(items, g.Items...)
	}
	return items
}

// Editable reports whether normal edit and delete paths may touch the offer.
func (o *Offer) Editable() bool {
	return o.Status == StatusDraft && !o.Locked
}

// PubliclyActionable reports whether a token holder may still accept, reject
// or request a revision. Viewing does not consume the offer, so both sent
// and viewed qualify.
func (o *Offer) PubliclyActionable() bool {
	return o.Status == StatusSent || o.Status == StatusViewed
}

// EquipmentGroup is a display grouping of equipment lines within one offer.
type EquipmentGroup struct {
	ID        int64           `json:"id" db:"id"`
	OfferID   int64           `json:"offer_id" db:"offer_id"`
	Name      string          `json:"name" db:"name"`
	SortOrder int             `json:"sort_order" db:"sort_order"`
	Items     []EquipmentItem `json:"items,omitempty" db:"-"`
}

// EquipmentItem is one equipment line. CatalogItemID is nil for placeholder
// rows that never materialize into bookings.
type EquipmentItem struct {
	ID            int64           `json:"id" db:"id"`
	GroupID       int64           `json:"group_id" db:"group_id"`
	CatalogItemID *int64          `json:"catalog_item_id,omitempty" db:"catalog_item_id"`
	Name          string          `json:"name" db:"name"`
	Quantity      int             `json:"quantity" db:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price" db:"unit_price"`
	TotalPrice    decimal.Decimal `json:"total_price" db:"total_price"`
	InternalOwned bool            `json:"internal_owned" db:"internal_owned"`
	OwnerID       *int64          `json:"owner_id,omitempty" db:"owner_id"`
	SortOrder     int             `json:"sort_order" db:"sort_order"`
}

// CrewItem is one crew line; its own date span determines the billed day
// count, not the offer-level days of use.
type CrewItem struct {
	ID         int64           `json:"id" db:"id"`
	OfferID    int64           `json:"offer_id" db:"offer_id"`
	RoleTitle  string          `json:"role_title" db:"role_title"`
	CrewCount  int             `json:"crew_count" db:"crew_count"`
	StartsAt   time.Time       `json:"starts_at" db:"starts_at"`
	EndsAt     time.Time       `json:"ends_at" db:"ends_at"`
	DailyRate  decimal.Decimal `json:"daily_rate" db:"daily_rate"`
	TotalPrice decimal.Decimal `json:"total_price" db:"total_price"`
}

// TransportItem is one transport line. VehicleID is nil when the line only
// names a category; DistanceRate/DistanceIncrement are carried through but
// not folded into the line total.
type TransportItem struct {
	ID                int64            `json:"id" db:"id"`
	OfferID           int64            `json:"offer_id" db:"offer_id"`
	VehicleID         *int64           `json:"vehicle_id,omitempty" db:"vehicle_id"`
	VehicleName       string           `json:"vehicle_name" db:"vehicle_name"`
	VehicleCategory   string           `json:"vehicle_category" db:"vehicle_category"`
	StartsAt          time.Time        `json:"starts_at" db:"starts_at"`
	EndsAt            time.Time        `json:"ends_at" db:"ends_at"`
	DailyRate         decimal.Decimal  `json:"daily_rate" db:"daily_rate"`
	DistanceRate      *decimal.Decimal `json:"distance_rate,omitempty" db:"distance_rate"`
	DistanceIncrement *decimal.Decimal `json:"distance_increment,omitempty" db:"distance_increment"`
	TotalPrice        decimal.Decimal  `json:"total_price" db:"total_price"`
	InternalOwned     bool             `json:"internal_owned" db:"internal_owned"`
}

type SectionKind string

const (
	SectionHero        SectionKind = "hero"
	SectionProblem     SectionKind = "problem"
	SectionSolution    SectionKind = "solution"
	SectionBenefits    SectionKind = "benefits"
	SectionTestimonial SectionKind = "testimonial"
)

// PrettySection is an ordered content block for presentation offers. No
// pricing role.
type PrettySection struct {
	ID        int64       `json:"id" db:"id"`
	OfferID   int64       `json:"offer_id" db:"offer_id"`
	Kind      SectionKind `json:"kind" db:"kind"`
	Heading   string      `json:"heading" db:"heading"`
	Body      string      `json:"body" db:"body"`
	SortOrder int         `json:"sort_order" db:"sort_order"`
}
