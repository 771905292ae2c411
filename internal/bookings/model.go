package bookings

import "time"

type PeriodCategory string

const (
	CategoryProgram   PeriodCategory = "program"
	CategoryEquipment PeriodCategory = "equipment"
	CategoryCrew      PeriodCategory = "crew"
	CategoryTransport PeriodCategory = "transport"
)

// TimePeriod is a named, dated window scoped to a job, the unit of booking.
// Its identity for deduplication is the tuple (job, category, title, start,
// end); soft-deleted periods are revived rather than duplicated.
type TimePeriod struct {
	ID               int64          `json:"id" db:"id"`
	JobID            int64          `json:"job_id" db:"job_id"`
	Category         PeriodCategory `json:"category" db:"category"`
	Title            string         `json:"title" db:"title"`
	StartsAt         time.Time      `json:"starts_at" db:"starts_at"`
	EndsAt           time.Time      `json:"ends_at" db:"ends_at"`
	NeededCount      int            `json:"needed_count" db:"needed_count"`
	Note             *string        `json:"note,omitempty" db:"note"`
	Deleted          bool           `json:"deleted" db:"deleted"`
	ReservedByUserID *int64         `json:"reserved_by_user_id,omitempty" db:"reserved_by_user_id"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at" db:"updated_at"`
}

// ReservedItem pins one equipment line to a time period.
type ReservedItem struct {
	ID            int64 `json:"id" db:"id"`
	TimePeriodID  int64 `json:"time_period_id" db:"time_period_id"`
	CatalogItemID int64 `json:"catalog_item_id" db:"catalog_item_id"`
	Quantity      int   `json:"quantity" db:"quantity"`
}

// ReservedCrew assigns a concrete person to a crew period. Materialization
// never creates these; periods only record demand and assignment is a
// separate user-driven operation.
type ReservedCrew struct {
	ID           int64 `json:"id" db:"id"`
	TimePeriodID int64 `json:"time_period_id" db:"time_period_id"`
	UserID       int64 `json:"user_id" db:"user_id"`
}

// ReservedVehicle pins one vehicle to a transport period, unique per
// (period, vehicle).
type ReservedVehicle struct {
	ID           int64 `json:"id" db:"id"`
	TimePeriodID int64 `json:"time_period_id" db:"time_period_id"`
	VehicleID    int64 `json:"vehicle_id" db:"vehicle_id"`
}
