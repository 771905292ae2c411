package fleet

import "time"

// Vehicle is one physical vehicle in the company pool. Externally owned
// vehicles (sub-rented from partners) carry OwnerID; internally owned
// vehicles are preferred by the allocator.
type Vehicle struct {
	ID            int64     `json:"id" db:"id"`
	CompanyID     int64     `json:"company_id" db:"company_id"`
	Name          string    `json:"name" db:"name"`
	Category      string    `json:"category" db:"category"`
	InternalOwned bool      `json:"internal_owned" db:"internal_owned"`
	OwnerID       *int64    `json:"owner_id,omitempty" db:"owner_id"`
	Deleted       bool      `json:"deleted" db:"deleted"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
