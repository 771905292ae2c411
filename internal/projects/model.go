package projects

import "time"

// Job is a production engagement: the thing offers are priced for and
// bookings are scheduled within.
type Job struct {
	ID         int64      `json:"id" db:"id"`
	CompanyID  int64      `json:"company_id" db:"company_id"`
	CustomerID *int64     `json:"customer_id,omitempty" db:"customer_id"`
	Name       string     `json:"name" db:"name"`
	StartsAt   *time.Time `json:"starts_at,omitempty" db:"starts_at"`
	EndsAt     *time.Time `json:"ends_at,omitempty" db:"ends_at"`
	Invoiced   bool       `json:"invoiced" db:"invoiced"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}
