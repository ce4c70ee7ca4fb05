package domain

import "time"

// Payslip is a stored payroll document. Ownership is one-directional:
// the payslip holds its owner's id, users never embed payslips.
//
// (OwnerID, Mount, Year) is the natural key used on the self-service
// path. The storage layer does not enforce its uniqueness; resolution
// orders by creation time and takes the first match.
type Payslip struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"user_id"`
	Mount     string    `json:"mount"`
	Year      string    `json:"year"`
	Data      []byte    `json:"-"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Owner is populated on lookups that join the owning user.
	Owner *User `json:"user,omitempty"`
}

// PayslipRef is the lightweight listing view of a payslip, without payload.
type PayslipRef struct {
	ID        string    `json:"id"`
	Mount     string    `json:"mount"`
	Year      string    `json:"year"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}
