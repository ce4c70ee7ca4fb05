// Package domain contains the core entities shared across modules.
package domain

import "time"

type Role string

const (
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

// HasPermission reports whether the role satisfies the minimum required role.
// Admin implies employee.
func (r Role) HasPermission(min Role) bool {
	if r == RoleAdmin {
		return true
	}
	return r == min
}

// IsValid reports whether the role is one of the known values.
func (r Role) IsValid() bool {
	return r == RoleEmployee || r == RoleAdmin
}

// User is an employee or administrator of the payroll service.
// NationalID (the "cc") is the business key used to bind uploaded
// payslips to their owner; it is unique alongside Email.
type User struct {
	ID           string    `json:"id"`
	NationalID   string    `json:"cc"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile is the self-service projection of a user: no id, no hash.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Profile returns the reduced self-service view of the user.
func (u *User) Profile() Profile {
	return Profile{Name: u.Name, Email: u.Email, Role: u.Role}
}
