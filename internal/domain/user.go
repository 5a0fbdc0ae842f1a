package domain

import "time"

// Role separates staff, who manage plate listings, from regular bidders.
type Role string

const (
	RoleRegular Role = "regular"
	RoleStaff   Role = "staff"
)

// RoleFromStaffFlag maps the stored is_staff column to a Role.
func RoleFromStaffFlag(isStaff bool) Role {
	if isStaff {
		return RoleStaff
	}
	return RoleRegular
}

// User represents an authenticated user of the system.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// IsStaff reports whether the user may create, update or delete plates.
func (u *User) IsStaff() bool {
	return u != nil && u.Role == RoleStaff
}
