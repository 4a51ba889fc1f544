package model

import "time"

// Role is the access level attached to an account.
type Role string

// Account roles. Staff accounts may manage a roster of client accounts.
const (
	RoleClient Role = "client"
	RoleStaff  Role = "staff"
)

// User is the authenticated account identity.
type User struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
	ID    int64  `json:"id"`
}

// IsStaff reports whether the user may manage client accounts.
func (u *User) IsStaff() bool {
	return u.Role == RoleStaff
}

// SearchCriteria are the per-user saved search preferences.
type SearchCriteria struct {
	UpdatedAt  time.Time `json:"updated_at"`
	Categories []string  `json:"categories"`
	States     []string  `json:"states"`
	BudgetMin  *float64  `json:"budget_min,omitempty"`
	BudgetMax  *float64  `json:"budget_max,omitempty"`
}

// CPVCode is a standardized procurement category classifier.
type CPVCode struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// ClientAccount is one entry in a staff user's client roster.
type ClientAccount struct {
	CreatedAt time.Time `json:"created_at"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	ID        int64     `json:"id"`
}
