package models

import "time"

// UserRole represents the available roles for the role gate.
type UserRole string

const (
	RoleNone       UserRole = "none"
	RoleStudent    UserRole = "student"
	RoleInstructor UserRole = "instructor"
	RoleAdmin      UserRole = "admin"
)

// AssignableRoles are the roles an admin may grant through the role endpoints.
var AssignableRoles = map[UserRole]struct{}{
	RoleAdmin:      {},
	RoleInstructor: {},
}

// User represents an application user stored in the users table.
type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"full_name"`
	PhotoURL  *string   `db:"photo_url" json:"photo_url,omitempty"`
	Role      UserRole  `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
