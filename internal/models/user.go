package models

import "time"

// UserRole represents the available roles for the access policy.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleTeacher UserRole = "teacher"
	RoleStudent UserRole = "student"
)

// Valid reports whether the role is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// User represents an application user stored in the users table. A student
// optionally belongs to one group; a teacher's subjects live in the
// teacher_subjects link table.
type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	FullName     string    `db:"full_name" json:"full_name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         UserRole  `db:"role" json:"role"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	IsVerified   bool      `db:"is_verified" json:"is_verified"`
	GroupID      *string   `db:"group_id" json:"group_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role     *UserRole
	Verified *bool
	Skip     int
	Limit    int
}

// UpdateUserRequest carries a partial user update. Which fields are honored
// depends on who is asking: self-service updates never touch role or the
// active/verified flags.
type UpdateUserRequest struct {
	Username   *string `json:"username" validate:"omitempty,min=3,max=64"`
	Email      *string `json:"email" validate:"omitempty,email"`
	FullName   *string `json:"full_name"`
	Password   *string `json:"password" validate:"omitempty,min=4"`
	Role       *string `json:"role" validate:"omitempty,oneof=admin teacher student"`
	IsActive   *bool   `json:"is_active"`
	IsVerified *bool   `json:"is_verified"`
	GroupID    *string `json:"group_id"`
}
