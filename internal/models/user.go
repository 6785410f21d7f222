package models

import "time"

// User is an authenticated actor. Authentication itself happens in the
// identity layer; this core trusts the (id, role, active) triple it is given.
type User struct {
	ID        int64     `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	FullName  string    `json:"full_name" db:"full_name"`
	Role      Role      `json:"role" db:"role"`
	TeamID    *int64    `json:"team_id,omitempty" db:"team_id"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
