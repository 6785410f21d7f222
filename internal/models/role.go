package models

import "fmt"

// Role is the closed set of actor roles. Authorization treats any value
// outside this set as having no access at all.
type Role string

const (
	RoleAdminManager Role = "admin_manager"
	RoleTeamLeader   Role = "team_leader"
	RoleUserEmployee Role = "user_employee"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdminManager, RoleTeamLeader, RoleUserEmployee:
		return true
	}
	return false
}

// ParseRole converts a stored or client-supplied string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", &ValidationError{Field: "role", Message: fmt.Sprintf("unknown role %q", s)}
	}
	return r, nil
}
