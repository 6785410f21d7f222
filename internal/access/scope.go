package access

import "github.com/godesk-io/godesk-ce/internal/models"

// AccessScope is the computed set of records an actor may see. It is derived
// from the actor's role and current team relationships and lives for one
// request only: caching it across a role or team change is a correctness bug,
// so nothing in this package ever stores one.
type AccessScope struct {
	UserID           int64
	Role             models.Role
	OrganizationWide bool
	TeamIDs          []int64
	OwnRecordsOnly   bool
}

// Empty reports whether the scope grants visibility to nothing at all.
// A team leader who currently leads no team lands here; by design that is
// an empty result set, never a fallback to wider access.
func (s AccessScope) Empty() bool {
	return !s.OrganizationWide && !s.OwnRecordsOnly && len(s.TeamIDs) == 0
}

// CoversTeam reports whether the scope includes the given team.
func (s AccessScope) CoversTeam(teamID int64) bool {
	if s.OrganizationWide {
		return true
	}
	for _, id := range s.TeamIDs {
		if id == teamID {
			return true
		}
	}
	return false
}

// ResolveScope derives the actor's access scope from role and team state.
//
// leaderships is the set of team IDs the user currently leads; it is fetched
// fresh by the caller on every request. The user's own membership team is
// folded in for leaders so they always see the team they sit in.
func ResolveScope(user *models.User, leaderships []int64) AccessScope {
	if user == nil || !user.IsActive {
		return AccessScope{}
	}

	scope := AccessScope{UserID: user.ID, Role: user.Role}

	switch user.Role {
	case models.RoleAdminManager:
		scope.OrganizationWide = true
	case models.RoleTeamLeader:
		seen := make(map[int64]bool, len(leaderships)+1)
		for _, id := range leaderships {
			if !seen[id] {
				seen[id] = true
				scope.TeamIDs = append(scope.TeamIDs, id)
			}
		}
		if user.TeamID != nil && !seen[*user.TeamID] {
			scope.TeamIDs = append(scope.TeamIDs, *user.TeamID)
		}
	case models.RoleUserEmployee:
		scope.OwnRecordsOnly = true
	default:
		// Unrecognized role: zero-value scope, sees nothing.
	}

	return scope
}
