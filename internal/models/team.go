package models

import "time"

// Team groups users for ticket routing and scoping. A team may have several
// leaders and a leader may lead several teams.
type Team struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	MemberIDs []int64   `json:"member_ids,omitempty" db:"-"`
	LeaderIDs []int64   `json:"leader_ids,omitempty" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HasMember reports whether the user belongs to the team.
func (t *Team) HasMember(userID int64) bool {
	for _, id := range t.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// HasLeader reports whether the user leads the team.
func (t *Team) HasLeader(userID int64) bool {
	for _, id := range t.LeaderIDs {
		if id == userID {
			return true
		}
	}
	return false
}
