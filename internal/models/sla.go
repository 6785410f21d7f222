package models

import "time"

// SLAPolicy defines the time budgets for one priority. At most one active
// policy per priority is honored; the resolver rejects priorities that have
// none rather than inventing a default.
type SLAPolicy struct {
	ID                  int64          `json:"id" db:"id"`
	Priority            TicketPriority `json:"priority" db:"priority"`
	ResponseTimeHours   int            `json:"response_time_hours" db:"response_time_hours"`
	ResolutionTimeHours int            `json:"resolution_time_hours" db:"resolution_time_hours"`
	IsActive            bool           `json:"is_active" db:"is_active"`
	CreatedAt           time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at" db:"updated_at"`
}

// ResolutionBudget returns the resolution window as a duration.
func (p *SLAPolicy) ResolutionBudget() time.Duration {
	return time.Duration(p.ResolutionTimeHours) * time.Hour
}

// ResponseBudget returns the first-response window as a duration.
func (p *SLAPolicy) ResponseBudget() time.Duration {
	return time.Duration(p.ResponseTimeHours) * time.Hour
}
