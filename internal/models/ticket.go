package models

import (
	"fmt"
	"time"
)

// TicketStatus is the lifecycle state of a ticket. Closure is a status,
// never a deletion.
type TicketStatus string

const (
	StatusOpen               TicketStatus = "open"
	StatusInProgress         TicketStatus = "in_progress"
	StatusWaitingForCustomer TicketStatus = "waiting_for_customer"
	StatusResolved           TicketStatus = "resolved"
	StatusClosed             TicketStatus = "closed"
)

// Valid reports whether the status is one of the known values.
func (s TicketStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusWaitingForCustomer, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// Active reports whether the ticket still counts against its SLA.
// Resolved and closed tickets are out of the race.
func (s TicketStatus) Active() bool {
	return s != StatusResolved && s != StatusClosed
}

// ParseTicketStatus converts a stored or client-supplied string into a status.
func ParseTicketStatus(v string) (TicketStatus, error) {
	s := TicketStatus(v)
	if !s.Valid() {
		return "", &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", v)}
	}
	return s, nil
}

// TicketPriority is the closed priority scale.
type TicketPriority string

const (
	PriorityLow    TicketPriority = "low"
	PriorityMedium TicketPriority = "medium"
	PriorityHigh   TicketPriority = "high"
	PriorityUrgent TicketPriority = "urgent"
)

// Valid reports whether the priority is one of the known values.
func (p TicketPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Rank maps priorities onto an ordered scale, low=1 .. urgent=4.
func (p TicketPriority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityUrgent:
		return 4
	}
	return 0
}

// NextHigher returns the priority one level up, capped at urgent.
func (p TicketPriority) NextHigher() TicketPriority {
	switch p {
	case PriorityLow:
		return PriorityMedium
	case PriorityMedium:
		return PriorityHigh
	case PriorityHigh, PriorityUrgent:
		return PriorityUrgent
	}
	return p
}

// ParseTicketPriority converts a stored or client-supplied string into a priority.
func ParseTicketPriority(v string) (TicketPriority, error) {
	p := TicketPriority(v)
	if !p.Valid() {
		return "", &ValidationError{Field: "priority", Message: fmt.Sprintf("unknown priority %q", v)}
	}
	return p, nil
}

// Ticket represents a support ticket.
//
// Version is the optimistic concurrency token: every successful write
// increments it, and writers must present the version they read.
// StatusChangedAt tracks the most recent status transition (needed for
// time-in-status escalation), LastActivityAt the most recent visible
// activity (needed for no-response escalation).
type Ticket struct {
	ID             int64          `json:"id" db:"id"`
	TicketNumber   string         `json:"ticket_number" db:"ticket_number"`
	Title          string         `json:"title" db:"title"`
	Status         TicketStatus   `json:"status" db:"status"`
	Priority       TicketPriority `json:"priority" db:"priority"`
	CreatedBy      int64          `json:"created_by" db:"created_by"`
	AssignedTo     *int64         `json:"assigned_to,omitempty" db:"assigned_to"`
	TeamID         *int64         `json:"team_id,omitempty" db:"team_id"`
	Followers      []int64        `json:"followers,omitempty" db:"-"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
	StatusChangedAt time.Time     `json:"status_changed_at" db:"status_changed_at"`
	LastActivityAt time.Time      `json:"last_activity_at" db:"last_activity_at"`
	ResolvedAt     *time.Time     `json:"resolved_at,omitempty" db:"resolved_at"`
	CustomSLADueAt *time.Time     `json:"custom_sla_due_at,omitempty" db:"custom_sla_due_at"`
	Version        int            `json:"version" db:"version"`
}

// IsFollower reports whether the user is in the follower set.
func (t *Ticket) IsFollower(userID int64) bool {
	for _, id := range t.Followers {
		if id == userID {
			return true
		}
	}
	return false
}

// IsAssignee reports whether the user is the current assignee.
func (t *Ticket) IsAssignee(userID int64) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}

// Clone returns a deep copy. Repositories hand out clones so callers can
// mutate freely before a compare-and-swap write.
func (t *Ticket) Clone() *Ticket {
	c := *t
	if t.AssignedTo != nil {
		v := *t.AssignedTo
		c.AssignedTo = &v
	}
	if t.TeamID != nil {
		v := *t.TeamID
		c.TeamID = &v
	}
	if t.ResolvedAt != nil {
		v := *t.ResolvedAt
		c.ResolvedAt = &v
	}
	if t.CustomSLADueAt != nil {
		v := *t.CustomSLADueAt
		c.CustomSLADueAt = &v
	}
	if t.Followers != nil {
		c.Followers = append([]int64(nil), t.Followers...)
	}
	return &c
}
