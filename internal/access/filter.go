package access

import (
	"strings"
	"time"

	"github.com/godesk-io/godesk-ce/internal/models"
)

// TicketFilter carries the client-supplied narrowing filters for ticket
// listings. Filters only ever AND with the scope predicate; nothing a client
// sends can widen visibility.
type TicketFilter struct {
	Status       models.TicketStatus
	Priority     models.TicketPriority
	Search       string
	AssignedToMe bool
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
}

// Predicate is a query-level restriction over tickets. It renders both as a
// SQL fragment (pushed down to the persistence layer) and as an in-memory
// matcher (used for single-ticket authorization and by the memory
// repositories). The two must agree; the tests hold them to that.
type Predicate struct {
	where         string
	args          []any
	match         func(*models.Ticket) bool
	unsatisfiable bool
}

// SQL returns the WHERE fragment and its arguments. The ticket table is
// expected to be aliased as "t".
func (p Predicate) SQL() (string, []any) {
	return p.where, append([]any(nil), p.args...)
}

// Matches evaluates the predicate against a single ticket.
func (p Predicate) Matches(t *models.Ticket) bool {
	if p.unsatisfiable || t == nil {
		return false
	}
	return p.match(t)
}

// Unsatisfiable reports whether the predicate can never match. Repositories
// short-circuit to an empty result set without touching the database.
func (p Predicate) Unsatisfiable() bool {
	return p.unsatisfiable
}

// BuildTicketPredicate combines the actor's scope with client filters.
//
// The scope part comes first and is non-negotiable: organization-wide scope
// imposes nothing, team scope pins t.team_id to the visible set, and
// own-records scope admits only tickets the actor created, is assigned to,
// or follows. An empty scope (a leader with no teams) yields a predicate
// that matches nothing rather than an error or, worse, everything.
func BuildTicketPredicate(scope AccessScope, filter TicketFilter) Predicate {
	if scope.Empty() {
		return Predicate{where: "1=0", unsatisfiable: true}
	}

	var clauses []string
	var args []any
	var matchers []func(*models.Ticket) bool

	switch {
	case scope.OrganizationWide:
		// No scope restriction beyond client filters.
	case len(scope.TeamIDs) > 0:
		placeholders := make([]string, len(scope.TeamIDs))
		teamSet := make(map[int64]bool, len(scope.TeamIDs))
		for i, id := range scope.TeamIDs {
			placeholders[i] = "?"
			args = append(args, id)
			teamSet[id] = true
		}
		clauses = append(clauses, "t.team_id IN ("+strings.Join(placeholders, ", ")+")")
		matchers = append(matchers, func(t *models.Ticket) bool {
			return t.TeamID != nil && teamSet[*t.TeamID]
		})
	case scope.OwnRecordsOnly:
		clauses = append(clauses,
			"(t.created_by = ? OR t.assigned_to = ? OR EXISTS (SELECT 1 FROM ticket_follower tf WHERE tf.ticket_id = t.id AND tf.user_id = ?))")
		args = append(args, scope.UserID, scope.UserID, scope.UserID)
		userID := scope.UserID
		matchers = append(matchers, func(t *models.Ticket) bool {
			return t.CreatedBy == userID || t.IsAssignee(userID) || t.IsFollower(userID)
		})
	}

	if filter.Status != "" {
		clauses = append(clauses, "t.status = ?")
		args = append(args, string(filter.Status))
		status := filter.Status
		matchers = append(matchers, func(t *models.Ticket) bool { return t.Status == status })
	}
	if filter.Priority != "" {
		clauses = append(clauses, "t.priority = ?")
		args = append(args, string(filter.Priority))
		priority := filter.Priority
		matchers = append(matchers, func(t *models.Ticket) bool { return t.Priority == priority })
	}
	if filter.AssignedToMe {
		clauses = append(clauses, "t.assigned_to = ?")
		args = append(args, scope.UserID)
		userID := scope.UserID
		matchers = append(matchers, func(t *models.Ticket) bool { return t.IsAssignee(userID) })
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		clauses = append(clauses, "LOWER(t.title) LIKE ?")
		args = append(args, "%"+strings.ToLower(s)+"%")
		needle := strings.ToLower(s)
		matchers = append(matchers, func(t *models.Ticket) bool {
			return strings.Contains(strings.ToLower(t.Title), needle)
		})
	}
	if filter.CreatedFrom != nil {
		clauses = append(clauses, "t.created_at >= ?")
		args = append(args, *filter.CreatedFrom)
		from := *filter.CreatedFrom
		matchers = append(matchers, func(t *models.Ticket) bool { return !t.CreatedAt.Before(from) })
	}
	if filter.CreatedTo != nil {
		clauses = append(clauses, "t.created_at <= ?")
		args = append(args, *filter.CreatedTo)
		to := *filter.CreatedTo
		matchers = append(matchers, func(t *models.Ticket) bool { return !t.CreatedAt.After(to) })
	}

	where := "1=1"
	if len(clauses) > 0 {
		where = strings.Join(clauses, " AND ")
	}

	return Predicate{
		where: where,
		args:  args,
		match: func(t *models.Ticket) bool {
			for _, m := range matchers {
				if !m(t) {
					return false
				}
			}
			return true
		},
	}
}

// AuthorizeTicket is the single-ticket counterpart of the list predicate:
// fetch the ticket ignoring scope, then test it here. A miss is
// ErrAccessDenied, not a not-found, so callers can audit "exists but hidden"
// separately from "does not exist".
func AuthorizeTicket(scope AccessScope, ticket *models.Ticket) error {
	pred := BuildTicketPredicate(scope, TicketFilter{})
	if !pred.Matches(ticket) {
		return ErrAccessDenied
	}
	return nil
}
