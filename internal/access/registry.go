// Package access implements the authorization core: the static role
// permission registry, per-request access scope resolution, and the
// query predicates that enforce ticket visibility.
package access

import "github.com/godesk-io/godesk-ce/internal/models"

// Action is an operation an actor may perform on a resource.
type Action string

const (
	ActionCreate   Action = "create"
	ActionRead     Action = "read"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionAssign   Action = "assign"
	ActionEvaluate Action = "evaluate"
)

// Resource is a protected resource class.
type Resource string

const (
	ResourceTickets         Resource = "tickets"
	ResourceTeams           Resource = "teams"
	ResourceUsers           Resource = "users"
	ResourceAnalytics       Resource = "analytics"
	ResourceAuditLogs       Resource = "audit_logs"
	ResourceKnowledgeBase   Resource = "knowledge_base"
	ResourceSLA             Resource = "sla"
	ResourceEscalationRules Resource = "escalation_rules"
)

// GrantScope is the breadth at which a grant applies.
type GrantScope string

const (
	ScopeOrganization GrantScope = "organization"
	ScopeTeam         GrantScope = "team"
	ScopeOwn          GrantScope = "own"
)

type grantKey struct {
	action   Action
	resource Resource
}

// The registry is the single source of truth for role capabilities. Every
// higher layer consults it; none re-encodes role checks ad hoc. Anything
// absent from the table is denied.
var grants = map[models.Role]map[grantKey]GrantScope{
	models.RoleAdminManager: adminGrants(),
	models.RoleTeamLeader: {
		{ActionRead, ResourceTickets}:     ScopeTeam,
		{ActionUpdate, ResourceTickets}:   ScopeTeam,
		{ActionCreate, ResourceTickets}:   ScopeTeam,
		{ActionAssign, ResourceTickets}:   ScopeTeam,
		{ActionEvaluate, ResourceTickets}: ScopeTeam,
		{ActionRead, ResourceTeams}:       ScopeTeam,
		{ActionUpdate, ResourceTeams}:     ScopeTeam,
		{ActionRead, ResourceUsers}:       ScopeTeam,
		{ActionUpdate, ResourceUsers}:     ScopeTeam,
		{ActionRead, ResourceAnalytics}:   ScopeTeam,
		{ActionRead, ResourceKnowledgeBase}: ScopeOrganization,
	},
	models.RoleUserEmployee: {
		{ActionCreate, ResourceTickets}:     ScopeOwn,
		{ActionRead, ResourceTickets}:       ScopeOwn,
		{ActionRead, ResourceKnowledgeBase}: ScopeOrganization,
	},
}

func adminGrants() map[grantKey]GrantScope {
	all := map[grantKey]GrantScope{}
	actions := []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionAssign, ActionEvaluate}
	resources := []Resource{
		ResourceTickets, ResourceTeams, ResourceUsers, ResourceAnalytics,
		ResourceAuditLogs, ResourceKnowledgeBase, ResourceSLA, ResourceEscalationRules,
	}
	for _, a := range actions {
		for _, r := range resources {
			all[grantKey{a, r}] = ScopeOrganization
		}
	}
	return all
}

// HasPermission reports whether the role holds the (action, resource) grant.
// Unknown roles, actions and resources all resolve to false.
func HasPermission(role models.Role, action Action, resource Resource) bool {
	_, ok := Grant(role, action, resource)
	return ok
}

// Grant returns the scope at which the role holds the (action, resource)
// grant, if it holds it at all.
func Grant(role models.Role, action Action, resource Resource) (GrantScope, bool) {
	table, ok := grants[role]
	if !ok {
		return "", false
	}
	scope, ok := table[grantKey{action, resource}]
	return scope, ok
}

// Require returns a PermissionError unless the role holds the grant.
func Require(role models.Role, action Action, resource Resource) error {
	if !HasPermission(role, action, resource) {
		return &PermissionError{Action: action, Resource: resource}
	}
	return nil
}
