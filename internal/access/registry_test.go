package access

import (
	"testing"

	"github.com/godesk-io/godesk-ce/internal/models"
)

func TestAdminManagerHoldsEverything(t *testing.T) {
	actions := []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionAssign, ActionEvaluate}
	resources := []Resource{
		ResourceTickets, ResourceTeams, ResourceUsers, ResourceAnalytics,
		ResourceAuditLogs, ResourceKnowledgeBase, ResourceSLA, ResourceEscalationRules,
	}
	for _, a := range actions {
		for _, r := range resources {
			scope, ok := Grant(models.RoleAdminManager, a, r)
			if !ok {
				t.Errorf("admin_manager missing %s on %s", a, r)
			}
			if scope != ScopeOrganization {
				t.Errorf("admin_manager %s on %s: got scope %s, want organization", a, r, scope)
			}
		}
	}
}

func TestDefaultDeny(t *testing.T) {
	// Everything not explicitly granted must be false, including unknown
	// roles, unknown actions and unknown resources.
	cases := []struct {
		name     string
		role     models.Role
		action   Action
		resource Resource
	}{
		{"employee cannot delete tickets", models.RoleUserEmployee, ActionDelete, ResourceTickets},
		{"employee cannot update tickets", models.RoleUserEmployee, ActionUpdate, ResourceTickets},
		{"employee cannot read analytics", models.RoleUserEmployee, ActionRead, ResourceAnalytics},
		{"employee cannot read audit logs", models.RoleUserEmployee, ActionRead, ResourceAuditLogs},
		{"leader cannot delete tickets", models.RoleTeamLeader, ActionDelete, ResourceTickets},
		{"leader cannot update sla", models.RoleTeamLeader, ActionUpdate, ResourceSLA},
		{"leader cannot read audit logs", models.RoleTeamLeader, ActionRead, ResourceAuditLogs},
		{"unknown role has nothing", models.Role("contractor"), ActionRead, ResourceTickets},
		{"empty role has nothing", models.Role(""), ActionRead, ResourceTickets},
		{"unknown action denied", models.RoleTeamLeader, Action("export"), ResourceTickets},
		{"unknown resource denied", models.RoleAdminManager, ActionRead, Resource("billing")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if HasPermission(tc.role, tc.action, tc.resource) {
				t.Fatalf("expected deny for %s %s %s", tc.role, tc.action, tc.resource)
			}
		})
	}
}

func TestTeamLeaderScopes(t *testing.T) {
	scope, ok := Grant(models.RoleTeamLeader, ActionRead, ResourceTickets)
	if !ok || scope != ScopeTeam {
		t.Fatalf("leader read tickets: got (%s, %v), want (team, true)", scope, ok)
	}
	scope, ok = Grant(models.RoleUserEmployee, ActionRead, ResourceTickets)
	if !ok || scope != ScopeOwn {
		t.Fatalf("employee read tickets: got (%s, %v), want (own, true)", scope, ok)
	}
}

func TestRequireNamesMissingPermission(t *testing.T) {
	err := Require(models.RoleUserEmployee, ActionDelete, ResourceTickets)
	if err == nil {
		t.Fatal("expected permission error")
	}
	perr, ok := err.(*PermissionError)
	if !ok {
		t.Fatalf("expected *PermissionError, got %T", err)
	}
	if perr.Action != ActionDelete || perr.Resource != ResourceTickets {
		t.Fatalf("error should name the missing permission, got %v", perr)
	}
}
