package domain

import "testing"

func activePrincipal(id string) Principal {
	return Principal{ID: id, IsActive: true, RoleID: "role-1"}
}

func grantWith(flags GrantFlags) *PermissionGrant {
	return &PermissionGrant{ID: "grant-1", RoleID: "role-1", ResourceID: "resource-1", Flags: flags}
}

func strPtr(s string) *string { return &s }

func TestEvaluateGrantDefaultDeny(t *testing.T) {
	decision := EvaluateGrant(activePrincipal("p1"), nil, ActionRead, nil)
	if decision.Allowed {
		t.Fatal("expected deny without a grant")
	}
	if decision.Reason != DenyNoRule {
		t.Fatalf("expected no-rule, got %s", decision.Reason)
	}
}

func TestEvaluateGrantInactivePrincipal(t *testing.T) {
	principal := Principal{ID: "p1", IsActive: false}
	grant := grantWith(GrantFlags{Create: true, Read: true, ReadAll: true, Update: true, UpdateAll: true, Delete: true, DeleteAll: true})

	decision := EvaluateGrant(principal, grant, ActionRead, nil)
	if decision.Allowed {
		t.Fatal("expected deny for inactive principal despite permissive grant")
	}
	if decision.Reason != DenyInactive {
		t.Fatalf("expected inactive, got %s", decision.Reason)
	}
}

func TestEvaluateGrantCreateIgnoresOwner(t *testing.T) {
	grant := grantWith(GrantFlags{Create: true})

	for _, owner := range []*string{nil, strPtr("someone-else")} {
		decision := EvaluateGrant(activePrincipal("p1"), grant, ActionCreate, owner)
		if !decision.Allowed {
			t.Fatalf("expected create allowed regardless of owner %v", owner)
		}
	}

	decision := EvaluateGrant(activePrincipal("p1"), grantWith(GrantFlags{Read: true}), ActionCreate, nil)
	if decision.Allowed || decision.Reason != DenyScopeInsufficient {
		t.Fatalf("expected scope-insufficient without create flag, got %+v", decision)
	}
}

func TestEvaluateGrantGlobalIgnoresOwner(t *testing.T) {
	grant := grantWith(GrantFlags{ReadAll: true})

	cases := []*string{nil, strPtr("p1"), strPtr("someone-else")}
	for _, owner := range cases {
		decision := EvaluateGrant(activePrincipal("p1"), grant, ActionRead, owner)
		if !decision.Allowed {
			t.Fatalf("expected global read allowed for owner %v", owner)
		}
	}
}

func TestEvaluateGrantLocalScope(t *testing.T) {
	grant := grantWith(GrantFlags{Read: true, Update: true, Delete: true})

	cases := []struct {
		name    string
		action  Action
		owner   *string
		allowed bool
	}{
		{name: "read own record", action: ActionRead, owner: strPtr("p1"), allowed: true},
		{name: "read foreign record", action: ActionRead, owner: strPtr("p2"), allowed: false},
		{name: "read without owner", action: ActionRead, owner: nil, allowed: false},
		{name: "update own record", action: ActionUpdate, owner: strPtr("p1"), allowed: true},
		{name: "update foreign record", action: ActionUpdate, owner: strPtr("p2"), allowed: false},
		{name: "delete own record", action: ActionDelete, owner: strPtr("p1"), allowed: true},
		{name: "delete without owner", action: ActionDelete, owner: nil, allowed: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision := EvaluateGrant(activePrincipal("p1"), grant, tc.action, tc.owner)
			if decision.Allowed != tc.allowed {
				t.Fatalf("expected allowed=%v, got %+v", tc.allowed, decision)
			}
			if !tc.allowed && decision.Reason != DenyScopeInsufficient {
				t.Fatalf("expected scope-insufficient, got %s", decision.Reason)
			}
		})
	}
}

func TestEvaluateGrantUnknownAction(t *testing.T) {
	grant := grantWith(GrantFlags{Create: true, Read: true, ReadAll: true, Update: true, UpdateAll: true, Delete: true, DeleteAll: true})

	decision := EvaluateGrant(activePrincipal("p1"), grant, Action("approve"), nil)
	if decision.Allowed {
		t.Fatal("expected unknown action to fail closed")
	}
	if decision.Reason != DenyUnknownAction {
		t.Fatalf("expected unknown-action, got %s", decision.Reason)
	}
}

func TestEvaluateGrantLocalAndGlobalIndependent(t *testing.T) {
	// Global without local still allows everything the global covers.
	grant := grantWith(GrantFlags{UpdateAll: true})

	decision := EvaluateGrant(activePrincipal("p1"), grant, ActionUpdate, strPtr("p2"))
	if !decision.Allowed {
		t.Fatalf("expected update-all to allow foreign record, got %+v", decision)
	}

	decision = EvaluateGrant(activePrincipal("p1"), grant, ActionRead, strPtr("p1"))
	if decision.Allowed {
		t.Fatal("expected update-all to not imply read")
	}
}
