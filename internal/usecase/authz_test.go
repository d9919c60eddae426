package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/BloodCharry/PolicyMesh/internal/core/domain"
)

func strPtr(s string) *string { return &s }

func newAuthzFixture(t *testing.T) (*AuthzService, *principalRepoMock, *grantRepoMock, *eventRecorderMock) {
	t.Helper()

	principals := newPrincipalRepoMock()
	grants := newGrantRepoMock()
	events := &eventRecorderMock{}
	svc := NewAuthzService(principals, grants, events, nil, zaptest.NewLogger(t))
	return svc, principals, grants, events
}

func TestResolveActivePrincipal(t *testing.T) {
	svc, principals, _, _ := newAuthzFixture(t)
	principals.byID["p1"] = testPrincipal("p1", "role-1", true)

	principal, err := svc.Resolve(context.Background(), "p1", "role-1")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if principal.ID != "p1" || principal.RoleID != "role-1" {
		t.Fatalf("unexpected principal: %+v", principal)
	}
}

func TestResolveMissingPrincipal(t *testing.T) {
	svc, _, _, _ := newAuthzFixture(t)

	if _, err := svc.Resolve(context.Background(), "ghost", ""); !errors.Is(err, ErrPrincipalNotFound) {
		t.Fatalf("expected ErrPrincipalNotFound, got %v", err)
	}
}

func TestResolveInactivePrincipal(t *testing.T) {
	svc, principals, _, _ := newAuthzFixture(t)
	principals.byID["p1"] = testPrincipal("p1", "role-1", false)

	if _, err := svc.Resolve(context.Background(), "p1", "role-1"); !errors.Is(err, ErrPrincipalInactive) {
		t.Fatalf("expected ErrPrincipalInactive, got %v", err)
	}
}

func TestResolveStoredRoleWinsOverTokenRole(t *testing.T) {
	svc, principals, _, _ := newAuthzFixture(t)
	principals.byID["p1"] = testPrincipal("p1", "role-new", true)

	// The token still carries the old role; the resolved principal must not.
	principal, err := svc.Resolve(context.Background(), "p1", "role-old")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if principal.RoleID != "role-new" {
		t.Fatalf("expected stored role role-new, got %s", principal.RoleID)
	}
}

func TestDecideDefaultDeny(t *testing.T) {
	svc, _, _, events := newAuthzFixture(t)
	principal := testPrincipal("p1", "role-1", true)

	decision, err := svc.Decide(context.Background(), principal, "orders", domain.ActionRead, nil)
	if err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}
	if decision.Allowed {
		t.Fatal("expected deny without any grant")
	}
	if decision.Reason != domain.DenyNoRule {
		t.Fatalf("expected no-rule, got %s", decision.Reason)
	}

	if len(events.denied) != 1 {
		t.Fatalf("expected 1 access denied event, got %d", len(events.denied))
	}
	if events.denied[0].Reason != domain.DenyNoRule {
		t.Fatalf("unexpected event reason: %s", events.denied[0].Reason)
	}
}

func TestDecideGlobalReadAnyOwner(t *testing.T) {
	svc, _, grants, _ := newAuthzFixture(t)
	principal := testPrincipal("p1", "viewer", true)
	grants.set("viewer", "orders", domain.PermissionGrant{
		RoleID: "viewer", ResourceID: "r1",
		Flags: domain.GrantFlags{Read: true, ReadAll: true},
	})

	for _, owner := range []*string{nil, strPtr("p1"), strPtr("another")} {
		decision, err := svc.Decide(context.Background(), principal, "orders", domain.ActionRead, owner)
		if err != nil {
			t.Fatalf("Decide returned error: %v", err)
		}
		if !decision.Allowed {
			t.Fatalf("expected global read allowed for owner %v", owner)
		}
	}
}

func TestDecideLocalScopeOwnership(t *testing.T) {
	svc, _, grants, events := newAuthzFixture(t)
	principal := testPrincipal("p1", "user", true)
	grants.set("user", "orders", domain.PermissionGrant{
		RoleID: "user", ResourceID: "r1",
		Flags: domain.GrantFlags{Create: true, Read: true, Update: true},
	})

	decision, err := svc.Decide(context.Background(), principal, "orders", domain.ActionRead, strPtr("p1"))
	if err != nil || !decision.Allowed {
		t.Fatalf("expected own-record read allowed, got %+v err=%v", decision, err)
	}

	decision, err = svc.Decide(context.Background(), principal, "orders", domain.ActionRead, strPtr("p2"))
	if err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}
	if decision.Allowed || decision.Reason != domain.DenyScopeInsufficient {
		t.Fatalf("expected scope-insufficient on foreign record, got %+v", decision)
	}

	// The route-level gate passes no owner; a local-only grant cannot allow.
	decision, err = svc.Decide(context.Background(), principal, "orders", domain.ActionUpdate, nil)
	if err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}
	if decision.Allowed || decision.Reason != domain.DenyScopeInsufficient {
		t.Fatalf("expected scope-insufficient without owner, got %+v", decision)
	}

	if len(events.denied) != 2 {
		t.Fatalf("expected 2 access denied events, got %d", len(events.denied))
	}
}

func TestDecideCreateNeverConsultsOwner(t *testing.T) {
	svc, _, grants, _ := newAuthzFixture(t)
	principal := testPrincipal("p1", "user", true)
	grants.set("user", "orders", domain.PermissionGrant{
		RoleID: "user", ResourceID: "r1",
		Flags: domain.GrantFlags{Create: true},
	})

	decision, err := svc.Decide(context.Background(), principal, "orders", domain.ActionCreate, strPtr("someone-else"))
	if err != nil || !decision.Allowed {
		t.Fatalf("expected create allowed regardless of owner, got %+v err=%v", decision, err)
	}
}

func TestDecideInactiveDespitePermissiveGrant(t *testing.T) {
	svc, _, grants, _ := newAuthzFixture(t)
	principal := testPrincipal("p1", "admin", false)
	grants.set("admin", "orders", domain.PermissionGrant{
		RoleID: "admin", ResourceID: "r1",
		Flags: domain.GrantFlags{Create: true, Read: true, ReadAll: true, Update: true, UpdateAll: true, Delete: true, DeleteAll: true},
	})

	decision, err := svc.Decide(context.Background(), principal, "orders", domain.ActionRead, nil)
	if err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}
	if decision.Allowed || decision.Reason != domain.DenyInactive {
		t.Fatalf("expected inactive deny, got %+v", decision)
	}
}

func TestDecideUnknownActionFailsClosed(t *testing.T) {
	svc, _, grants, _ := newAuthzFixture(t)
	principal := testPrincipal("p1", "admin", true)
	grants.set("admin", "orders", domain.PermissionGrant{
		RoleID: "admin", ResourceID: "r1",
		Flags: domain.GrantFlags{Create: true, Read: true, ReadAll: true, Update: true, UpdateAll: true, Delete: true, DeleteAll: true},
	})

	decision, err := svc.Decide(context.Background(), principal, "orders", domain.Action("approve"), nil)
	if err != nil {
		t.Fatalf("expected deny, not error, for unknown action: %v", err)
	}
	if decision.Allowed || decision.Reason != domain.DenyUnknownAction {
		t.Fatalf("expected unknown-action deny, got %+v", decision)
	}
}

func TestDecideStorageErrorSurfacesAsError(t *testing.T) {
	svc, _, grants, _ := newAuthzFixture(t)
	principal := testPrincipal("p1", "user", true)
	grants.lookupErr = errors.New("connection refused")

	if _, err := svc.Decide(context.Background(), principal, "orders", domain.ActionRead, nil); err == nil {
		t.Fatal("expected storage failure to surface as an error, never an allow")
	}
}
