package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/BloodCharry/PolicyMesh/internal/core/domain"
)

func newAdminFixture(t *testing.T) (*AdminService, *roleRepoMock, *resourceRepoMock, *grantRepoMock, *eventRecorderMock) {
	t.Helper()

	roles := newRoleRepoMock(domain.Role{ID: "role-admin", Name: "Admin"})
	resources := newResourceRepoMock(domain.ResourceType{ID: "res-orders", Key: "orders", Name: "Orders"})
	grants := newGrantRepoMock()
	events := &eventRecorderMock{}

	svc := NewAdminService(roles, resources, grants, events, zaptest.NewLogger(t))
	return svc, roles, resources, grants, events
}

func TestUpsertRuleByNames(t *testing.T) {
	svc, _, _, grants, events := newAdminFixture(t)

	err := svc.UpsertRule(context.Background(), "actor-1", UpsertRuleInput{
		RoleName:    "Admin",
		ResourceKey: "orders",
		Flags:       domain.GrantFlags{Read: true, ReadAll: true},
	})
	if err != nil {
		t.Fatalf("UpsertRule returned error: %v", err)
	}

	if len(grants.upserted) != 1 {
		t.Fatalf("expected 1 upsert, got %d", len(grants.upserted))
	}
	grant := grants.upserted[0]
	if grant.RoleID != "role-admin" || grant.ResourceID != "res-orders" {
		t.Fatalf("unexpected grant addressing: %+v", grant)
	}
	if !grant.Flags.ReadAll || grant.Flags.Create {
		t.Fatalf("unexpected flags: %+v", grant.Flags)
	}

	if len(events.grants) != 1 {
		t.Fatalf("expected 1 grant event, got %d", len(events.grants))
	}
	if events.grants[0].ActorID != "actor-1" {
		t.Fatalf("expected actor-1, got %s", events.grants[0].ActorID)
	}
}

func TestUpsertRuleUnknownRole(t *testing.T) {
	svc, _, _, _, _ := newAdminFixture(t)

	err := svc.UpsertRule(context.Background(), "actor-1", UpsertRuleInput{
		RoleName:    "Ghost",
		ResourceKey: "orders",
	})
	if !errors.Is(err, ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}
}

func TestUpsertRuleUnknownResource(t *testing.T) {
	svc, _, _, _, _ := newAdminFixture(t)

	err := svc.UpsertRule(context.Background(), "actor-1", UpsertRuleInput{
		RoleName:    "Admin",
		ResourceKey: "ghosts",
	})
	if !errors.Is(err, ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
}

func TestCreateAndRenameRole(t *testing.T) {
	svc, roles, _, _, _ := newAdminFixture(t)

	role, err := svc.CreateRole(context.Background(), "Manager", nil)
	if err != nil {
		t.Fatalf("CreateRole returned error: %v", err)
	}

	if err := svc.RenameRole(context.Background(), role.ID, "Supervisor"); err != nil {
		t.Fatalf("RenameRole returned error: %v", err)
	}

	renamed, err := roles.GetByName(context.Background(), "Supervisor")
	if err != nil {
		t.Fatalf("renamed role missing: %v", err)
	}
	if renamed.ID != role.ID {
		t.Fatalf("rename changed identity: %s != %s", renamed.ID, role.ID)
	}

	if err := svc.RenameRole(context.Background(), "missing", "X"); !errors.Is(err, ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}
}

func TestCreateResourceDefaultsName(t *testing.T) {
	svc, _, resources, _, _ := newAdminFixture(t)

	resource, err := svc.CreateResource(context.Background(), "reports", "")
	if err != nil {
		t.Fatalf("CreateResource returned error: %v", err)
	}
	if resource.Name != "reports" {
		t.Fatalf("expected name to default to key, got %q", resource.Name)
	}

	if _, err := resources.GetByKey(context.Background(), "reports"); err != nil {
		t.Fatalf("resource not stored: %v", err)
	}
}
