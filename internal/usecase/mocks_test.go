package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/BloodCharry/PolicyMesh/internal/core/domain"
	"github.com/BloodCharry/PolicyMesh/internal/repository"
)

// Hand-rolled port mocks shared by the service tests.

type principalRepoMock struct {
	byID      map[string]domain.Principal
	byEmail   map[string]domain.Principal
	createErr error
	getErr    error
}

func newPrincipalRepoMock(principals ...domain.Principal) *principalRepoMock {
	m := &principalRepoMock{
		byID:    make(map[string]domain.Principal),
		byEmail: make(map[string]domain.Principal),
	}
	for _, p := range principals {
		m.byID[p.ID] = p
		m.byEmail[strings.ToLower(p.Email)] = p
	}
	return m
}

func (m *principalRepoMock) Create(_ context.Context, principal domain.Principal) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.byID[principal.ID] = principal
	m.byEmail[strings.ToLower(principal.Email)] = principal
	return nil
}

func (m *principalRepoMock) GetByID(_ context.Context, id string) (*domain.Principal, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if p, ok := m.byID[id]; ok {
		return &p, nil
	}
	return nil, repository.ErrNotFound
}

func (m *principalRepoMock) GetByEmail(_ context.Context, email string) (*domain.Principal, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if p, ok := m.byEmail[strings.ToLower(strings.TrimSpace(email))]; ok {
		return &p, nil
	}
	return nil, repository.ErrNotFound
}

func (m *principalRepoMock) SetActive(_ context.Context, id string, active bool) error {
	p, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.IsActive = active
	m.byID[id] = p
	m.byEmail[strings.ToLower(p.Email)] = p
	return nil
}

type roleRepoMock struct {
	byID   map[string]domain.Role
	byName map[string]domain.Role
}

func newRoleRepoMock(roles ...domain.Role) *roleRepoMock {
	m := &roleRepoMock{
		byID:   make(map[string]domain.Role),
		byName: make(map[string]domain.Role),
	}
	for _, r := range roles {
		m.byID[r.ID] = r
		m.byName[r.Name] = r
	}
	return m
}

func (m *roleRepoMock) Create(_ context.Context, role domain.Role) error {
	m.byID[role.ID] = role
	m.byName[role.Name] = role
	return nil
}

func (m *roleRepoMock) GetByID(_ context.Context, id string) (*domain.Role, error) {
	if r, ok := m.byID[id]; ok {
		return &r, nil
	}
	return nil, repository.ErrNotFound
}

func (m *roleRepoMock) GetByName(_ context.Context, name string) (*domain.Role, error) {
	if r, ok := m.byName[name]; ok {
		return &r, nil
	}
	return nil, repository.ErrNotFound
}

func (m *roleRepoMock) List(_ context.Context) ([]domain.Role, error) {
	roles := make([]domain.Role, 0, len(m.byID))
	for _, r := range m.byID {
		roles = append(roles, r)
	}
	return roles, nil
}

func (m *roleRepoMock) Rename(_ context.Context, id, name string) error {
	r, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(m.byName, r.Name)
	r.Name = name
	m.byID[id] = r
	m.byName[name] = r
	return nil
}

type resourceRepoMock struct {
	byKey map[string]domain.ResourceType
}

func newResourceRepoMock(resources ...domain.ResourceType) *resourceRepoMock {
	m := &resourceRepoMock{byKey: make(map[string]domain.ResourceType)}
	for _, r := range resources {
		m.byKey[r.Key] = r
	}
	return m
}

func (m *resourceRepoMock) Create(_ context.Context, resource domain.ResourceType) error {
	m.byKey[resource.Key] = resource
	return nil
}

func (m *resourceRepoMock) GetByKey(_ context.Context, key string) (*domain.ResourceType, error) {
	if r, ok := m.byKey[key]; ok {
		return &r, nil
	}
	return nil, repository.ErrNotFound
}

func (m *resourceRepoMock) List(_ context.Context) ([]domain.ResourceType, error) {
	resources := make([]domain.ResourceType, 0, len(m.byKey))
	for _, r := range m.byKey {
		resources = append(resources, r)
	}
	return resources, nil
}

type grantRepoMock struct {
	grants    map[string]domain.PermissionGrant // key: roleID + "/" + resourceKey
	resources map[string]string                 // resourceID -> key
	lookupErr error
	upserted  []domain.PermissionGrant
}

func newGrantRepoMock() *grantRepoMock {
	return &grantRepoMock{
		grants:    make(map[string]domain.PermissionGrant),
		resources: make(map[string]string),
	}
}

func (m *grantRepoMock) set(roleID, resourceKey string, grant domain.PermissionGrant) {
	m.grants[roleID+"/"+resourceKey] = grant
}

func (m *grantRepoMock) Lookup(_ context.Context, roleID, resourceKey string) (*domain.PermissionGrant, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	if g, ok := m.grants[roleID+"/"+resourceKey]; ok {
		return &g, nil
	}
	return nil, repository.ErrNotFound
}

func (m *grantRepoMock) Upsert(_ context.Context, grant domain.PermissionGrant) error {
	m.upserted = append(m.upserted, grant)
	return nil
}

func (m *grantRepoMock) ListRules(_ context.Context) ([]domain.RuleView, error) {
	return nil, nil
}

type eventRecorderMock struct {
	registered  []domain.PrincipalRegisteredEvent
	logins      []domain.LoginEvent
	deactivated []domain.PrincipalDeactivatedEvent
	grants      []domain.GrantUpsertedEvent
	denied      []domain.AccessDeniedEvent
}

func (m *eventRecorderMock) PublishPrincipalRegistered(_ context.Context, event domain.PrincipalRegisteredEvent) error {
	m.registered = append(m.registered, event)
	return nil
}

func (m *eventRecorderMock) PublishLogin(_ context.Context, event domain.LoginEvent) error {
	m.logins = append(m.logins, event)
	return nil
}

func (m *eventRecorderMock) PublishPrincipalDeactivated(_ context.Context, event domain.PrincipalDeactivatedEvent) error {
	m.deactivated = append(m.deactivated, event)
	return nil
}

func (m *eventRecorderMock) PublishGrantUpserted(_ context.Context, event domain.GrantUpsertedEvent) error {
	m.grants = append(m.grants, event)
	return nil
}

func (m *eventRecorderMock) PublishAccessDenied(_ context.Context, event domain.AccessDeniedEvent) error {
	m.denied = append(m.denied, event)
	return nil
}

func testPrincipal(id, roleID string, active bool) domain.Principal {
	return domain.Principal{
		ID:           id,
		Email:        id + "@example.com",
		PasswordHash: "hash",
		IsActive:     active,
		RoleID:       roleID,
		RegisteredAt: time.Now().UTC(),
	}
}
