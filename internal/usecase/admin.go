package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BloodCharry/PolicyMesh/internal/core/domain"
	"github.com/BloodCharry/PolicyMesh/internal/core/port"
	"github.com/BloodCharry/PolicyMesh/internal/repository"
)

// UpsertRuleInput addresses a matrix cell by names rather than ids so
// operators can write rules without knowing surrogate keys.
type UpsertRuleInput struct {
	RoleName    string
	ResourceKey string
	Flags       domain.GrantFlags
}

// AdminService manages roles, resource types, and the permission matrix.
type AdminService struct {
	roles     port.RoleRepository
	resources port.ResourceRepository
	grants    port.GrantRepository
	events    port.EventPublisher
	logger    *zap.Logger
}

// NewAdminService constructs an AdminService instance.
func NewAdminService(
	roles port.RoleRepository,
	resources port.ResourceRepository,
	grants port.GrantRepository,
	events port.EventPublisher,
	log *zap.Logger,
) *AdminService {
	return &AdminService{
		roles:     roles,
		resources: resources,
		grants:    grants,
		events:    events,
		logger:    log,
	}
}

// ListRules returns the denormalized permission matrix.
func (s *AdminService) ListRules(ctx context.Context) ([]domain.RuleView, error) {
	rules, err := s.grants.ListRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	return rules, nil
}

// UpsertRule writes one matrix cell. The whole cell is replaced; flags absent
// from the input are cleared, not preserved.
func (s *AdminService) UpsertRule(ctx context.Context, actorID string, input UpsertRuleInput) error {
	roleName := strings.TrimSpace(input.RoleName)
	resourceKey := strings.TrimSpace(input.ResourceKey)
	if roleName == "" {
		return fmt.Errorf("role name is required")
	}
	if resourceKey == "" {
		return fmt.Errorf("resource key is required")
	}

	role, err := s.roles.GetByName(ctx, roleName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRoleNotFound
		}
		return fmt.Errorf("lookup role: %w", err)
	}

	resource, err := s.resources.GetByKey(ctx, resourceKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResourceNotFound
		}
		return fmt.Errorf("lookup resource type: %w", err)
	}

	grant := domain.PermissionGrant{
		ID:         uuid.NewString(),
		RoleID:     role.ID,
		ResourceID: resource.ID,
		Flags:      input.Flags,
	}

	if err := s.grants.Upsert(ctx, grant); err != nil {
		return fmt.Errorf("upsert grant: %w", err)
	}

	s.logger.Info("permission rule upserted",
		zap.String("role", role.Name),
		zap.String("resource", resource.Key),
		zap.String("actor_id", actorID),
	)

	if s.events != nil {
		event := domain.GrantUpsertedEvent{
			ActorID:     actorID,
			RoleName:    role.Name,
			ResourceKey: resource.Key,
			Flags:       input.Flags,
			At:          time.Now().UTC(),
		}
		if err := s.events.PublishGrantUpserted(ctx, event); err != nil {
			s.logger.Warn("publish grant upserted event", zap.Error(err))
		}
	}

	return nil
}

// CreateRole provisions a new role.
func (s *AdminService) CreateRole(ctx context.Context, name string, description *string) (*domain.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("role name is required")
	}

	role := domain.Role{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
	}
	if err := s.roles.Create(ctx, role); err != nil {
		return nil, fmt.Errorf("create role: %w", err)
	}

	return &role, nil
}

// RenameRole changes a role's name. Grants reference the role by id, so
// existing rules follow the rename.
func (s *AdminService) RenameRole(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("role name is required")
	}

	if err := s.roles.Rename(ctx, id, name); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRoleNotFound
		}
		return fmt.Errorf("rename role: %w", err)
	}
	return nil
}

// ListRoles returns all defined roles.
func (s *AdminService) ListRoles(ctx context.Context) ([]domain.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// CreateResource provisions a new protected resource type.
func (s *AdminService) CreateResource(ctx context.Context, key, name string) (*domain.ResourceType, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("resource key is required")
	}
	if strings.TrimSpace(name) == "" {
		name = key
	}

	resource := domain.ResourceType{
		ID:   uuid.NewString(),
		Key:  key,
		Name: name,
	}
	if err := s.resources.Create(ctx, resource); err != nil {
		return nil, fmt.Errorf("create resource type: %w", err)
	}

	return &resource, nil
}

// ListResources returns all protected resource types.
func (s *AdminService) ListResources(ctx context.Context) ([]domain.ResourceType, error) {
	resources, err := s.resources.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list resource types: %w", err)
	}
	return resources, nil
}
