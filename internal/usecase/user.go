package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BloodCharry/PolicyMesh/internal/core/domain"
	"github.com/BloodCharry/PolicyMesh/internal/core/port"
	"github.com/BloodCharry/PolicyMesh/internal/repository"
)

// UserService exposes principal self-service operations.
type UserService struct {
	principals port.PrincipalRepository
	roles      port.RoleRepository
	events     port.EventPublisher
	logger     *zap.Logger
}

// NewUserService constructs a UserService instance.
func NewUserService(
	principals port.PrincipalRepository,
	roles port.RoleRepository,
	events port.EventPublisher,
	log *zap.Logger,
) *UserService {
	return &UserService{
		principals: principals,
		roles:      roles,
		events:     events,
		logger:     log,
	}
}

// Profile returns the principal together with its role.
func (s *UserService) Profile(ctx context.Context, principalID string) (*domain.Principal, *domain.Role, error) {
	principal, err := s.principals.GetByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrPrincipalNotFound
		}
		return nil, nil, fmt.Errorf("get principal: %w", err)
	}

	role, err := s.roles.GetByID(ctx, principal.RoleID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, fmt.Errorf("get role: %w", err)
	}

	sanitized := *principal
	sanitized.PasswordHash = ""
	return &sanitized, role, nil
}

// Deactivate soft-deletes a principal. Outstanding tokens keep verifying but
// every request re-resolves the principal, so access stops immediately.
func (s *UserService) Deactivate(ctx context.Context, principalID string) error {
	if err := s.principals.SetActive(ctx, principalID, false); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPrincipalNotFound
		}
		return fmt.Errorf("deactivate principal: %w", err)
	}

	s.logger.Info("principal deactivated", zap.String("principal_id", principalID))

	if s.events != nil {
		event := domain.PrincipalDeactivatedEvent{
			PrincipalID: principalID,
			At:          time.Now().UTC(),
		}
		if err := s.events.PublishPrincipalDeactivated(ctx, event); err != nil {
			s.logger.Warn("publish principal deactivated event", zap.Error(err))
		}
	}

	return nil
}
