package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BloodCharry/PolicyMesh/internal/core/domain"
	"github.com/BloodCharry/PolicyMesh/internal/core/port"
	"github.com/BloodCharry/PolicyMesh/internal/infra/telemetry"
	"github.com/BloodCharry/PolicyMesh/internal/repository"
)

// AuthzService resolves principals and evaluates permission decisions.
type AuthzService struct {
	principals port.PrincipalRepository
	grants     port.GrantRepository
	events     port.EventPublisher
	metrics    *telemetry.AuthzMetrics
	logger     *zap.Logger
}

// NewAuthzService constructs an AuthzService instance.
func NewAuthzService(
	principals port.PrincipalRepository,
	grants port.GrantRepository,
	events port.EventPublisher,
	metrics *telemetry.AuthzMetrics,
	logger *zap.Logger,
) *AuthzService {
	return &AuthzService{
		principals: principals,
		grants:     grants,
		events:     events,
		metrics:    metrics,
		logger:     logger,
	}
}

// Resolve re-reads the principal from storage for the current request. The
// token's role id is a stale hint; the stored role always wins. Deactivation
// or a role change therefore takes effect on the next request, not at token
// expiry.
func (s *AuthzService) Resolve(ctx context.Context, principalID, tokenRoleID string) (*domain.Principal, error) {
	principal, err := s.principals.GetByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("resolve principal: %w", err)
	}

	if !principal.IsActive {
		return nil, ErrPrincipalInactive
	}

	if tokenRoleID != "" && tokenRoleID != principal.RoleID {
		s.logger.Warn("token role differs from stored role",
			zap.String("principal_id", principal.ID),
			zap.String("token_role_id", tokenRoleID),
			zap.String("stored_role_id", principal.RoleID),
		)
	}

	return principal, nil
}

// Decide evaluates whether the principal may perform action on the resource
// type, optionally against a concrete record owner. A deny is a normal
// outcome carried in the Decision; the error return is reserved for storage
// failures, which never degrade into an allow.
func (s *AuthzService) Decide(ctx context.Context, principal domain.Principal, resourceKey string, action domain.Action, ownerID *string) (domain.Decision, error) {
	var grant *domain.PermissionGrant

	if principal.IsActive {
		found, err := s.grants.Lookup(ctx, principal.RoleID, resourceKey)
		switch {
		case err == nil:
			grant = found
		case errors.Is(err, repository.ErrNotFound):
			// Absent cell: default-deny, handled by evaluation.
		default:
			return domain.Decision{}, fmt.Errorf("lookup grant: %w", err)
		}
	}

	decision := domain.EvaluateGrant(principal, grant, action, ownerID)

	outcome := "allow"
	if !decision.Allowed {
		outcome = "deny"
		s.observeDeny(ctx, principal, resourceKey, action, decision.Reason)
	}
	s.metrics.ObserveDecision(resourceKey, string(action), outcome)

	return decision, nil
}

func (s *AuthzService) observeDeny(ctx context.Context, principal domain.Principal, resourceKey string, action domain.Action, reason domain.DenyReason) {
	s.logger.Debug("access denied",
		zap.String("principal_id", principal.ID),
		zap.String("resource", resourceKey),
		zap.String("action", string(action)),
		zap.String("reason", string(reason)),
	)

	if s.events == nil {
		return
	}

	event := domain.AccessDeniedEvent{
		PrincipalID: principal.ID,
		ResourceKey: resourceKey,
		Action:      action,
		Reason:      reason,
		At:          time.Now().UTC(),
	}
	if err := s.events.PublishAccessDenied(ctx, event); err != nil {
		s.logger.Warn("publish access denied event", zap.Error(err))
	}
}
