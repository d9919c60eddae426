package port

import (
	"context"

	"github.com/BloodCharry/PolicyMesh/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	PublishPrincipalRegistered(ctx context.Context, event domain.PrincipalRegisteredEvent) error
	PublishLogin(ctx context.Context, event domain.LoginEvent) error
	PublishPrincipalDeactivated(ctx context.Context, event domain.PrincipalDeactivatedEvent) error
	PublishGrantUpserted(ctx context.Context, event domain.GrantUpsertedEvent) error
	PublishAccessDenied(ctx context.Context, event domain.AccessDeniedEvent) error
}
