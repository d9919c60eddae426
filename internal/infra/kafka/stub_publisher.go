package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BloodCharry/PolicyMesh/internal/core/domain"
	"github.com/BloodCharry/PolicyMesh/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for development environments.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, principalID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.String("principal_id", principalID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishPrincipalRegistered logs authgate.principal.registered events.
func (p *StubPublisher) PublishPrincipalRegistered(_ context.Context, event domain.PrincipalRegisteredEvent) error {
	payload := map[string]any{
		"principal_id":  event.PrincipalID,
		"email":         event.Email,
		"role_id":       event.RoleID,
		"registered_at": event.RegisteredAt,
	}
	p.logEvent("authgate.principal.registered", event.PrincipalID, event.RegisteredAt, payload)
	return nil
}

// PublishLogin logs authgate.auth.login events.
func (p *StubPublisher) PublishLogin(_ context.Context, event domain.LoginEvent) error {
	payload := map[string]any{
		"principal_id": event.PrincipalID,
		"email":        event.Email,
		"succeeded":    event.Succeeded,
		"ip":           event.IP,
		"at":           event.At,
	}
	p.logEvent("authgate.auth.login", event.PrincipalID, event.At, payload)
	return nil
}

// PublishPrincipalDeactivated logs authgate.principal.deactivated events.
func (p *StubPublisher) PublishPrincipalDeactivated(_ context.Context, event domain.PrincipalDeactivatedEvent) error {
	payload := map[string]any{
		"principal_id": event.PrincipalID,
		"at":           event.At,
	}
	p.logEvent("authgate.principal.deactivated", event.PrincipalID, event.At, payload)
	return nil
}

// PublishGrantUpserted logs authgate.grant.upserted events.
func (p *StubPublisher) PublishGrantUpserted(_ context.Context, event domain.GrantUpsertedEvent) error {
	payload := map[string]any{
		"actor_id":     event.ActorID,
		"role_name":    event.RoleName,
		"resource_key": event.ResourceKey,
		"flags":        event.Flags,
		"at":           event.At,
	}
	p.logEvent("authgate.grant.upserted", event.ActorID, event.At, payload)
	return nil
}

// PublishAccessDenied logs authgate.access.denied events.
func (p *StubPublisher) PublishAccessDenied(_ context.Context, event domain.AccessDeniedEvent) error {
	payload := map[string]any{
		"principal_id": event.PrincipalID,
		"resource_key": event.ResourceKey,
		"action":       event.Action,
		"reason":       event.Reason,
		"at":           event.At,
	}
	p.logEvent("authgate.access.denied", event.PrincipalID, event.At, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
