package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BloodCharry/PolicyMesh/internal/core/domain"
	"github.com/BloodCharry/PolicyMesh/internal/core/port"
	"github.com/BloodCharry/PolicyMesh/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID     string           `json:"event_id"`
	EventType   string           `json:"event_type"`
	PrincipalID string           `json:"principal_id,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
	Version     string           `json:"version"`
	Payload     any              `json:"payload"`
	Metadata    envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, principalID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	if span := trace.SpanFromContext(ctx); span != nil {
		if sc := span.SpanContext(); sc.IsValid() {
			metadata["trace_id"] = sc.TraceID().String()
		}
	}

	envelope := eventEnvelope{
		EventID:     id,
		EventType:   eventType,
		PrincipalID: principalID,
		Timestamp:   ts.UTC(),
		Version:     schemaVersion,
		Payload:     payload,
		Metadata:    metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	return p.producer.Send(ctx, eventType, bytes)
}

// PublishPrincipalRegistered publishes authgate.principal.registered events.
func (p *EventPublisher) PublishPrincipalRegistered(ctx context.Context, event domain.PrincipalRegisteredEvent) error {
	payload := struct {
		PrincipalID  string    `json:"principal_id"`
		Email        string    `json:"email"`
		RoleID       string    `json:"role_id"`
		RegisteredAt time.Time `json:"registered_at"`
	}{
		PrincipalID:  event.PrincipalID,
		Email:        event.Email,
		RoleID:       event.RoleID,
		RegisteredAt: event.RegisteredAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "authgate.principal.registered", event.PrincipalID, event.RegisteredAt, payload)
}

// PublishLogin publishes authgate.auth.login events for both outcomes.
func (p *EventPublisher) PublishLogin(ctx context.Context, event domain.LoginEvent) error {
	payload := struct {
		PrincipalID string    `json:"principal_id,omitempty"`
		Email       string    `json:"email"`
		Succeeded   bool      `json:"succeeded"`
		IP          *string   `json:"ip,omitempty"`
		At          time.Time `json:"at"`
	}{
		PrincipalID: event.PrincipalID,
		Email:       event.Email,
		Succeeded:   event.Succeeded,
		IP:          event.IP,
		At:          event.At.UTC(),
	}

	return p.publish(ctx, event.EventID, "authgate.auth.login", event.PrincipalID, event.At, payload)
}

// PublishPrincipalDeactivated publishes authgate.principal.deactivated events.
func (p *EventPublisher) PublishPrincipalDeactivated(ctx context.Context, event domain.PrincipalDeactivatedEvent) error {
	payload := struct {
		PrincipalID string    `json:"principal_id"`
		At          time.Time `json:"at"`
	}{
		PrincipalID: event.PrincipalID,
		At:          event.At.UTC(),
	}

	return p.publish(ctx, event.EventID, "authgate.principal.deactivated", event.PrincipalID, event.At, payload)
}

// PublishGrantUpserted publishes authgate.grant.upserted events.
func (p *EventPublisher) PublishGrantUpserted(ctx context.Context, event domain.GrantUpsertedEvent) error {
	payload := struct {
		ActorID     string            `json:"actor_id"`
		RoleName    string            `json:"role_name"`
		ResourceKey string            `json:"resource_key"`
		Flags       domain.GrantFlags `json:"flags"`
		At          time.Time         `json:"at"`
	}{
		ActorID:     event.ActorID,
		RoleName:    event.RoleName,
		ResourceKey: event.ResourceKey,
		Flags:       event.Flags,
		At:          event.At.UTC(),
	}

	return p.publish(ctx, event.EventID, "authgate.grant.upserted", event.ActorID, event.At, payload)
}

// PublishAccessDenied publishes authgate.access.denied events.
func (p *EventPublisher) PublishAccessDenied(ctx context.Context, event domain.AccessDeniedEvent) error {
	payload := struct {
		PrincipalID string            `json:"principal_id"`
		ResourceKey string            `json:"resource_key"`
		Action      domain.Action     `json:"action"`
		Reason      domain.DenyReason `json:"reason"`
		At          time.Time         `json:"at"`
	}{
		PrincipalID: event.PrincipalID,
		ResourceKey: event.ResourceKey,
		Action:      event.Action,
		Reason:      event.Reason,
		At:          event.At.UTC(),
	}

	return p.publish(ctx, event.EventID, "authgate.access.denied", event.PrincipalID, event.At, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
