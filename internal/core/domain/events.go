package domain

import "time"

// PrincipalRegisteredEvent represents the payload for authgate.principal.registered messages.
type PrincipalRegisteredEvent struct {
	EventID      string
	PrincipalID  string
	Email        string
	RoleID       string
	RegisteredAt time.Time
}

// LoginEvent represents the payload for authgate.auth.login messages, emitted
// for both successful and failed attempts.
type LoginEvent struct {
	EventID     string
	PrincipalID string
	Email       string
	Succeeded   bool
	IP          *string
	At          time.Time
}

// PrincipalDeactivatedEvent represents the payload for authgate.principal.deactivated messages.
type PrincipalDeactivatedEvent struct {
	EventID     string
	PrincipalID string
	At          time.Time
}

// GrantUpsertedEvent represents the payload for authgate.grant.upserted messages.
type GrantUpsertedEvent struct {
	EventID     string
	ActorID     string
	RoleName    string
	ResourceKey string
	Flags       GrantFlags
	At          time.Time
}

// AccessDeniedEvent represents the payload for authgate.access.denied
// messages. Emission point only: nothing in this service stores audit rows.
type AccessDeniedEvent struct {
	EventID     string
	PrincipalID string
	ResourceKey string
	Action      Action
	Reason      DenyReason
	At          time.Time
}
