package domain

// DenyReason classifies why a decision refused access.
type DenyReason string

const (
	// DenyInactive means the acting principal is soft-deleted.
	DenyInactive DenyReason = "inactive"
	// DenyNoRule means no grant row exists for the (role, resource) pair.
	DenyNoRule DenyReason = "no-rule"
	// DenyScopeInsufficient means a grant exists but its flags do not cover
	// the requested action and scope.
	DenyScopeInsufficient DenyReason = "scope-insufficient"
	// DenyUnknownAction means the caller asked about an action the matrix
	// does not model. A caller bug, but it fails closed.
	DenyUnknownAction DenyReason = "unknown-action"
)

// Decision is the outcome of a single permission evaluation. Denial is data,
// never an error.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

// Allow constructs a permitting decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny constructs a refusing decision with the supplied reason.
func Deny(reason DenyReason) Decision {
	return Decision{Allowed: false, Reason: reason}
}
