package domain

// EvaluateGrant is the single decision point for every permission check. Both
// the route-level gate (no owner) and per-record checks (owner known) call it;
// there is no second code path.
//
// grant is nil when no matrix cell exists for the principal's role and the
// resource, which denies by default. ownerID is nil when the caller has no
// owner to compare, so only a global flag can allow. A global flag short-
// circuits ownership entirely; the owner is never read.
func EvaluateGrant(principal Principal, grant *PermissionGrant, action Action, ownerID *string) Decision {
	if !principal.IsActive {
		return Deny(DenyInactive)
	}
	if grant == nil {
		return Deny(DenyNoRule)
	}

	switch action {
	case ActionCreate:
		// Creation has no owner yet; only the create flag matters.
		if grant.Flags.Create {
			return Allow()
		}
		return Deny(DenyScopeInsufficient)
	case ActionRead:
		return scopedDecision(grant.Flags.ReadAll, grant.Flags.Read, principal.ID, ownerID)
	case ActionUpdate:
		return scopedDecision(grant.Flags.UpdateAll, grant.Flags.Update, principal.ID, ownerID)
	case ActionDelete:
		return scopedDecision(grant.Flags.DeleteAll, grant.Flags.Delete, principal.ID, ownerID)
	default:
		return Deny(DenyUnknownAction)
	}
}

func scopedDecision(global, local bool, principalID string, ownerID *string) Decision {
	if global {
		return Allow()
	}
	if local && ownerID != nil && *ownerID == principalID {
		return Allow()
	}
	return Deny(DenyScopeInsufficient)
}
