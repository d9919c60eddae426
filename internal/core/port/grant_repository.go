package port

import (
	"context"

	"github.com/BloodCharry/PolicyMesh/internal/core/domain"
)

// GrantRepository reads and writes permission matrix cells.
//
// Lookup resolves the resource by its key and returns repository.ErrNotFound
// when no grant row exists for the pair. A miss is the expected representation
// of default-deny, not a fault. Upsert is last-writer-wins on the
// (role_id, resource_id) uniqueness constraint.
type GrantRepository interface {
	Lookup(ctx context.Context, roleID, resourceKey string) (*domain.PermissionGrant, error)
	Upsert(ctx context.Context, grant domain.PermissionGrant) error
	ListRules(ctx context.Context) ([]domain.RuleView, error)
}
