package port

import (
	"context"

	"github.com/BloodCharry/PolicyMesh/internal/core/domain"
)

// RoleRepository handles role CRUD. Roles are never hard-deleted while
// referenced by principals; the repository does not expose Delete.
type RoleRepository interface {
	Create(ctx context.Context, role domain.Role) error
	GetByID(ctx context.Context, id string) (*domain.Role, error)
	GetByName(ctx context.Context, name string) (*domain.Role, error)
	List(ctx context.Context) ([]domain.Role, error)
	Rename(ctx context.Context, id, name string) error
}
