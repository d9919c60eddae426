package port

import (
	"context"

	"github.com/BloodCharry/PolicyMesh/internal/core/domain"
)

// ResourceRepository manages protected resource type storage.
type ResourceRepository interface {
	Create(ctx context.Context, resource domain.ResourceType) error
	GetByKey(ctx context.Context, key string) (*domain.ResourceType, error)
	List(ctx context.Context) ([]domain.ResourceType, error)
}
