package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/BloodCharry/PolicyMesh/internal/core/domain"
	"github.com/BloodCharry/PolicyMesh/internal/core/port"
	"github.com/BloodCharry/PolicyMesh/internal/repository"
)

// ResourceRepository implements port.ResourceRepository using PostgreSQL.
type ResourceRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewResourceRepository constructs a PostgreSQL-backed resource type repository.
func NewResourceRepository(exec pgExecutor) *ResourceRepository {
	return &ResourceRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *ResourceRepository) WithTx(tx pgx.Tx) *ResourceRepository {
	if tx == nil {
		return r
	}
	return &ResourceRepository{
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts a new resource type row.
func (r *ResourceRepository) Create(ctx context.Context, resource domain.ResourceType) error {
	stmt, args, err := r.builder.Insert("authgate.resource_types").
		Columns("id", "key", "name").
		Values(resource.ID, resource.Key, resource.Name).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert resource type sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert resource type: %w", err)
	}

	return nil
}

// GetByKey retrieves a resource type by its stable key.
func (r *ResourceRepository) GetByKey(ctx context.Context, key string) (*domain.ResourceType, error) {
	stmt, args, err := r.builder.
		Select("id", "key", "name").
		From("authgate.resource_types").
		Where(squirrel.Eq{"key": key}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select resource type sql: %w", err)
	}

	var resource domain.ResourceType
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&resource.ID, &resource.Key, &resource.Name); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan resource type: %w", err)
	}

	return &resource, nil
}

// List returns all resource types ordered by key.
func (r *ResourceRepository) List(ctx context.Context) ([]domain.ResourceType, error) {
	stmt, args, err := r.builder.
		Select("id", "key", "name").
		From("authgate.resource_types").
		OrderBy("key ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list resource types sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query resource types: %w", err)
	}
	defer rows.Close()

	resources := make([]domain.ResourceType, 0)
	for rows.Next() {
		var resource domain.ResourceType
		if err := rows.Scan(&resource.ID, &resource.Key, &resource.Name); err != nil {
			return nil, fmt.Errorf("scan resource type: %w", err)
		}
		resources = append(resources, resource)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resource types: %w", err)
	}

	return resources, nil
}

var _ port.ResourceRepository = (*ResourceRepository)(nil)
