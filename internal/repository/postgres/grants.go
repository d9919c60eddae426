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

var grantFlagColumns = []string{
	"can_create",
	"can_read",
	"can_read_all",
	"can_update",
	"can_update_all",
	"can_delete",
	"can_delete_all",
}

// GrantRepository implements port.GrantRepository using PostgreSQL.
type GrantRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewGrantRepository constructs a PostgreSQL-backed grant repository.
func NewGrantRepository(exec pgExecutor) *GrantRepository {
	return &GrantRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *GrantRepository) WithTx(tx pgx.Tx) *GrantRepository {
	if tx == nil {
		return r
	}
	return &GrantRepository{
		exec:    tx,
		builder: r.builder,
	}
}

// Lookup fetches the grant cell for a role and resource key. A missing row
// surfaces as repository.ErrNotFound; callers treat that as default-deny.
func (r *GrantRepository) Lookup(ctx context.Context, roleID, resourceKey string) (*domain.PermissionGrant, error) {
	columns := append([]string{"g.id", "g.role_id", "g.resource_id"}, prefixColumns("g", grantFlagColumns)...)

	stmt, args, err := r.builder.
		Select(columns...).
		From("authgate.grants g").
		Join("authgate.resource_types rt ON rt.id = g.resource_id").
		Where(squirrel.Eq{"g.role_id": roleID, "rt.key": resourceKey}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select grant sql: %w", err)
	}

	var grant domain.PermissionGrant
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&grant.ID,
		&grant.RoleID,
		&grant.ResourceID,
		&grant.Flags.Create,
		&grant.Flags.Read,
		&grant.Flags.ReadAll,
		&grant.Flags.Update,
		&grant.Flags.UpdateAll,
		&grant.Flags.Delete,
		&grant.Flags.DeleteAll,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan grant: %w", err)
	}

	return &grant, nil
}

// Upsert inserts or replaces the grant cell for its (role, resource) pair.
// The last write wins in full; flags are not merged.
func (r *GrantRepository) Upsert(ctx context.Context, grant domain.PermissionGrant) error {
	columns := append([]string{"id", "role_id", "resource_id"}, grantFlagColumns...)

	stmt, args, err := r.builder.Insert("authgate.grants").
		Columns(columns...).
		Values(
			grant.ID,
			grant.RoleID,
			grant.ResourceID,
			grant.Flags.Create,
			grant.Flags.Read,
			grant.Flags.ReadAll,
			grant.Flags.Update,
			grant.Flags.UpdateAll,
			grant.Flags.Delete,
			grant.Flags.DeleteAll,
		).
		Suffix(`ON CONFLICT (role_id, resource_id) DO UPDATE SET
			can_create = EXCLUDED.can_create,
			can_read = EXCLUDED.can_read,
			can_read_all = EXCLUDED.can_read_all,
			can_update = EXCLUDED.can_update,
			can_update_all = EXCLUDED.can_update_all,
			can_delete = EXCLUDED.can_delete,
			can_delete_all = EXCLUDED.can_delete_all`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert grant sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("upsert grant: %w", err)
	}

	return nil
}

// ListRules returns the denormalized permission matrix for administration.
func (r *GrantRepository) ListRules(ctx context.Context) ([]domain.RuleView, error) {
	columns := append([]string{"ro.name", "rt.key", "rt.name"}, prefixColumns("g", grantFlagColumns)...)

	stmt, args, err := r.builder.
		Select(columns...).
		From("authgate.grants g").
		Join("authgate.roles ro ON ro.id = g.role_id").
		Join("authgate.resource_types rt ON rt.id = g.resource_id").
		OrderBy("ro.name ASC", "rt.key ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list rules sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	rules := make([]domain.RuleView, 0)
	for rows.Next() {
		var rule domain.RuleView
		if err := rows.Scan(
			&rule.RoleName,
			&rule.ResourceKey,
			&rule.ResourceName,
			&rule.Flags.Create,
			&rule.Flags.Read,
			&rule.Flags.ReadAll,
			&rule.Flags.Update,
			&rule.Flags.UpdateAll,
			&rule.Flags.Delete,
			&rule.Flags.DeleteAll,
		); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}

	return rules, nil
}

func prefixColumns(alias string, columns []string) []string {
	prefixed := make([]string, len(columns))
	for i, column := range columns {
		prefixed[i] = alias + "." + column
	}
	return prefixed
}

var _ port.GrantRepository = (*GrantRepository)(nil)
