package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/BloodCharry/PolicyMesh/internal/core/domain"
	"github.com/BloodCharry/PolicyMesh/internal/core/port"
	"github.com/BloodCharry/PolicyMesh/internal/repository"
)

var principalColumns = []string{
	"id",
	"email",
	"password_hash",
	"first_name",
	"last_name",
	"is_active",
	"role_id",
	"registered_at",
}

// PrincipalRepository implements port.PrincipalRepository using PostgreSQL.
type PrincipalRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewPrincipalRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewPrincipalRepository(exec pgExecutor) *PrincipalRepository {
	return &PrincipalRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *PrincipalRepository) WithTx(tx pgx.Tx) *PrincipalRepository {
	if tx == nil {
		return r
	}
	return &PrincipalRepository{
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts a new principal row.
func (r *PrincipalRepository) Create(ctx context.Context, principal domain.Principal) error {
	var firstName any
	if principal.FirstName != nil && *principal.FirstName != "" {
		firstName = *principal.FirstName
	}

	var lastName any
	if principal.LastName != nil && *principal.LastName != "" {
		lastName = *principal.LastName
	}

	query := r.builder.Insert("authgate.principals").
		Columns(principalColumns...).
		Values(
			principal.ID,
			principal.Email,
			principal.PasswordHash,
			firstName,
			lastName,
			principal.IsActive,
			principal.RoleID,
			principal.RegisteredAt,
		)

	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build insert principal sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert principal: %w", err)
	}

	return nil
}

// GetByID retrieves a principal by identifier.
func (r *PrincipalRepository) GetByID(ctx context.Context, id string) (*domain.Principal, error) {
	stmt, args, err := r.builder.
		Select(principalColumns...).
		From("authgate.principals").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select principal sql: %w", err)
	}

	return r.scanPrincipal(r.exec.QueryRow(ctx, stmt, args...))
}

// GetByEmail retrieves a principal by its unique email.
func (r *PrincipalRepository) GetByEmail(ctx context.Context, email string) (*domain.Principal, error) {
	stmt, args, err := r.builder.
		Select(principalColumns...).
		From("authgate.principals").
		Where(squirrel.Eq{"email": strings.ToLower(strings.TrimSpace(email))}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select principal by email sql: %w", err)
	}

	return r.scanPrincipal(r.exec.QueryRow(ctx, stmt, args...))
}

// SetActive toggles the is_active flag for a principal.
func (r *PrincipalRepository) SetActive(ctx context.Context, id string, active bool) error {
	stmt, args, err := r.builder.Update("authgate.principals").
		Set("is_active", active).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update principal active sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update principal active: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *PrincipalRepository) scanPrincipal(row pgx.Row) (*domain.Principal, error) {
	var (
		principal domain.Principal
		firstName sql.NullString
		lastName  sql.NullString
	)

	if err := row.Scan(
		&principal.ID,
		&principal.Email,
		&principal.PasswordHash,
		&firstName,
		&lastName,
		&principal.IsActive,
		&principal.RoleID,
		&principal.RegisteredAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan principal: %w", err)
	}

	if firstName.Valid {
		val := firstName.String
		principal.FirstName = &val
	}
	if lastName.Valid {
		val := lastName.String
		principal.LastName = &val
	}

	return &principal, nil
}

var _ port.PrincipalRepository = (*PrincipalRepository)(nil)
