package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/BloodCharry/PolicyMesh/internal/core/domain"
	"github.com/BloodCharry/PolicyMesh/internal/repository"
)

func TestPrincipalRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewPrincipalRepository(mock)

	firstName := "Ada"
	registeredAt := time.Now().UTC()
	principal := domain.Principal{
		ID:           "principal-1",
		Email:        "ada@example.com",
		PasswordHash: "argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		FirstName:    &firstName,
		IsActive:     true,
		RoleID:       "role-1",
		RegisteredAt: registeredAt,
	}

	mock.ExpectExec(`INSERT INTO authgate\.principals`).
		WithArgs(
			principal.ID,
			principal.Email,
			principal.PasswordHash,
			firstName,
			nil,
			principal.IsActive,
			principal.RoleID,
			principal.RegisteredAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), principal); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPrincipalRepository_GetByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewPrincipalRepository(mock)

	registeredAt := time.Now().UTC()
	rows := pgxmock.NewRows([]string{
		"id", "email", "password_hash", "first_name", "last_name",
		"is_active", "role_id", "registered_at",
	}).AddRow(
		"principal-1", "ada@example.com", "hash", "Ada", nil,
		true, "role-1", registeredAt,
	)

	mock.ExpectQuery(`SELECT .*FROM authgate\.principals`).
		WithArgs("ada@example.com").
		WillReturnRows(rows)

	principal, err := repo.GetByEmail(context.Background(), "  Ada@Example.COM ")
	if err != nil {
		t.Fatalf("GetByEmail returned error: %v", err)
	}
	if principal.ID != "principal-1" {
		t.Fatalf("expected principal-1, got %s", principal.ID)
	}
	if principal.FirstName == nil || *principal.FirstName != "Ada" {
		t.Fatalf("expected first name Ada, got %v", principal.FirstName)
	}
	if principal.LastName != nil {
		t.Fatalf("expected nil last name, got %v", *principal.LastName)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPrincipalRepository_GetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewPrincipalRepository(mock)

	mock.ExpectQuery(`SELECT .*FROM authgate\.principals`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "email", "password_hash", "first_name", "last_name",
			"is_active", "role_id", "registered_at",
		}))

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPrincipalRepository_SetActive(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewPrincipalRepository(mock)

	mock.ExpectExec(`UPDATE authgate\.principals SET is_active`).
		WithArgs(false, "principal-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.SetActive(context.Background(), "principal-1", false); err != nil {
		t.Fatalf("SetActive returned error: %v", err)
	}

	mock.ExpectExec(`UPDATE authgate\.principals SET is_active`).
		WithArgs(false, "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.SetActive(context.Background(), "missing", false); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
