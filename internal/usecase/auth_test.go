package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/BloodCharry/PolicyMesh/internal/core/domain"
	"github.com/BloodCharry/PolicyMesh/internal/infra/config"
	"github.com/BloodCharry/PolicyMesh/internal/infra/security"
)

const testPassword = "Correct-Horse-Battery-9"

func newAuthFixture(t *testing.T) (*AuthService, *principalRepoMock, *roleRepoMock, *eventRecorderMock, *security.PasswordHasher) {
	t.Helper()

	issuer, err := security.NewTokenIssuer(config.JWTSettings{
		Secret:          "unit-test-secret-unit-test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	}, "authgate-test")
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}

	cfg := security.DefaultArgon2Config()
	cfg.Memory = 8 * 1024
	cfg.Iterations = 1
	cfg.Parallelism = 1
	hasher, err := security.NewPasswordHasher(cfg)
	if err != nil {
		t.Fatalf("NewPasswordHasher: %v", err)
	}

	principals := newPrincipalRepoMock()
	roles := newRoleRepoMock(domain.Role{ID: "role-user", Name: DefaultRoleName})
	events := &eventRecorderMock{}

	svc := NewAuthService(principals, roles, issuer, hasher, security.DefaultPasswordValidator(), events, zaptest.NewLogger(t))
	return svc, principals, roles, events, hasher
}

func registerTestPrincipal(t *testing.T, svc *AuthService) *domain.Principal {
	t.Helper()

	principal, err := svc.Register(context.Background(), RegisterInput{
		Email:           "ada@example.com",
		Password:        testPassword,
		ConfirmPassword: testPassword,
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	return principal
}

func TestRegisterAssignsDefaultRole(t *testing.T) {
	svc, principals, _, events, _ := newAuthFixture(t)

	principal := registerTestPrincipal(t, svc)
	if principal.RoleID != "role-user" {
		t.Fatalf("expected default role assignment, got %s", principal.RoleID)
	}
	if principal.PasswordHash != "" {
		t.Fatal("expected password hash to be stripped from the returned principal")
	}
	if !principal.IsActive {
		t.Fatal("expected registered principal to be active")
	}

	stored, err := principals.GetByEmail(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("stored principal missing: %v", err)
	}
	if stored.PasswordHash == "" || stored.PasswordHash == testPassword {
		t.Fatal("expected stored password to be hashed")
	}

	if len(events.registered) != 1 {
		t.Fatalf("expected 1 registration event, got %d", len(events.registered))
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _, _, _, _ := newAuthFixture(t)
	registerTestPrincipal(t, svc)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:           "Ada@Example.com",
		Password:        testPassword,
		ConfirmPassword: testPassword,
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterRejectsMismatchedConfirmation(t *testing.T) {
	svc, _, _, _, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:           "ada@example.com",
		Password:        testPassword,
		ConfirmPassword: "something-else-entirely",
	})
	if !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	svc, _, _, _, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:           "ada@example.com",
		Password:        "short",
		ConfirmPassword: "short",
	})
	if err == nil {
		t.Fatal("expected weak password to be rejected")
	}

	var violation *security.PasswordValidationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected PasswordValidationError, got %T", err)
	}
}

func TestLoginIssuesTokenPair(t *testing.T) {
	svc, _, _, events, _ := newAuthFixture(t)
	registerTestPrincipal(t, svc)

	pair, principal, err := svc.Login(context.Background(), "ada@example.com", testPassword, nil)
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}
	if principal.PasswordHash != "" {
		t.Fatal("expected password hash to be stripped")
	}

	claims, err := svc.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess returned error: %v", err)
	}
	if claims.PrincipalID != principal.ID {
		t.Fatalf("expected claims for %s, got %s", principal.ID, claims.PrincipalID)
	}

	var succeeded int
	for _, e := range events.logins {
		if e.Succeeded {
			succeeded++
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected 1 successful login event, got %d", succeeded)
	}
}

func TestLoginCollapsesFailureModes(t *testing.T) {
	svc, _, _, events, _ := newAuthFixture(t)
	registerTestPrincipal(t, svc)

	// Unknown email and wrong password produce the same error.
	if _, _, err := svc.Login(context.Background(), "nobody@example.com", testPassword, nil); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "ada@example.com", "wrong-password", nil); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}

	var failed int
	for _, e := range events.logins {
		if !e.Succeeded {
			failed++
		}
	}
	if failed != 2 {
		t.Fatalf("expected 2 failed login events, got %d", failed)
	}
}

func TestLoginRejectsInactivePrincipal(t *testing.T) {
	svc, principals, _, _, _ := newAuthFixture(t)
	registered := registerTestPrincipal(t, svc)

	if err := principals.SetActive(context.Background(), registered.ID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}

	if _, _, err := svc.Login(context.Background(), "ada@example.com", testPassword, nil); !errors.Is(err, ErrPrincipalInactive) {
		t.Fatalf("expected ErrPrincipalInactive, got %v", err)
	}
}

func TestRefreshRotatesPair(t *testing.T) {
	svc, _, _, _, _ := newAuthFixture(t)
	registerTestPrincipal(t, svc)

	pair, _, err := svc.Login(context.Background(), "ada@example.com", testPassword, nil)
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	fresh, err := svc.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if fresh.AccessToken == "" || fresh.RefreshToken == "" {
		t.Fatal("expected a full fresh pair")
	}

	// An access token is not accepted where a refresh token is required.
	if _, err := svc.Refresh(context.Background(), pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for access token, got %v", err)
	}
}

func TestRefreshStopsForDeactivatedPrincipal(t *testing.T) {
	svc, principals, _, _, _ := newAuthFixture(t)
	registered := registerTestPrincipal(t, svc)

	pair, _, err := svc.Login(context.Background(), "ada@example.com", testPassword, nil)
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if err := principals.SetActive(context.Background(), registered.ID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}

	if _, err := svc.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrPrincipalInactive) {
		t.Fatalf("expected ErrPrincipalInactive, got %v", err)
	}
}

func TestVerifyAccessRejectsRefreshToken(t *testing.T) {
	svc, _, _, _, _ := newAuthFixture(t)
	registerTestPrincipal(t, svc)

	pair, _, err := svc.Login(context.Background(), "ada@example.com", testPassword, nil)
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if _, err := svc.VerifyAccess(pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for refresh token, got %v", err)
	}
	if _, err := svc.VerifyAccess("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}
