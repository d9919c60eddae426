package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BloodCharry/PolicyMesh/internal/core/domain"
	"github.com/BloodCharry/PolicyMesh/internal/core/port"
	"github.com/BloodCharry/PolicyMesh/internal/infra/logger"
	"github.com/BloodCharry/PolicyMesh/internal/infra/security"
	"github.com/BloodCharry/PolicyMesh/internal/repository"
)

// DefaultRoleName is assigned to principals registered through the public endpoint.
const DefaultRoleName = "User"

// TokenPair carries the credentials returned by login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RegisterInput collects the fields accepted during self-registration.
type RegisterInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	FirstName       *string
	LastName        *string
}

// AuthService coordinates registration, login, and token verification.
type AuthService struct {
	principals port.PrincipalRepository
	roles      port.RoleRepository
	issuer     *security.TokenIssuer
	hasher     *security.PasswordHasher
	validator  *security.PasswordValidator
	events     port.EventPublisher
	logger     *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(
	principals port.PrincipalRepository,
	roles port.RoleRepository,
	issuer *security.TokenIssuer,
	hasher *security.PasswordHasher,
	validator *security.PasswordValidator,
	events port.EventPublisher,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		principals: principals,
		roles:      roles,
		issuer:     issuer,
		hasher:     hasher,
		validator:  validator,
		events:     events,
		logger:     log,
	}
}

// Register creates a new principal with the default role. Duplicate emails
// are rejected before hashing so the error surfaces fast.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.Principal, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if input.Password == "" {
		return nil, fmt.Errorf("password is required")
	}
	if input.Password != input.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	if err := s.validator.Validate(input.Password); err != nil {
		return nil, err
	}

	if _, err := s.principals.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	role, err := s.roles.GetByName(ctx, DefaultRoleName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("default role %q is not provisioned", DefaultRoleName)
		}
		return nil, fmt.Errorf("lookup default role: %w", err)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	principal := domain.Principal{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		IsActive:     true,
		RoleID:       role.ID,
		RegisteredAt: time.Now().UTC(),
	}

	if err := s.principals.Create(ctx, principal); err != nil {
		return nil, fmt.Errorf("create principal: %w", err)
	}

	s.logger.Info("principal registered",
		zap.String("principal_id", principal.ID),
		zap.String("email", logger.MaskEmail(principal.Email)),
	)

	if s.events != nil {
		event := domain.PrincipalRegisteredEvent{
			PrincipalID:  principal.ID,
			Email:        principal.Email,
			RoleID:       principal.RoleID,
			RegisteredAt: principal.RegisteredAt,
		}
		if err := s.events.PublishPrincipalRegistered(ctx, event); err != nil {
			s.logger.Warn("publish principal registered event", zap.Error(err))
		}
	}

	sanitized := principal
	sanitized.PasswordHash = ""
	return &sanitized, nil
}

// Login verifies credentials and issues an access and refresh token pair.
// Unknown email and wrong password both surface ErrInvalidCredentials so the
// response does not reveal which part failed.
func (s *AuthService) Login(ctx context.Context, email, password string, ip *string) (*TokenPair, *domain.Principal, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, nil, ErrInvalidCredentials
	}

	principal, err := s.principals.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.emitLogin(ctx, "", email, false, ip)
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("lookup principal: %w", err)
	}

	ok, err := s.hasher.Verify(password, principal.PasswordHash)
	if err != nil {
		return nil, nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.emitLogin(ctx, principal.ID, email, false, ip)
		return nil, nil, ErrInvalidCredentials
	}

	if !principal.IsActive {
		s.emitLogin(ctx, principal.ID, email, false, ip)
		return nil, nil, ErrPrincipalInactive
	}

	pair, err := s.issuePair(principal)
	if err != nil {
		return nil, nil, err
	}

	s.emitLogin(ctx, principal.ID, email, true, ip)

	sanitized := *principal
	sanitized.PasswordHash = ""
	return pair, &sanitized, nil
}

// Refresh exchanges a valid refresh token for a fresh pair. The principal is
// re-resolved so a deactivated account cannot mint new tokens.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.issuer.Verify(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Kind != security.KindRefresh {
		return nil, ErrInvalidToken
	}

	principal, err := s.principals.GetByID(ctx, claims.PrincipalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("resolve principal: %w", err)
	}
	if !principal.IsActive {
		return nil, ErrPrincipalInactive
	}

	return s.issuePair(principal)
}

// VerifyAccess checks an access token's signature and kind and returns its claims.
func (s *AuthService) VerifyAccess(token string) (*security.Claims, error) {
	claims, err := s.issuer.Verify(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Kind != security.KindAccess {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) issuePair(principal *domain.Principal) (*TokenPair, error) {
	access, err := s.issuer.Issue(principal.ID, principal.RoleID, security.KindAccess)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refresh, err := s.issuer.Issue(principal.ID, principal.RoleID, security.KindRefresh)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) emitLogin(ctx context.Context, principalID, email string, succeeded bool, ip *string) {
	if s.events == nil {
		return
	}

	event := domain.LoginEvent{
		PrincipalID: principalID,
		Email:       email,
		Succeeded:   succeeded,
		IP:          ip,
		At:          time.Now().UTC(),
	}
	if err := s.events.PublishLogin(ctx, event); err != nil {
		s.logger.Warn("publish login event", zap.Error(err))
	}
}
