package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	uuid "github.com/google/uuid"

	"github.com/BloodCharry/PolicyMesh/internal/infra/config"
)

// TokenKind distinguishes short-lived access tokens from long-lived refresh tokens.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// ErrInvalidToken is the single verification failure surfaced to callers.
// Expired, malformed, and badly signed tokens deliberately collapse into it;
// callers must not branch on which of the three occurred.
var ErrInvalidToken = errors.New("security: invalid token")

// Claims carries the identity snapshot embedded at issuance time. The role id
// is a snapshot for transport only: decisions always resolve the principal
// fresh from storage, so a role change or deactivation takes effect before
// the token expires.
type Claims struct {
	PrincipalID string    `json:"uid"`
	RoleID      string    `json:"rid"`
	Kind        TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HMAC (HS256) bearer tokens. The secret and
// lifetimes are fixed at construction from process configuration.
type TokenIssuer struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenIssuer constructs a TokenIssuer from the JWT settings.
func NewTokenIssuer(cfg config.JWTSettings, issuer string) (*TokenIssuer, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, fmt.Errorf("jwt: signing secret is required")
	}
	if issuer == "" {
		return nil, fmt.Errorf("jwt: issuer is required")
	}

	accessTTL := cfg.AccessTokenTTL
	if accessTTL == 0 {
		accessTTL = 30 * time.Minute
	}
	refreshTTL := cfg.RefreshTokenTTL
	if refreshTTL == 0 {
		refreshTTL = 7 * 24 * time.Hour
	}

	return &TokenIssuer{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// Issue produces a signed token of the requested kind embedding the principal
// and role identifiers.
func (i *TokenIssuer) Issue(principalID, roleID string, kind TokenKind) (string, error) {
	principalID = strings.TrimSpace(principalID)
	if principalID == "" {
		return "", fmt.Errorf("jwt: principal id is required")
	}
	roleID = strings.TrimSpace(roleID)
	if roleID == "" {
		return "", fmt.Errorf("jwt: role id is required")
	}

	var ttl time.Duration
	switch kind {
	case KindAccess:
		ttl = i.accessTTL
	case KindRefresh:
		ttl = i.refreshTTL
	default:
		return "", fmt.Errorf("jwt: unknown token kind %q", kind)
	}

	now := time.Now().UTC()
	claims := Claims{
		PrincipalID: principalID,
		RoleID:      roleID,
		Kind:        kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}

	return signed, nil
}

// Verify checks the signature and expiry and returns the embedded claims.
// Every failure mode returns ErrInvalidToken.
func (i *TokenIssuer) Verify(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithIssuer(i.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, ErrInvalidToken
	}

	if parsed == nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.PrincipalID) == "" || strings.TrimSpace(claims.RoleID) == "" {
		return nil, ErrInvalidToken
	}
	if claims.Kind != KindAccess && claims.Kind != KindRefresh {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
