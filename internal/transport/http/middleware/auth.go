package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/BloodCharry/PolicyMesh/internal/core/domain"
	"github.com/BloodCharry/PolicyMesh/internal/infra/security"
	"github.com/BloodCharry/PolicyMesh/internal/usecase"
)

// TokenVerifier checks an access token and returns its claims.
type TokenVerifier interface {
	VerifyAccess(token string) (*security.Claims, error)
}

// PrincipalResolver re-reads the principal from storage for the current request.
type PrincipalResolver interface {
	Resolve(ctx context.Context, principalID, tokenRoleID string) (*domain.Principal, error)
}

// PermissionDecider evaluates a permission decision for the principal.
type PermissionDecider interface {
	Decide(ctx context.Context, principal domain.Principal, resourceKey string, action domain.Action, ownerID *string) (domain.Decision, error)
}

// ErrorResponse matches the handlers.ErrorResponse structure
type ErrorResponse struct {
	Error   string `json:"error"`
	Reason  string `json:"reason,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// newErrorResponse creates an error response with trace ID
func newErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: GetTraceID(c),
	}
}

// RequireAuth validates the Authorization header and resolves the principal
// fresh from storage. The claims' role id is passed along only so role drift
// can be logged; the resolved principal is the one downstream checks see.
func RequireAuth(verifier TokenVerifier, resolver PrincipalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "missing authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "invalid authorization format: expected 'Bearer <token>'"))
			return
		}

		token := strings.TrimSpace(parts[1])
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "missing access token"))
			return
		}

		claims, err := verifier.VerifyAccess(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "invalid access token"))
			return
		}

		principal, err := resolver.Resolve(c.Request.Context(), claims.PrincipalID, claims.RoleID)
		if err != nil {
			switch {
			case errors.Is(err, usecase.ErrPrincipalNotFound):
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					newErrorResponse(c, "principal not found"))
			case errors.Is(err, usecase.ErrPrincipalInactive):
				c.AbortWithStatusJSON(http.StatusForbidden,
					newErrorResponse(c, "principal is not active"))
			default:
				c.AbortWithStatusJSON(http.StatusServiceUnavailable,
					newErrorResponse(c, "authentication temporarily unavailable"))
			}
			return
		}

		c.Set(PrincipalKey, *principal)

		if reqCtx := GetRequestContext(c); reqCtx != nil {
			reqCtx.PrincipalID = principal.ID
		}

		c.Next()
	}
}

// RequirePermission is the route-level gate: it evaluates the action against
// the resource type with no record owner, so only a grant whose flags cover
// the ownerless case lets the request through. Handlers doing per-record work
// call Decide again with the owner.
func RequirePermission(decider PermissionDecider, resourceKey string, action domain.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "authentication required"))
			return
		}

		decision, err := decider.Decide(c.Request.Context(), principal, resourceKey, action, nil)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				newErrorResponse(c, "authorization temporarily unavailable"))
			return
		}

		if !decision.Allowed {
			resp := newErrorResponse(c, "permission denied")
			resp.Reason = string(decision.Reason)
			c.AbortWithStatusJSON(http.StatusForbidden, resp)
			return
		}

		c.Next()
	}
}
