package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BloodCharry/PolicyMesh/internal/infra/logger"
	"github.com/BloodCharry/PolicyMesh/internal/infra/security"
	"github.com/BloodCharry/PolicyMesh/internal/usecase"
)

// AuthHandler serves registration, login and token refresh endpoints.
type AuthHandler struct {
	auth   *usecase.AuthService
	logger *zap.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(auth *usecase.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: log}
}

// RegisterRoutes binds auth endpoints to the router group. Extra middlewares
// (rate limiting) are applied to the login route only.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, loginMiddlewares ...gin.HandlerFunc) {
	r.POST("/register", h.register)

	login := make([]gin.HandlerFunc, 0, len(loginMiddlewares)+1)
	login = append(login, loginMiddlewares...)
	login = append(login, h.login)
	r.POST("/login", login...)

	r.POST("/refresh", h.refresh)
	r.POST("/logout", h.logout)
}

func (h *AuthHandler) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	principal, err := h.auth.Register(c.Request.Context(), usecase.RegisterInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
	})
	if err != nil {
		var policyErr *security.PasswordValidationError
		if errors.As(err, &policyErr) {
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
				Error:  policyErr.Message,
				Reason: policyErr.Code,
			})
			return
		}

		h.logger.Warn("registration failed", zap.String("email", logger.MaskEmail(req.Email)), zap.Error(err))
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrEmailTaken, Status: http.StatusConflict, Message: "email already registered"},
			{Err: usecase.ErrPasswordMismatch, Status: http.StatusBadRequest, Message: "passwords do not match"},
			{Err: usecase.ErrRoleNotFound, Status: http.StatusServiceUnavailable, Message: "default role is not provisioned"},
		}, http.StatusInternalServerError, "registration failed")
		return
	}

	summary := principalSummary(*principal)
	c.JSON(http.StatusCreated, summary)
}

func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	ip := c.ClientIP()
	pair, principal, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, &ip)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid email or password"},
			{Err: usecase.ErrPrincipalInactive, Status: http.StatusForbidden, Message: "account is deactivated"},
		}, http.StatusInternalServerError, "login failed")
		return
	}

	summary := principalSummary(*principal)
	c.JSON(http.StatusOK, TokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		Principal:    &summary,
	})
}

func (h *AuthHandler) refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidToken, Status: http.StatusUnauthorized, Message: "invalid refresh token"},
			{Err: usecase.ErrPrincipalNotFound, Status: http.StatusUnauthorized, Message: "invalid refresh token"},
			{Err: usecase.ErrPrincipalInactive, Status: http.StatusForbidden, Message: "account is deactivated"},
		}, http.StatusInternalServerError, "token refresh failed")
		return
	}

	c.JSON(http.StatusOK, TokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
	})
}

// logout acknowledges the client's intent. Tokens are stateless; nothing is
// revoked server-side, they simply expire.
func (h *AuthHandler) logout(c *gin.Context) {
	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}
