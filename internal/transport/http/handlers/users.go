package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BloodCharry/PolicyMesh/internal/transport/http/middleware"
	"github.com/BloodCharry/PolicyMesh/internal/usecase"
)

// UserHandler serves the authenticated principal's self-service endpoints.
type UserHandler struct {
	users  *usecase.UserService
	logger *zap.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users *usecase.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{users: users, logger: log}
}

// RegisterRoutes binds user endpoints to an authenticated router group.
func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/me", h.profile)
	r.DELETE("/me", h.deactivate)
}

func (h *UserHandler) profile(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	current, role, err := h.users.Profile(c.Request.Context(), principal.ID)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPrincipalNotFound, Status: http.StatusNotFound, Message: "account not found"},
		}, http.StatusInternalServerError, "failed to load profile")
		return
	}

	summary := principalSummary(*current)
	if role != nil {
		summary.RoleName = role.Name
	}
	c.JSON(http.StatusOK, summary)
}

func (h *UserHandler) deactivate(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	if err := h.users.Deactivate(c.Request.Context(), principal.ID); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPrincipalNotFound, Status: http.StatusNotFound, Message: "account not found"},
		}, http.StatusInternalServerError, "failed to deactivate account")
		return
	}

	h.logger.Info("principal deactivated", zap.String("principal_id", principal.ID))
	c.JSON(http.StatusOK, MessageResponse{Message: "account deactivated"})
}
