package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BloodCharry/PolicyMesh/internal/core/domain"
	"github.com/BloodCharry/PolicyMesh/internal/transport/http/middleware"
	"github.com/BloodCharry/PolicyMesh/internal/usecase"
)

// AdminHandler serves the permission matrix and catalog management endpoints.
type AdminHandler struct {
	admin  *usecase.AdminService
	logger *zap.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(admin *usecase.AdminService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, logger: log}
}

// PermissionGate produces a route-level permission middleware for one action
// on the administration resource.
type PermissionGate func(action domain.Action) gin.HandlerFunc

// RegisterRoutes binds admin endpoints to an authenticated router group,
// gating reads and writes with separate matrix actions.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, gate PermissionGate) {
	r.GET("/rules", gate(domain.ActionRead), h.listRules)
	r.PUT("/rules", gate(domain.ActionUpdate), h.upsertRule)
	r.GET("/roles", gate(domain.ActionRead), h.listRoles)
	r.POST("/roles", gate(domain.ActionCreate), h.createRole)
	r.PATCH("/roles/:id", gate(domain.ActionUpdate), h.renameRole)
	r.GET("/resources", gate(domain.ActionRead), h.listResources)
	r.POST("/resources", gate(domain.ActionCreate), h.createResource)
}

func (h *AdminHandler) listRules(c *gin.Context) {
	rules, err := h.admin.ListRules(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list rules"))
		return
	}

	out := make([]RuleResponse, 0, len(rules))
	for _, rule := range rules {
		out = append(out, RuleResponse{
			RoleName:     rule.RoleName,
			ResourceKey:  rule.ResourceKey,
			ResourceName: rule.ResourceName,
			Flags:        grantFlagsModel(rule.Flags),
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) upsertRule(c *gin.Context) {
	var req UpsertRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	principal, _ := middleware.GetPrincipal(c)
	err := h.admin.UpsertRule(c.Request.Context(), principal.ID, usecase.UpsertRuleInput{
		RoleName:    req.RoleName,
		ResourceKey: req.ResourceKey,
		Flags:       req.Flags.toDomain(),
	})
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrRoleNotFound, Status: http.StatusNotFound, Message: "role not found"},
			{Err: usecase.ErrResourceNotFound, Status: http.StatusNotFound, Message: "resource not found"},
		}, http.StatusInternalServerError, "failed to write rule")
		return
	}

	h.logger.Info("rule upserted",
		zap.String("role", req.RoleName),
		zap.String("resource", req.ResourceKey),
		zap.String("actor_id", principal.ID),
	)
	c.JSON(http.StatusOK, MessageResponse{Message: "rule saved"})
}

func (h *AdminHandler) listRoles(c *gin.Context) {
	roles, err := h.admin.ListRoles(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list roles"))
		return
	}

	out := make([]RoleResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, RoleResponse{ID: role.ID, Name: role.Name, Description: role.Description})
	}
	c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) createRole(c *gin.Context) {
	var req CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	role, err := h.admin.CreateRole(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to create role"))
		return
	}
	c.JSON(http.StatusCreated, RoleResponse{ID: role.ID, Name: role.Name, Description: role.Description})
}

func (h *AdminHandler) renameRole(c *gin.Context) {
	var req RenameRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	if err := h.admin.RenameRole(c.Request.Context(), c.Param("id"), req.Name); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrRoleNotFound, Status: http.StatusNotFound, Message: "role not found"},
		}, http.StatusInternalServerError, "failed to rename role")
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "role renamed"})
}

func (h *AdminHandler) listResources(c *gin.Context) {
	resources, err := h.admin.ListResources(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list resources"))
		return
	}

	out := make([]ResourceResponse, 0, len(resources))
	for _, res := range resources {
		out = append(out, ResourceResponse{ID: res.ID, Key: res.Key, Name: res.Name})
	}
	c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) createResource(c *gin.Context) {
	var req CreateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	res, err := h.admin.CreateResource(c.Request.Context(), req.Key, req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to create resource"))
		return
	}
	c.JSON(http.StatusCreated, ResourceResponse{ID: res.ID, Key: res.Key, Name: res.Name})
}
