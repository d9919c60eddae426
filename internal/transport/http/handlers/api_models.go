package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BloodCharry/PolicyMesh/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	Reason  string `json:"reason,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// PrincipalSummary describes a minimal view of a principal returned by the API.
type PrincipalSummary struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    *string   `json:"first_name,omitempty"`
	LastName     *string   `json:"last_name,omitempty"`
	IsActive     bool      `json:"is_active"`
	RoleID       string    `json:"role_id"`
	RoleName     string    `json:"role_name,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}

func principalSummary(p domain.Principal) PrincipalSummary {
	return PrincipalSummary{
		ID:           p.ID,
		Email:        p.Email,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		IsActive:     p.IsActive,
		RoleID:       p.RoleID,
		RegisteredAt: p.RegisteredAt,
	}
}

// RegisterRequest defines the payload for the registration endpoint.
type RegisterRequest struct {
	Email           string  `json:"email" binding:"required,email"`
	Password        string  `json:"password" binding:"required"`
	ConfirmPassword string  `json:"confirm_password" binding:"required"`
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest defines the payload for the token refresh endpoint.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenPairResponse carries an issued access and refresh token pair.
type TokenPairResponse struct {
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
	TokenType    string            `json:"token_type"`
	Principal    *PrincipalSummary `json:"principal,omitempty"`
}

// GrantFlagsModel mirrors the permission matrix cell in API payloads.
type GrantFlagsModel struct {
	Create    bool `json:"create"`
	Read      bool `json:"read"`
	ReadAll   bool `json:"read_all"`
	Update    bool `json:"update"`
	UpdateAll bool `json:"update_all"`
	Delete    bool `json:"delete"`
	DeleteAll bool `json:"delete_all"`
}

func (m GrantFlagsModel) toDomain() domain.GrantFlags {
	return domain.GrantFlags{
		Create:    m.Create,
		Read:      m.Read,
		ReadAll:   m.ReadAll,
		Update:    m.Update,
		UpdateAll: m.UpdateAll,
		Delete:    m.Delete,
		DeleteAll: m.DeleteAll,
	}
}

func grantFlagsModel(f domain.GrantFlags) GrantFlagsModel {
	return GrantFlagsModel{
		Create:    f.Create,
		Read:      f.Read,
		ReadAll:   f.ReadAll,
		Update:    f.Update,
		UpdateAll: f.UpdateAll,
		Delete:    f.Delete,
		DeleteAll: f.DeleteAll,
	}
}

// UpsertRuleRequest writes one permission matrix cell addressed by names.
type UpsertRuleRequest struct {
	RoleName    string          `json:"role_name" binding:"required"`
	ResourceKey string          `json:"resource_key" binding:"required"`
	Flags       GrantFlagsModel `json:"flags"`
}

// RuleResponse is one row of the denormalized permission matrix.
type RuleResponse struct {
	RoleName     string          `json:"role_name"`
	ResourceKey  string          `json:"resource_key"`
	ResourceName string          `json:"resource_name"`
	Flags        GrantFlagsModel `json:"flags"`
}

// CreateRoleRequest defines the payload for role provisioning.
type CreateRoleRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

// RenameRoleRequest defines the payload for renaming a role.
type RenameRoleRequest struct {
	Name string `json:"name" binding:"required"`
}

// RoleResponse describes a role.
type RoleResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// CreateResourceRequest defines the payload for resource type provisioning.
type CreateResourceRequest struct {
	Key  string `json:"key" binding:"required"`
	Name string `json:"name"`
}

// ResourceResponse describes a protected resource type.
type ResourceResponse struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// CreateOrderRequest defines the payload for the demo order endpoint.
type CreateOrderRequest struct {
	Item     string `json:"item" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
}

// UpdateOrderRequest defines the payload for updating a demo order.
type UpdateOrderRequest struct {
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
}

// OrderResponse describes a demo order record.
type OrderResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Item      string    `json:"item"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}
