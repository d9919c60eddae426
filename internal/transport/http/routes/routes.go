package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BloodCharry/PolicyMesh/internal/core/domain"
	"github.com/BloodCharry/PolicyMesh/internal/infra/config"
	"github.com/BloodCharry/PolicyMesh/internal/transport/http/handlers"
	"github.com/BloodCharry/PolicyMesh/internal/transport/http/middleware"
	"github.com/BloodCharry/PolicyMesh/internal/usecase"
)

// The resource key governing access to the permission matrix itself.
const adminResource = "rules"

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth  *usecase.AuthService
	Authz *usecase.AuthzService
	Users *usecase.UserService
	Admin *usecase.AdminService
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config        *config.AppConfig
	Logger        *zap.Logger
	LoginThrottle *middleware.LoginThrottle
	HTTPMetrics   *middleware.HTTPMetrics
	Services      ServiceSet
	Database      DatabaseChecker
	Cache         CacheChecker
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	if deps.HTTPMetrics != nil {
		r.Use(deps.HTTPMetrics.Handler())
	}

	authMiddleware := middleware.RequireAuth(deps.Services.Auth, deps.Services.Authz)

	checks := make(map[string]handlers.ReadinessCheck, 2)
	if deps.Database != nil {
		checks["database"] = deps.Database.Ping
	}
	if deps.Cache != nil {
		checks["redis"] = deps.Cache.HealthCheck
	}
	healthHandler := handlers.NewHealthHandler(checks)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Ready)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		authHandler := handlers.NewAuthHandler(deps.Services.Auth, deps.Logger)
		authHandler.RegisterRoutes(authGroup, buildLoginMiddlewares(deps)...)

		userGroup := api.Group("/users")
		userGroup.Use(authMiddleware)
		userHandler := handlers.NewUserHandler(deps.Services.Users, deps.Logger)
		userHandler.RegisterRoutes(userGroup)

		orderGroup := api.Group("/orders")
		orderGroup.Use(authMiddleware)
		orderHandler := handlers.NewOrderHandler(handlers.NewOrderStore(), deps.Services.Authz, deps.Logger)
		orderHandler.RegisterRoutes(orderGroup)

		adminGroup := api.Group("/admin")
		adminGroup.Use(authMiddleware)
		adminHandler := handlers.NewAdminHandler(deps.Services.Admin, deps.Logger)
		adminHandler.RegisterRoutes(adminGroup, func(action domain.Action) gin.HandlerFunc {
			return middleware.RequirePermission(deps.Services.Authz, adminResource, action)
		})
	}

	return r
}

func buildLoginMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.LoginThrottle == nil {
		return nil
	}
	return []gin.HandlerFunc{deps.LoginThrottle.Handler()}
}
