package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/BloodCharry/PolicyMesh/internal/core/port"
	"github.com/BloodCharry/PolicyMesh/internal/infra/config"
	"github.com/BloodCharry/PolicyMesh/internal/infra/database"
	kafkainfra "github.com/BloodCharry/PolicyMesh/internal/infra/kafka"
	"github.com/BloodCharry/PolicyMesh/internal/infra/logger"
	redisinfra "github.com/BloodCharry/PolicyMesh/internal/infra/redis"
	"github.com/BloodCharry/PolicyMesh/internal/infra/security"
	"github.com/BloodCharry/PolicyMesh/internal/infra/telemetry"
	postgresrepo "github.com/BloodCharry/PolicyMesh/internal/repository/postgres"
	redisrepo "github.com/BloodCharry/PolicyMesh/internal/repository/redis"
	"github.com/BloodCharry/PolicyMesh/internal/transport/http/middleware"
	"github.com/BloodCharry/PolicyMesh/internal/transport/http/routes"
	"github.com/BloodCharry/PolicyMesh/internal/usecase"
)

// Application owns the wired dependency graph and the HTTP server lifecycle.
type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
	tracer   *telemetry.TracerProvider
}

// New wires configuration into a runnable application.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	var tracer *telemetry.TracerProvider
	if cfg.Telemetry.OTLPEndpoint != "" {
		tracer, err = telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
		if err != nil {
			return nil, fmt.Errorf("init telemetry: %w", err)
		}
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	if err := database.RunMigrations(cfg.Postgres, log); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	hasher, err := security.NewPasswordHasher(security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init password hasher: %w", err)
	}

	issuer, err := security.NewTokenIssuer(cfg.JWT, cfg.App.Name)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init token issuer: %w", err)
	}

	var redisClient *redisinfra.Client
	var loginThrottle *middleware.LoginThrottle
	if cfg.Redis.Enabled {
		redisClient, err = redisinfra.NewClient(cfg.Redis, log)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init redis: %w", err)
		}

		window := cfg.RateLimit.WindowDuration
		if window <= 0 {
			window = time.Minute
		}
		attempts := redisrepo.NewLoginAttemptRepository(redisClient.Client(), "authgate:login-attempts", window*2)
		loginThrottle = middleware.NewLoginThrottle(attempts, cfg.RateLimit.LoginMaxAttempts, window, log)
	} else {
		log.Info("redis disabled, login rate limiting is off")
	}

	var producer *kafkainfra.Producer
	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	authzMetrics, err := telemetry.NewAuthzMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		log.Warn("failed to register authz metrics", zap.Error(err))
	}
	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		log.Warn("failed to register http metrics", zap.Error(err))
	}

	repos := postgresrepo.NewRepositories(pool)
	validator := security.DefaultPasswordValidator()

	authService := usecase.NewAuthService(repos.Principals, repos.Roles, issuer, hasher, validator, eventPublisher, log)
	authzService := usecase.NewAuthzService(repos.Principals, repos.Grants, eventPublisher, authzMetrics, log)
	userService := usecase.NewUserService(repos.Principals, repos.Roles, eventPublisher, log)
	adminService := usecase.NewAdminService(repos.Roles, repos.Resources, repos.Grants, eventPublisher, log)

	deps := routes.Dependencies{
		Config:        cfg,
		Logger:        log,
		LoginThrottle: loginThrottle,
		HTTPMetrics:   httpMetrics,
		Database:      pool,
		Services: routes.ServiceSet{
			Auth:  authService,
			Authz: authzService,
			Users: userService,
			Admin: adminService,
		},
	}
	if redisClient != nil {
		deps.Cache = redisClient
	}

	return &Application{
		cfg:      cfg,
		engine:   routes.Register(deps),
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		producer: producer,
		tracer:   tracer,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.producer != nil {
			_ = a.producer.Close()
		}
	}()
	defer func() {
		if a.tracer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = a.tracer.Shutdown(shutdownCtx)
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting auth gateway",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
