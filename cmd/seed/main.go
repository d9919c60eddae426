// Command seed provisions the default roles, resource types, permission
// matrix, and a bootstrap administrator account.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/BloodCharry/PolicyMesh/internal/core/domain"
	"github.com/BloodCharry/PolicyMesh/internal/infra/config"
	"github.com/BloodCharry/PolicyMesh/internal/infra/database"
	"github.com/BloodCharry/PolicyMesh/internal/infra/logger"
	"github.com/BloodCharry/PolicyMesh/internal/infra/security"
	"github.com/BloodCharry/PolicyMesh/internal/repository"
	postgresrepo "github.com/BloodCharry/PolicyMesh/internal/repository/postgres"
)

var fullAccess = domain.GrantFlags{
	Create: true, Read: true, ReadAll: true,
	Update: true, UpdateAll: true,
	Delete: true, DeleteAll: true,
}

var seedRoles = map[string]string{
	"Admin":   "Full access to every resource including the permission matrix",
	"Manager": "Global read and write on business records",
	"User":    "Works with own records only",
	"Guest":   "Read-only access to own records",
}

var seedResources = map[string]string{
	"users":   "User accounts",
	"orders":  "Customer orders",
	"reports": "Business reports",
	"rules":   "Permission matrix administration",
}

// role -> resource -> flags; pairs absent here stay unset and deny by default.
var seedMatrix = map[string]map[string]domain.GrantFlags{
	"Admin": {
		"users":   fullAccess,
		"orders":  fullAccess,
		"reports": fullAccess,
		"rules":   fullAccess,
	},
	"Manager": {
		"orders":  {Create: true, Read: true, ReadAll: true, Update: true, UpdateAll: true, Delete: true},
		"reports": {Read: true, ReadAll: true},
		"users":   {Read: true, ReadAll: true},
	},
	"User": {
		"orders": {Create: true, Read: true, Update: true, Delete: true},
		"users":  {Read: true, Update: true},
	},
	"Guest": {
		"orders": {Read: true},
	},
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.App.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, zlog)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(cfg.Postgres, zlog); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	repos := postgresrepo.NewRepositories(pool)

	roleIDs := make(map[string]string, len(seedRoles))
	for name, description := range seedRoles {
		role, err := ensureRole(ctx, repos, name, description)
		if err != nil {
			log.Fatalf("failed to seed role %q: %v", name, err)
		}
		roleIDs[name] = role.ID
	}

	resourceIDs := make(map[string]string, len(seedResources))
	for key, name := range seedResources {
		resource, err := ensureResource(ctx, repos, key, name)
		if err != nil {
			log.Fatalf("failed to seed resource %q: %v", key, err)
		}
		resourceIDs[key] = resource.ID
	}

	for roleName, cells := range seedMatrix {
		for resourceKey, flags := range cells {
			grant := domain.PermissionGrant{
				ID:         uuid.NewString(),
				RoleID:     roleIDs[roleName],
				ResourceID: resourceIDs[resourceKey],
				Flags:      flags,
			}
			if err := repos.Grants.Upsert(ctx, grant); err != nil {
				log.Fatalf("failed to seed grant %s/%s: %v", roleName, resourceKey, err)
			}
		}
	}

	if err := ensureAdmin(ctx, repos, cfg, roleIDs["Admin"]); err != nil {
		log.Fatalf("failed to seed admin account: %v", err)
	}

	fmt.Println("seed complete")
}

func ensureRole(ctx context.Context, repos *postgresrepo.Repositories, name, description string) (*domain.Role, error) {
	role, err := repos.Roles.GetByName(ctx, name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	created := domain.Role{ID: uuid.NewString(), Name: name, Description: &description}
	if err := repos.Roles.Create(ctx, created); err != nil {
		return nil, err
	}
	return &created, nil
}

func ensureResource(ctx context.Context, repos *postgresrepo.Repositories, key, name string) (*domain.ResourceType, error) {
	resource, err := repos.Resources.GetByKey(ctx, key)
	if err == nil {
		return resource, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	created := domain.ResourceType{ID: uuid.NewString(), Key: key, Name: name}
	if err := repos.Resources.Create(ctx, created); err != nil {
		return nil, err
	}
	return &created, nil
}

func ensureAdmin(ctx context.Context, repos *postgresrepo.Repositories, cfg *config.AppConfig, adminRoleID string) error {
	email := os.Getenv("AUTHGATE_SEED_ADMIN_EMAIL")
	password := os.Getenv("AUTHGATE_SEED_ADMIN_PASSWORD")
	if email == "" || password == "" {
		fmt.Println("AUTHGATE_SEED_ADMIN_EMAIL/PASSWORD not set, skipping admin account")
		return nil
	}

	if _, err := repos.Principals.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	hasher, err := security.NewPasswordHasher(security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	})
	if err != nil {
		return err
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return err
	}

	return repos.Principals.Create(ctx, domain.Principal{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		RoleID:       adminRoleID,
		RegisteredAt: time.Now().UTC(),
	})
}
