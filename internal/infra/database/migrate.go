package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"github.com/BloodCharry/PolicyMesh/internal/infra/config"
)

// RunMigrations applies all pending schema migrations. Returns nil when the
// schema is already current.
func RunMigrations(cfg config.PostgresSettings, log *zap.Logger) error {
	m, err := migrate.New(cfg.MigrationsPath, DSN(cfg))
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer func() {
		sourceErr, dbErr := m.Close()
		if sourceErr != nil || dbErr != nil {
			log.Error("failed to close migrate",
				zap.Error(sourceErr),
				zap.NamedError("database_error", dbErr),
			)
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	log.Info("migrations completed", zap.String("path", cfg.MigrationsPath))
	return nil
}
