package database

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/manorfm/cpa-auth/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewMigrator creates a golang-migrate instance reading SQL files from dir
func NewMigrator(cfg *config.Config, dir string) (*migrate.Migrate, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("error resolving migrations directory: %w", err)
	}

	m, err := migrate.New("file://"+filepath.ToSlash(absDir), cfg.MigrationURL())
	if err != nil {
		return nil, fmt.Errorf("error creating migrate instance: %w", err)
	}
	return m, nil
}

// RunMigrations applies all pending migrations found in dir
func RunMigrations(cfg *config.Config, dir string, log *zap.Logger) error {
	m, err := NewMigrator(cfg, dir)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error running migrations: %w", err)
	}

	log.Info("Migrations completed successfully", zap.String("dir", dir))
	return nil
}
