package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/fleetgrid/console/internal/audit"
	"github.com/fleetgrid/console/internal/config"
	"github.com/fleetgrid/console/internal/crypto"
	"github.com/fleetgrid/console/internal/repository"
)

// openAudit wires the cipher and the encrypted audit log from config.
func openAudit(cfg *config.Config) (*crypto.Cipher, *audit.Log, error) {
	cipher, err := crypto.Open(cfg.Security.KeyFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cipher: %w", err)
	}
	return cipher, audit.New(cfg.Security.AuditFile, cipher), nil
}

// openRepository builds the configured credential store backend. The
// caller owns the returned closer.
func openRepository(ctx context.Context, cfg *config.Config) (repository.Repository, func(), error) {
	switch cfg.Database.Type {
	case "postgres":
		connString := cfg.Database.Postgres.ConnString()

		slog.Info("Connecting to PostgreSQL",
			slog.String("host", cfg.Database.Postgres.Host),
			slog.String("database", cfg.Database.Postgres.Database),
		)

		repo, err := repository.NewPostgresRepository(ctx, connString)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}

		if err := runMigrations(connString); err != nil {
			repo.Close()
			return nil, nil, err
		}
		return repo, repo.Close, nil

	case "memory":
		slog.Warn("Using in-memory credential store (development only)")
		return repository.NewInMemoryRepository(), func() {}, nil

	default:
		repo, err := repository.NewSQLiteRepository(ctx, cfg.Database.SQLite.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return repo, func() { _ = repo.Close() }, nil
	}
}

func runMigrations(connString string) error {
	slog.Info("Running database migrations")
	m, err := migrate.New("file://migrations", connString)
	if err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		slog.Warn("Could not get migration version", slog.String("error", err.Error()))
		return nil
	}
	slog.Info("Database migration complete",
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
	)
	return nil
}
