// Package postgres is the Postgres-backed implementation of the repository
// interfaces, used when storage.driver is "postgres".
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	dbfs "github.com/garnizeh/bidwright/db"
	"github.com/garnizeh/bidwright/pkg/repository"
)

type PostgresRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ repository.Store = (*PostgresRepo)(nil)

// Open connects a pool to url and pings it.
func Open(ctx context.Context, url string, logger *slog.Logger) (*PostgresRepo, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresRepo{pool: pool, logger: logger}, nil
}

func (r *PostgresRepo) Close() {
	r.pool.Close()
}

// Migrate applies the embedded postgres migrations. A database that is
// already current is not an error.
func Migrate(url string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	src, err := iofs.New(dbfs.Migrations, dbfs.PostgresDir)
	if err != nil {
		return fmt.Errorf("open migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return fmt.Errorf("cannot create a new migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrate up: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Info("postgres migrated", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))

	return nil
}
