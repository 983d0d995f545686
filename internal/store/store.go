// Package store opens the repository.Store selected by configuration.
package store

import (
	"context"
	"fmt"
	"log/slog"

	dbfs "github.com/garnizeh/bidwright/db"
	"github.com/garnizeh/bidwright/internal/config"
	"github.com/garnizeh/bidwright/internal/db"
	"github.com/garnizeh/bidwright/internal/repository/postgres"
	"github.com/garnizeh/bidwright/internal/repository/sqlite"
	"github.com/garnizeh/bidwright/pkg/repository"
)

// Store is a repository.Store that owns its connection.
type Store interface {
	repository.Store
	Close() error
}

type sqliteStore struct {
	*sqlite.SQLiteRepo
	conn *db.DB
}

func (s *sqliteStore) Close() error { return s.conn.Close() }

type postgresStore struct {
	*postgres.PostgresRepo
}

func (s *postgresStore) Close() error {
	s.PostgresRepo.Close()
	return nil
}

// Open connects to the configured driver, applying migrations first when
// cfg.MigrateOnStart is set.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		if cfg.MigrateOnStart {
			if err := postgres.Migrate(cfg.Storage.PostgresURL, logger); err != nil {
				return nil, err
			}
		}
		repo, err := postgres.Open(ctx, cfg.Storage.PostgresURL, logger)
		if err != nil {
			return nil, err
		}
		return &postgresStore{repo}, nil

	case config.DriverSQLite, "":
		conn, err := db.New(ctx, cfg.DatabasePath, logger)
		if err != nil {
			return nil, err
		}
		if cfg.MigrateOnStart {
			if err := db.Migrate(ctx, conn, dbfs.Migrations, dbfs.SQLiteDir); err != nil {
				conn.Close()
				return nil, fmt.Errorf("migrate sqlite: %w", err)
			}
		}
		return &sqliteStore{SQLiteRepo: sqlite.New(conn, logger), conn: conn}, nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

// Migrate applies the schema for the configured driver without keeping a connection open.
func Migrate(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.Storage.Driver == config.DriverPostgres {
		return postgres.Migrate(cfg.Storage.PostgresURL, logger)
	}

	conn, err := db.New(ctx, cfg.DatabasePath, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	return db.Migrate(ctx, conn, dbfs.Migrations, dbfs.SQLiteDir)
}
