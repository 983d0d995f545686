package store_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/garnizeh/bidwright/internal/config"
	"github.com/garnizeh/bidwright/internal/models"
	"github.com/garnizeh/bidwright/internal/store"
)

func TestOpen_SQLiteMigratesAndPersists(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		DatabasePath:   filepath.Join(t.TempDir(), "bids.db"),
		MigrateOnStart: true,
		Storage:        config.StorageConfig{Driver: config.DriverSQLite},
	}

	s, err := store.Open(ctx, cfg, slog.Default())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	uid, err := s.CreateUser(ctx, &models.User{Email: "a@b.c", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// a second open must not fail on already-applied migrations
	s, err = store.Open(ctx, cfg, slog.Default())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	u, err := s.GetUserByID(ctx, uid)
	if err != nil || u == nil || u.Email != "a@b.c" {
		t.Fatalf("user did not survive reopen: %+v, %v", u, err)
	}
}

func TestMigrate_SQLite(t *testing.T) {
	cfg := &config.Config{DatabasePath: filepath.Join(t.TempDir(), "bids.db")}
	if err := store.Migrate(context.Background(), cfg, slog.Default()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if err := store.Migrate(context.Background(), cfg, slog.Default()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: "mongo"}}
	if _, err := store.Open(context.Background(), cfg, slog.Default()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
