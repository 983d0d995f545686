package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garnizeh/bidwright/internal/config"
	"github.com/garnizeh/bidwright/internal/store"
)

var (
	backupOut   string
	restoreFrom string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the schema for the configured storage driver",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Copy the SQLite database file to a backup",
	Args:  cobra.NoArgs,
	RunE:  runBackup,
}

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Replace the SQLite database file with a backup",
	Long: `Replace the SQLite database file with a backup.

Stop the server first: the database file is overwritten in place.`,
	Args: cobra.NoArgs,
	RunE: runRestore,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := store.Migrate(ctx, cfg, storeLogger()); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	logger.Info("database migrated", zap.String("driver", cfg.Storage.Driver))
	fmt.Fprintln(cmd.OutOrStdout(), "Database migrated successfully.")
	return nil
}

func runBackup(cmd *cobra.Command, args []string) error {
	cfg, err := sqliteConfig()
	if err != nil {
		return err
	}

	dst := backupOut
	if dst == "" {
		dst = cfg.DatabasePath + ".bak"
	}
	if err := copyFile(cfg.DatabasePath, dst); err != nil {
		return fmt.Errorf("backup error: %w", err)
	}

	logger.Info("database backed up", zap.String("src", cfg.DatabasePath), zap.String("dst", dst))
	fmt.Fprintln(cmd.OutOrStdout(), "Database backup completed.")
	return nil
}

func runRestore(cmd *cobra.Command, args []string) error {
	cfg, err := sqliteConfig()
	if err != nil {
		return err
	}

	src := restoreFrom
	if src == "" {
		src = cfg.DatabasePath + ".bak"
	}
	if err := copyFile(src, cfg.DatabasePath); err != nil {
		return fmt.Errorf("restore error: %w", err)
	}

	logger.Info("database restored", zap.String("src", src), zap.String("dst", cfg.DatabasePath))
	fmt.Fprintln(cmd.OutOrStdout(), "Database restore completed.")
	return nil
}

func sqliteConfig() (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Storage.Driver != config.DriverSQLite {
		return nil, fmt.Errorf("backup and restore only support the sqlite driver, got %q", cfg.Storage.Driver)
	}
	if cfg.DatabasePath == "" || cfg.DatabasePath == ":memory:" {
		return nil, errors.New("database_path must name a file")
	}
	return cfg, nil
}

// copyFile writes src to dst through a temporary file so a failed copy
// never leaves dst truncated.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, dst)
}
