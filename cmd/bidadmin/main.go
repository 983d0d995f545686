// Command bidadmin performs maintenance on the bid store: schema migration,
// SQLite backup and restore, and user bootstrap.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/garnizeh/bidwright/internal/config"
)

var (
	configPath string
	verbose    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "bidadmin",
	Short: "Administer the bid service store",
	Long: `bidadmin applies migrations, copies the SQLite database file for
backup and restore, and creates users without going through the HTTP API.

The storage driver and paths come from the same YAML config and BIDS_*
environment variables the server reads.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config YAML file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	backupCmd.Flags().StringVarP(&backupOut, "out", "o", "", "Backup file (default <database_path>.bak)")
	restoreCmd.Flags().StringVarP(&restoreFrom, "from", "f", "", "Backup file to restore (default <database_path>.bak)")
	createUserCmd.Flags().StringVar(&userEmail, "email", "", "Email of the new user")
	createUserCmd.Flags().StringVar(&userPassword, "password", "", "Password of the new user")
	_ = createUserCmd.MarkFlagRequired("email")
	_ = createUserCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(migrateCmd, backupCmd, restoreCmd, createUserCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = config.DriverSQLite
	}
	return cfg, nil
}

// storeLogger is handed to the repository layer, which logs through slog.
func storeLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
