package cmd

import (
	"fmt"
	"os"

	"github.com/kisekinoumi/mzzbscore-edit/internal/contract"
	"github.com/kisekinoumi/mzzbscore-edit/internal/history"
	"github.com/kisekinoumi/mzzbscore-edit/internal/outwriter"
	"github.com/kisekinoumi/mzzbscore-edit/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historyBackend reads and validates the backend settings without the full setup.
func historyBackend() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	backend, err := contract.ParseDatabaseBackend(viper.GetString("history-backend"))
	if err != nil {
		return "", "", err
	}
	connStr := viper.GetString("history-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// historySetup loads minimal configuration needed for history operations.
// This is used by commands that need history access without full shared setup.
func historySetup() error {
	backend, connStr, err := historyBackend()
	if err != nil {
		return err
	}

	store, err := history.NewStore(backend, connStr)
	if err != nil {
		return fmt.Errorf("failed to initialize run history: %w", err)
	}
	historyStore = store

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	cfg.Output = schema.OutputMode(viper.GetString("output"))
	cfg.SummaryFile = viper.GetString("summary-file")
	return nil
}

// historySetupWrapper wraps historySetup to provide PreRunE for history commands.
func historySetupWrapper(_ *cobra.Command, _ []string) error {
	return historySetup()
}

// historyMigrateSetup loads minimal configuration needed for migrate operations.
// This is a specialized setup that does NOT open the store or create tables,
// allowing migrations to run on a fresh database.
func historyMigrateSetup() error {
	backend, connStr, err := historyBackend()
	if err != nil {
		return err
	}

	// For SQLite backend with empty connection string, use default path
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetHistoryDBFilePath()
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	return nil
}

// historyMigrateSetupWrapper wraps historyMigrateSetup to provide PreRunE for migrate command.
func historyMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return historyMigrateSetup()
}

// historyCmd focused on run history management.
//
// Note: history subcommands use minimal initialization (historySetup) instead of
// the full sharedSetup used by ranking commands. This avoids workbook validation
// for simple history operations.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the ranking run history and its exports",
	Long: `Manage the history of ranking runs.

When enabled, every monthly, final and stats run is stored with:
- Run metadata (operation, files, timestamps, duration, configuration)
- Processed, valid and excluded counts
- The composite and per-platform ranks of every title

Supported backends: SQLite, MySQL, PostgreSQL, or None (default, disabled)

Subcommands:
  status  - Show run history statistics
  export  - Export data to Parquet for analytics
  clear   - Remove all history data
  migrate - Run database schema migrations

Examples:
  # Enable history for a run
  mzzbscore monthly --history-backend sqlite

  # Check history status
  mzzbscore history status --history-backend sqlite`,
}

// historyClearCmd clears the history data.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all ranking run history",
	Long: `Delete all stored runs and title ranks.

For SQLite the history file is removed; for MySQL and PostgreSQL the history
tables and the migration table are dropped.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  mzzbscore history export --output-file backup
  mzzbscore history clear`,
	PreRunE: historyMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := history.Clear(cfg.HistoryBackend, cfg.HistoryDBConnect, cfg.HistoryDBConnect); err != nil {
			contract.LogFatal("Failed to clear run history", err)
		}
		fmt.Println("Run history cleared successfully.")
	},
}

// historyStatusCmd shows history status.
var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run history statistics and connection details",
	Long: `Show information about the ranking run history.

Displays:
- Backend type and connection status
- Total number of runs stored
- Last and oldest run timestamps
- Distinct titles ranked across all runs
- Database table sizes

Examples:
  # Check history status
  mzzbscore history status

  # As JSON
  mzzbscore history status --output json`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := historyStore.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get run history status", err)
		}
		if err := outwriter.PrintHistoryStatus(status, cfg); err != nil {
			contract.LogFatal("Failed to print run history status", err)
		}
	},
}

// historyExportCmd exports history data to Parquet files.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export run history to Parquet for BI tools and analytics",
	Long: `Export all stored history to Parquet format for use with analytics tools.

Exports two datasets:
- <output-file>.runs.parquet - metadata about each run
- <output-file>.title_ranks.parquet - composite and platform ranks per title

Requires: --output-file parameter

Examples:
  # Export all data
  mzzbscore history export --output-file mzzb-history

  # Use with DuckDB for analysis
  duckdb -c "SELECT * FROM read_parquet('mzzb-history.title_ranks.parquet') LIMIT 10"`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := history.Export(os.Stdout, historyStore, cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export run history", err)
		}
	},
}

// historyMigrateCmd runs database migrations for the history store.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the run history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  mzzbscore history migrate --history-backend sqlite

  # Migrate to specific version
  mzzbscore history migrate --target-version 1

  # Rollback all migrations
  mzzbscore history migrate --target-version 0`,
	PreRunE: historyMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := history.Migrate(os.Stdout, cfg.HistoryBackend, cfg.HistoryDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
