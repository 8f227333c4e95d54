package cmd

import (
	"fmt"
	"strings"

	"github.com/Sandroisu/ai-code-risk-analyzer/internal/contract"
	"github.com/Sandroisu/ai-code-risk-analyzer/internal/iocache"
	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// loadAnalysisBackend reads and validates the run tracking backend settings.
func loadAnalysisBackend() (schema.DatabaseBackend, string, error) {
	if err := setupLogging(); err != nil {
		return "", "", err
	}
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	// Handle empty backend as NoneBackend
	backend := schema.DatabaseBackend(strings.ToLower(viper.GetString("analysis-backend")))
	if backend == "" {
		backend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid analysis backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("analysis-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// analysisSetup loads minimal configuration needed for analysis operations.
func analysisSetup() error {
	backend, connStr, err := loadAnalysisBackend()
	if err != nil {
		return err
	}

	// No annotation cache for analysis commands
	if err := iocache.InitCaching("", "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize analysis: %w", err)
	}

	cfg.AnalysisBackend = backend
	cfg.AnalysisDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")

	return nil
}

// analysisSetupWrapper wraps analysisSetup to provide PreRunE for analysis commands.
func analysisSetupWrapper(_ *cobra.Command, _ []string) error {
	return analysisSetup()
}

// analysisMigrateSetup does NOT open the store, so migrations can run on a fresh database.
func analysisMigrateSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := loadAnalysisBackend()
	if err != nil {
		return err
	}

	if backend == schema.SQLiteBackend {
		connStr = sqlitePathOr(connStr, contract.GetAnalysisDBFilePath())
	}

	cfg.AnalysisBackend = backend
	cfg.AnalysisDBConnect = connStr

	return nil
}

// analysisCmd focused on run history management.
var analysisCmd = &cobra.Command{
	Use:   "analysis",
	Short: "Manage run history tracking and exports",
	Long: `Manage the history of score and enrich runs.

When a backend is configured, every run stores:
- Run metadata (id, profile, configuration, start and end time)
- Every ranked risk record with its features, score, zone and label

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled, default)

Subcommands:
  status  - Show run tracking statistics
  export  - Export data to Parquet for analytics
  clear   - Remove all tracking data
  migrate - Run database schema migrations

Examples:
  # Check tracking status
  RISKDASH_ANALYSIS_BACKEND=sqlite riskdash analysis status

  # Export for analysis in pandas/DuckDB
  riskdash analysis export --analysis-backend sqlite --output-file history`,
}

// analysisClearCmd clears the run history.
var analysisClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all run history",
	Long: `Delete all stored runs and risk records.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  riskdash analysis export --output-file backup
  riskdash analysis clear`,
	PreRunE: analysisSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		iocache.CloseCaching()
		dbFile := sqlitePathOr(cfg.AnalysisDBConnect, contract.GetAnalysisDBFilePath())
		if err := iocache.ClearAnalysis(cfg.AnalysisBackend, dbFile, cfg.AnalysisDBConnect); err != nil {
			contract.LogFatal("Failed to clear analysis data", err)
		}
		fmt.Println("Analysis data cleared successfully.")
	},
}

// analysisStatusCmd shows run history status.
var analysisStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run tracking statistics and connection details",
	Long: `Show the backend, number of runs, newest and oldest run, number of stored
records and table sizes of the run history.

Examples:
  riskdash analysis status --analysis-backend sqlite`,
	PreRunE: analysisSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetAnalysisStore()
		if store == nil {
			fmt.Println("Run tracking is disabled. Set --analysis-backend to enable it.")
			return
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get analysis status", err)
		}
		iocache.PrintAnalysisStatus(status)
	},
}

// analysisExportCmd exports run history to Parquet files.
var analysisExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export run history to Parquet for BI tools and analytics",
	Long: `Export all stored runs and risk records to Parquet.

Writes <output-file>.risk_runs.parquet and <output-file>.risk_records.parquet.

Requires: --output-file parameter

Examples:
  riskdash analysis export --output-file history
  duckdb -c "SELECT zone, count(*) FROM read_parquet('history.risk_records.parquet') GROUP BY zone"`,
	PreRunE: analysisSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteAnalysisExport(cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export analysis data", err)
		}
	},
}

// analysisMigrateCmd runs database migrations for the run history store.
var analysisMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage schema versions of the run history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  riskdash analysis migrate --analysis-backend sqlite

  # Rollback to initial state
  riskdash analysis migrate --analysis-backend sqlite --target-version 0`,
	PreRunE: analysisMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateAnalysis(cfg.AnalysisBackend, cfg.AnalysisDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		schemaVersion, dirty, err := iocache.AnalysisSchemaVersion(cfg.AnalysisBackend, cfg.AnalysisDBConnect)
		if err != nil {
			contract.LogWarn("Cannot read schema version", err)
			return
		}
		fmt.Printf("Schema version: %d (dirty: %t)\n", schemaVersion, dirty)
	},
}
