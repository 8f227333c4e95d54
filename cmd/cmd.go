// Package cmd defines the command-line interface for riskdash.
package cmd

import (
	"github.com/Sandroisu/ai-code-risk-analyzer/internal/contract"
	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(enrichCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(findingsCmd)
	rootCmd.AddCommand(hotnessCmd)
	rootCmd.AddCommand(weightsCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(analysisCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the analysis subcommands to the parent analysis command
	analysisCmd.AddCommand(analysisClearCmd)
	analysisCmd.AddCommand(analysisStatusCmd)
	analysisCmd.AddCommand(analysisExportCmd)
	analysisCmd.AddCommand(analysisMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("profile", string(schema.CIAwareProfile), "Weight profile: ci-aware or github-only")
	rootCmd.PersistentFlags().StringP("corpus", "c", contract.DefaultCorpusDir, "Corpus directory holding pr_enriched.json and the optional inputs")
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultResultLimit, "Number of records to display")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("hot-window", "", "Hotness window, e.g. '90 days' (default 90 days)")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Annotation cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("analysis-backend", "", "Run tracking backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("analysis-db-connect", "", "Database connection string for run tracking (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("metrics-file", "", "Write pipeline metrics in the node-exporter textfile format to this path")
	rootCmd.PersistentFlags().String("pprof", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of enrichCmd to Viper
	enrichCmd.Flags().StringP("input", "i", "", "Dashboard JSON to re-annotate instead of scoring the corpus")
	enrichCmd.Flags().String("llm-url", contract.DefaultLLMBaseURL, "OpenAI-compatible endpoint of the annotation model")
	enrichCmd.Flags().String("llm-model", contract.DefaultLLMModel, "Annotation model name")
	enrichCmd.Flags().String("llm-timeout", contract.DefaultLLMTimeout.String(), "Per-request annotation timeout")
	if err := viper.BindPFlags(enrichCmd.Flags()); err != nil {
		contract.LogFatal("Error binding enrich flags", err)
	}

	// Bind all flags of fetchCmd to Viper
	fetchCmd.Flags().String("repo", "", "GitHub repository in owner/name form")
	fetchCmd.Flags().String("since", "", "Window start in ISO8601, YYYY-MM-DD or time ago (default 180 days ago)")
	fetchCmd.Flags().String("until", "", "Window end in ISO8601, YYYY-MM-DD or time ago (default now)")
	fetchCmd.Flags().String("github-url", "", "GitHub API base URL for GitHub Enterprise")
	if err := viper.BindPFlags(fetchCmd.Flags()); err != nil {
		contract.LogFatal("Error binding fetch flags", err)
	}

	// Bind all flags of findingsCmd to Viper
	findingsCmd.Flags().String("detekt", "", "detekt checkstyle XML report")
	findingsCmd.Flags().String("baseline", "", "detekt baseline XML; listed findings are not new")
	findingsCmd.Flags().String("ktlint", "", "ktlint JSON report or JSON lines")
	if err := viper.BindPFlags(findingsCmd.Flags()); err != nil {
		contract.LogFatal("Error binding findings flags", err)
	}

	// Bind all flags of hotnessCmd to Viper
	hotnessCmd.Flags().String("now", "", "Reference instant of the hotness window (default now)")
	if err := viper.BindPFlags(hotnessCmd.Flags()); err != nil {
		contract.LogFatal("Error binding hotness flags", err)
	}

	// Bind all flags of analysisMigrateCmd to Viper
	analysisMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(analysisMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding analysis migrate flags", err)
	}
}
