package contract

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
)

// Default values for configuration.
const (
	DefaultHotWindowDays = 90
	DefaultFetchDays     = 180
	DefaultResultLimit   = 50
	MaxResultLimit       = 5000
	DefaultPrecision     = 4
	DefaultCorpusDir     = "data"
	DefaultLLMModel      = "llama3.1:8b-instruct-q4_K_M"
	DefaultLLMBaseURL    = "http://127.0.0.1:11434/v1"
	DefaultLLMTimeout    = 60 * time.Second
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// weightSumTolerance bounds how far a custom profile may drift from 1.0.
const weightSumTolerance = 0.001

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// ProfileWeightsRaw holds the custom weights for a single profile.
// Use float64 pointers so absent keys can be told apart from zero.
type ProfileWeightsRaw struct {
	CI       *float64 `mapstructure:"ci"`
	SA       *float64 `mapstructure:"sa"`
	Size     *float64 `mapstructure:"size"`
	Spread   *float64 `mapstructure:"spread"`
	Hot      *float64 `mapstructure:"hot"`
	Semantic *float64 `mapstructure:"semantic"`
}

// WeightsRawInput holds all custom weight definitions from the YAML config file.
type WeightsRawInput struct {
	CIAware    *ProfileWeightsRaw `mapstructure:"ci-aware"`
	GitHubOnly *ProfileWeightsRaw `mapstructure:"github-only"`
}

// Config holds the runtime configuration.
// This struct remains the "final, validated" config.
type Config struct {
	Profile   schema.WeightProfile
	CorpusDir string

	InputFile   string // dashboard document re-annotated by enrich
	Output      schema.OutputMode
	OutputFile  string
	Precision   int
	ResultLimit int
	Width       int // Terminal width override (0 = auto-detect)
	UseColors   bool

	Workers   int
	HotWindow time.Duration
	Now       time.Time // reference instant for the hotness window
	StartTime time.Time // fetch window start
	EndTime   time.Time // fetch window end

	RepoPath      string // local clone used by the hotness command
	Repo          string // owner/name on GitHub
	GitHubToken   string // Please use env var as this is plaintext
	GitHubBaseURL string

	LLMBaseURL string
	LLMModel   string
	LLMKey     string // Please use env var as this is plaintext
	LLMTimeout time.Duration

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	AnalysisBackend   schema.DatabaseBackend
	AnalysisDBConnect string // Please use env var as this is plaintext

	MetricsFile string

	DetektReport   string // checkstyle XML written by detekt
	DetektBaseline string // detekt baseline XML, optional
	KtlintReport   string // ktlint JSON lines

	// CustomWeights is a mapping of [Profile][FeatureKey] = Weight from the config file
	CustomWeights map[schema.WeightProfile]map[schema.FeatureKey]float64

	// ComputedWeights is the final weights map for each profile
	ComputedWeights map[schema.WeightProfile]map[schema.FeatureKey]float64
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	RepoPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Profile           string `mapstructure:"profile"`
	Corpus            string `mapstructure:"corpus"`
	Input             string `mapstructure:"input"`
	Output            string `mapstructure:"output"`
	OutputFile        string `mapstructure:"output-file"`
	Precision         int    `mapstructure:"precision"`
	Limit             int    `mapstructure:"limit"`
	Width             int    `mapstructure:"width"`
	Color             string `mapstructure:"color"`
	Workers           int    `mapstructure:"workers"`
	CacheBackend      string `mapstructure:"cache-backend"`
	CacheDBConnect    string `mapstructure:"cache-db-connect"`
	AnalysisBackend   string `mapstructure:"analysis-backend"`
	AnalysisDBConnect string `mapstructure:"analysis-db-connect"`
	MetricsFile       string `mapstructure:"metrics-file"`

	// --- Fields from hotness and fetch flags ---
	HotWindow string `mapstructure:"hot-window"`
	Now       string `mapstructure:"now"`
	Since     string `mapstructure:"since"`
	Until     string `mapstructure:"until"`

	// --- Fields from findings flags ---
	Detekt   string `mapstructure:"detekt"`
	Baseline string `mapstructure:"baseline"`
	Ktlint   string `mapstructure:"ktlint"`

	// --- GitHub access ---
	Repo          string `mapstructure:"repo"`
	GitHubToken   string `mapstructure:"github-token"`
	GitHubBaseURL string `mapstructure:"github-url"`

	// --- Annotation service ---
	LLMURL     string `mapstructure:"llm-url"`
	LLMModel   string `mapstructure:"llm-model"`
	LLMKey     string `mapstructure:"llm-key"`
	LLMTimeout string `mapstructure:"llm-timeout"`

	// --- Custom weights from config file ---
	Weights WeightsRawInput `mapstructure:"weights"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.CustomWeights = cloneWeightTable(c.CustomWeights)
	clone.ComputedWeights = cloneWeightTable(c.ComputedWeights)
	return &clone
}

func cloneWeightTable(in map[schema.WeightProfile]map[schema.FeatureKey]float64) map[schema.WeightProfile]map[schema.FeatureKey]float64 {
	if in == nil {
		return nil
	}
	out := make(map[schema.WeightProfile]map[schema.FeatureKey]float64, len(in))
	for profile, weights := range in {
		out[profile] = maps.Clone(weights)
	}
	return out
}

// ActiveWeights returns the computed weights of the selected profile.
func (c *Config) ActiveWeights() (map[schema.FeatureKey]float64, error) {
	weights, ok := c.ComputedWeights[c.Profile]
	if !ok {
		return nil, fmt.Errorf("%w: %q", schema.ErrUnknownProfile, c.Profile)
	}
	return maps.Clone(weights), nil
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct. The git client is only consulted when a
// repository path was given.
func ProcessAndValidate(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processTimeRange(cfg, input); err != nil {
		return err
	}
	if err := processHotWindow(cfg, input); err != nil {
		return err
	}
	if err := processAnnotator(cfg, input); err != nil {
		return err
	}
	if err := processCustomWeights(cfg, input); err != nil {
		return err
	}
	if input.RepoPathStr != "" {
		if err := resolveGitPath(ctx, cfg, client, input); err != nil {
			return err
		}
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ValidateFetchInputs checks the settings only the fetch command needs.
func ValidateFetchInputs(cfg *Config) error {
	parts := strings.Split(cfg.Repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("--repo must be in owner/name form (received %q)", cfg.Repo)
	}
	if cfg.GitHubToken == "" {
		return fmt.Errorf("a GitHub token is required: set RISKDASH_GITHUB_TOKEN or github-token in the config file")
	}
	return nil
}

// validateBackendConfigs validates cache and analysis backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return fmt.Errorf("cache backend: %w", err)
	}

	// --- Analysis Backend Validation ---
	cfg.AnalysisBackend = schema.DatabaseBackend(strings.ToLower(input.AnalysisBackend))
	if cfg.AnalysisBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.AnalysisBackend]; !ok {
		return fmt.Errorf("invalid analysis backend '%s'. must be sqlite, mysql, postgresql, none", input.AnalysisBackend)
	}
	cfg.AnalysisDBConnect = input.AnalysisDBConnect
	if err := ValidateDatabaseConnectionString(cfg.AnalysisBackend, cfg.AnalysisDBConnect); err != nil {
		return fmt.Errorf("analysis backend: %w", err)
	}

	// SQLite stores must not share a file
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.AnalysisBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		analysisDBPath := cfg.AnalysisDBConnect
		if analysisDBPath == "" {
			analysisDBPath = GetAnalysisDBFilePath()
		}
		if cacheDBPath == analysisDBPath {
			return fmt.Errorf("cache and analysis storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates all non-time fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.InputFile = strings.TrimSpace(input.Input)
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.MetricsFile = input.MetricsFile
	cfg.Repo = strings.TrimSpace(input.Repo)
	cfg.GitHubToken = strings.TrimSpace(input.GitHubToken)
	cfg.GitHubBaseURL = strings.TrimSpace(input.GitHubBaseURL)
	cfg.DetektReport = strings.TrimSpace(input.Detekt)
	cfg.DetektBaseline = strings.TrimSpace(input.Baseline)
	cfg.KtlintReport = strings.TrimSpace(input.Ktlint)

	cfg.CorpusDir = input.Corpus
	if cfg.CorpusDir == "" {
		cfg.CorpusDir = DefaultCorpusDir
	}

	cfg.UseColors = true
	if input.Color != "" {
		colors, err := ParseBoolString(input.Color)
		if err != nil {
			return fmt.Errorf("invalid --color value: %w", err)
		}
		cfg.UseColors = colors
	}

	// --- Profile Validation ---
	if strings.TrimSpace(input.Profile) == "" {
		return fmt.Errorf("%w: no weight profile selected", schema.ErrUnknownProfile)
	}
	cfg.Profile = schema.WeightProfile(strings.ToLower(strings.TrimSpace(input.Profile)))
	if _, ok := schema.ValidWeightProfiles[cfg.Profile]; !ok {
		return fmt.Errorf("%w: %q (must be ci-aware or github-only)", schema.ErrUnknownProfile, input.Profile)
	}

	// --- ResultLimit Validation ---
	if input.Limit <= 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	// --- Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > 6 {
		return fmt.Errorf("precision must be between 1 and 6 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	return validateBackendConfigs(cfg, input)
}

// parseInstant accepts RFC3339, YYYY-MM-DD or 'N [units] ago'.
func parseInstant(s string, now time.Time) (time.Time, error) {
	if t, err := time.Parse(DateTimeFormat, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return ParseRelativeTime(s, now)
}

// processTimeRange handles the fetch window and the hotness reference instant.
func processTimeRange(cfg *Config, input *ConfigRawInput) error {
	now := time.Now().UTC()
	cfg.Now = now
	cfg.EndTime = now
	cfg.StartTime = now.Add(-DefaultFetchDays * 24 * time.Hour)

	if input.Now != "" {
		t, err := parseInstant(input.Now, now)
		if err != nil {
			return fmt.Errorf("invalid --now value '%s'. Expected ISO8601, YYYY-MM-DD or 'N [units] ago'", input.Now)
		}
		cfg.Now = t
	}
	if input.Since != "" {
		t, err := parseInstant(input.Since, now)
		if err != nil {
			return fmt.Errorf("invalid --since value '%s'. Expected ISO8601, YYYY-MM-DD or 'N [units] ago'", input.Since)
		}
		cfg.StartTime = t
	}
	if input.Until != "" {
		t, err := parseInstant(input.Until, now)
		if err != nil {
			return fmt.Errorf("invalid --until value '%s'. Expected ISO8601, YYYY-MM-DD or 'N [units] ago'", input.Until)
		}
		cfg.EndTime = t
	}

	if cfg.StartTime.After(cfg.EndTime) {
		return fmt.Errorf("start time (%s) cannot be after end time (%s)", cfg.StartTime.Format(DateTimeFormat), cfg.EndTime.Format(DateTimeFormat))
	}
	return nil
}

// processHotWindow parses the hotness window, defaulting to 90 days.
func processHotWindow(cfg *Config, input *ConfigRawInput) error {
	cfg.HotWindow = DefaultHotWindowDays * 24 * time.Hour
	if input.HotWindow == "" {
		return nil
	}
	window, err := ParseLookbackDuration(input.HotWindow)
	if err != nil {
		return fmt.Errorf("invalid --hot-window: %w", err)
	}
	cfg.HotWindow = window
	return nil
}

// processAnnotator fills the annotation service settings.
func processAnnotator(cfg *Config, input *ConfigRawInput) error {
	cfg.LLMBaseURL = strings.TrimRight(strings.TrimSpace(input.LLMURL), "/")
	if cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = DefaultLLMBaseURL
	}
	cfg.LLMModel = strings.TrimSpace(input.LLMModel)
	if cfg.LLMModel == "" {
		cfg.LLMModel = DefaultLLMModel
	}
	cfg.LLMKey = input.LLMKey

	cfg.LLMTimeout = DefaultLLMTimeout
	if input.LLMTimeout != "" {
		d, err := time.ParseDuration(input.LLMTimeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid --llm-timeout '%s': must be a positive Go duration", input.LLMTimeout)
		}
		cfg.LLMTimeout = d
	}
	return nil
}

// profileWeightsToMap converts one raw profile into a weight map and its sum.
func profileWeightsToMap(raw *ProfileWeightsRaw) (map[schema.FeatureKey]float64, float64) {
	weights := make(map[schema.FeatureKey]float64)
	sum := 0.0
	add := func(key schema.FeatureKey, v *float64) {
		if v != nil {
			weights[key] = *v
			sum += *v
		}
	}
	add(schema.FeatureCI, raw.CI)
	add(schema.FeatureSA, raw.SA)
	add(schema.FeatureSize, raw.Size)
	add(schema.FeatureSpread, raw.Spread)
	add(schema.FeatureHot, raw.Hot)
	add(schema.FeatureSemantic, raw.Semantic)
	return weights, sum
}

// ProcessWeightsRawInput converts WeightsRawInput into the final weights map.
// If validateSum is true, it validates that weights for each profile sum to 1.0.
func ProcessWeightsRawInput(weights WeightsRawInput, validateSum bool) (map[schema.WeightProfile]map[schema.FeatureKey]float64, error) {
	result := make(map[schema.WeightProfile]map[schema.FeatureKey]float64)
	profileWeights := map[schema.WeightProfile]*ProfileWeightsRaw{
		schema.CIAwareProfile:    weights.CIAware,
		schema.GitHubOnlyProfile: weights.GitHubOnly,
	}

	for _, profile := range schema.AllWeightProfiles {
		raw := profileWeights[profile]
		if raw == nil {
			continue
		}
		profileMap, sum := profileWeightsToMap(raw)
		if len(profileMap) == 0 {
			continue
		}
		for key, w := range profileMap {
			if w < 0 {
				return nil, fmt.Errorf("custom weight %s for profile %s must not be negative, got %.3f", key, profile, w)
			}
		}
		if validateSum && (sum < 1-weightSumTolerance || sum > 1+weightSumTolerance) {
			return nil, fmt.Errorf("custom weights for profile %s must sum to 1.0, got %.3f", profile, sum)
		}
		result[profile] = profileMap
	}
	return result, nil
}

// processCustomWeights validates custom weights and computes the final table.
// A custom profile replaces its defaults wholesale so the sum stays at 1.0.
func processCustomWeights(cfg *Config, input *ConfigRawInput) error {
	custom, err := ProcessWeightsRawInput(input.Weights, true)
	if err != nil {
		return err
	}
	cfg.CustomWeights = custom

	cfg.ComputedWeights = make(map[schema.WeightProfile]map[schema.FeatureKey]float64)
	for _, profile := range schema.AllWeightProfiles {
		if w, ok := custom[profile]; ok {
			cfg.ComputedWeights[profile] = maps.Clone(w)
			continue
		}
		defaults, err := schema.GetDefaultWeights(profile)
		if err != nil {
			return err
		}
		cfg.ComputedWeights[profile] = defaults
	}
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// resolveGitPath resolves the repository root for the hotness command.
func resolveGitPath(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	absSearchPath, err := filepath.Abs(input.RepoPathStr)
	if err != nil {
		return err
	}
	absSearchPath = filepath.Clean(absSearchPath)

	info, statErr := os.Stat(absSearchPath)
	gitContextPath := absSearchPath
	if statErr == nil && !info.IsDir() {
		gitContextPath = filepath.Dir(absSearchPath)
	}

	gitRoot, err := client.GetRepoRoot(ctx, gitContextPath)
	if err != nil {
		return err
	}
	cfg.RepoPath = gitRoot
	return nil
}
