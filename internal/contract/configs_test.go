package contract

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

// baseInput returns a raw input that passes validation.
func baseInput() *ConfigRawInput {
	return &ConfigRawInput{
		Profile:      string(schema.CIAwareProfile),
		Output:       "text",
		Precision:    DefaultPrecision,
		Limit:        10,
		Workers:      2,
		CacheBackend: string(schema.NoneBackend),
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
		check       func(*testing.T, *Config)
	}{
		{
			name: "valid minimal config",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, schema.CIAwareProfile, cfg.Profile)
				assert.Equal(t, DefaultCorpusDir, cfg.CorpusDir)
				assert.Equal(t, 90*24*time.Hour, cfg.HotWindow)
				assert.Equal(t, DefaultLLMModel, cfg.LLMModel)
				assert.Equal(t, DefaultLLMTimeout, cfg.LLMTimeout)
				assert.True(t, cfg.UseColors)
				assert.Len(t, cfg.ComputedWeights, 2)
			},
		},
		{
			name:        "missing profile",
			mutate:      func(in *ConfigRawInput) { in.Profile = "" },
			expectError: true,
		},
		{
			name:        "unknown profile",
			mutate:      func(in *ConfigRawInput) { in.Profile = "full" },
			expectError: true,
		},
		{
			name:   "profile is case-insensitive",
			mutate: func(in *ConfigRawInput) { in.Profile = "GitHub-Only" },
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, schema.GitHubOnlyProfile, cfg.Profile)
			},
		},
		{
			name:        "invalid limit (zero)",
			mutate:      func(in *ConfigRawInput) { in.Limit = 0 },
			expectError: true,
		},
		{
			name:        "invalid workers",
			mutate:      func(in *ConfigRawInput) { in.Workers = 0 },
			expectError: true,
		},
		{
			name:        "invalid precision",
			mutate:      func(in *ConfigRawInput) { in.Precision = 9 },
			expectError: true,
		},
		{
			name:        "invalid output",
			mutate:      func(in *ConfigRawInput) { in.Output = "xml" },
			expectError: true,
		},
		{
			name:        "parquet without output file",
			mutate:      func(in *ConfigRawInput) { in.Output = "parquet" },
			expectError: true,
		},
		{
			name:        "invalid color",
			mutate:      func(in *ConfigRawInput) { in.Color = "sometimes" },
			expectError: true,
		},
		{
			name:   "custom hot window",
			mutate: func(in *ConfigRawInput) { in.HotWindow = "30 days" },
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 30*24*time.Hour, cfg.HotWindow)
			},
		},
		{
			name:        "invalid hot window",
			mutate:      func(in *ConfigRawInput) { in.HotWindow = "soon" },
			expectError: true,
		},
		{
			name: "absolute and date-only window",
			mutate: func(in *ConfigRawInput) {
				in.Since = "2025-01-01"
				in.Until = "2025-03-01T00:00:00Z"
				in.Now = "2025-03-01T00:00:00Z"
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), cfg.StartTime)
				assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), cfg.EndTime)
				assert.Equal(t, cfg.EndTime, cfg.Now)
			},
		},
		{
			name: "since after until",
			mutate: func(in *ConfigRawInput) {
				in.Since = "2025-05-01"
				in.Until = "2025-01-01"
			},
			expectError: true,
		},
		{
			name:        "invalid llm timeout",
			mutate:      func(in *ConfigRawInput) { in.LLMTimeout = "-3s" },
			expectError: true,
		},
		{
			name:   "llm url trailing slash trimmed",
			mutate: func(in *ConfigRawInput) { in.LLMURL = "http://localhost:11434/v1/" },
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "http://localhost:11434/v1", cfg.LLMBaseURL)
			},
		},
		{
			name:        "invalid cache backend",
			mutate:      func(in *ConfigRawInput) { in.CacheBackend = "redis" },
			expectError: true,
		},
		{
			name: "mysql backend without dsn",
			mutate: func(in *ConfigRawInput) {
				in.CacheBackend = string(schema.MySQLBackend)
			},
			expectError: true,
		},
		{
			name: "sqlite stores sharing a file",
			mutate: func(in *ConfigRawInput) {
				in.CacheBackend = string(schema.SQLiteBackend)
				in.AnalysisBackend = string(schema.SQLiteBackend)
				in.CacheDBConnect = "/tmp/same.db"
				in.AnalysisDBConnect = "/tmp/same.db"
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := baseInput()
			if tt.mutate != nil {
				tt.mutate(input)
			}
			cfg := &Config{}
			err := ProcessAndValidate(context.Background(), cfg, nil, input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestProcessAndValidateProfileErrors(t *testing.T) {
	input := baseInput()
	input.Profile = ""
	err := ProcessAndValidate(context.Background(), &Config{}, nil, input)
	assert.ErrorIs(t, err, schema.ErrUnknownProfile)
}

func TestProcessAndValidateResolvesRepo(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	client := new(MockGitClient)
	client.On("GetRepoRoot", ctx, filepath.Clean(dir)).Return("/mock/repo/root", nil)

	input := baseInput()
	input.RepoPathStr = dir
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(ctx, cfg, client, input))
	assert.Equal(t, "/mock/repo/root", cfg.RepoPath)
	client.AssertExpectations(t)
}

func TestProcessWeightsRawInput(t *testing.T) {
	t.Run("valid override", func(t *testing.T) {
		weights, err := ProcessWeightsRawInput(WeightsRawInput{
			GitHubOnly: &ProfileWeightsRaw{Size: ptr(0.5), Spread: ptr(0.2), Hot: ptr(0.1), Semantic: ptr(0.2)},
		}, true)
		require.NoError(t, err)
		assert.Equal(t, 0.5, weights[schema.GitHubOnlyProfile][schema.FeatureSize])
		assert.NotContains(t, weights, schema.CIAwareProfile)
	})

	t.Run("sum must be one", func(t *testing.T) {
		_, err := ProcessWeightsRawInput(WeightsRawInput{
			CIAware: &ProfileWeightsRaw{CI: ptr(0.5), SA: ptr(0.6)},
		}, true)
		assert.Error(t, err)
	})

	t.Run("sum check can be skipped", func(t *testing.T) {
		weights, err := ProcessWeightsRawInput(WeightsRawInput{
			CIAware: &ProfileWeightsRaw{CI: ptr(0.5)},
		}, false)
		require.NoError(t, err)
		assert.Equal(t, map[schema.FeatureKey]float64{schema.FeatureCI: 0.5}, weights[schema.CIAwareProfile])
	})

	t.Run("negative weight rejected", func(t *testing.T) {
		_, err := ProcessWeightsRawInput(WeightsRawInput{
			CIAware: &ProfileWeightsRaw{CI: ptr(1.2), SA: ptr(-0.2)},
		}, true)
		assert.Error(t, err)
	})

	t.Run("empty profile ignored", func(t *testing.T) {
		weights, err := ProcessWeightsRawInput(WeightsRawInput{CIAware: &ProfileWeightsRaw{}}, true)
		require.NoError(t, err)
		assert.Empty(t, weights)
	})
}

func TestCustomWeightsReplaceDefaults(t *testing.T) {
	input := baseInput()
	input.Profile = string(schema.GitHubOnlyProfile)
	input.Weights.GitHubOnly = &ProfileWeightsRaw{Size: ptr(0.7), Spread: ptr(0.3)}

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(context.Background(), cfg, nil, input))

	active, err := cfg.ActiveWeights()
	require.NoError(t, err)
	assert.Equal(t, map[schema.FeatureKey]float64{schema.FeatureSize: 0.7, schema.FeatureSpread: 0.3}, active)

	defaults, err := schema.GetDefaultWeights(schema.CIAwareProfile)
	require.NoError(t, err)
	assert.Equal(t, defaults, cfg.ComputedWeights[schema.CIAwareProfile])
}

func TestActiveWeightsUnknownProfile(t *testing.T) {
	cfg := &Config{Profile: "nope"}
	_, err := cfg.ActiveWeights()
	assert.ErrorIs(t, err, schema.ErrUnknownProfile)
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{
		Profile: schema.CIAwareProfile,
		ComputedWeights: map[schema.WeightProfile]map[schema.FeatureKey]float64{
			schema.CIAwareProfile: {schema.FeatureCI: 1},
		},
	}
	clone := cfg.Clone()
	clone.ComputedWeights[schema.CIAwareProfile][schema.FeatureCI] = 0
	assert.Equal(t, 1.0, cfg.ComputedWeights[schema.CIAwareProfile][schema.FeatureCI])
	assert.Nil(t, clone.CustomWeights)
}

func TestValidateFetchInputs(t *testing.T) {
	assert.NoError(t, ValidateFetchInputs(&Config{Repo: "square/okhttp", GitHubToken: "t"}))
	assert.Error(t, ValidateFetchInputs(&Config{Repo: "okhttp", GitHubToken: "t"}))
	assert.Error(t, ValidateFetchInputs(&Config{Repo: "/okhttp", GitHubToken: "t"}))
	assert.Error(t, ValidateFetchInputs(&Config{Repo: "square/okhttp"}))
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		backend schema.DatabaseBackend
		conn    string
		wantErr bool
	}{
		{schema.SQLiteBackend, "", false},
		{schema.NoneBackend, "", false},
		{schema.MySQLBackend, "user:pass@tcp(localhost:3306)/riskdash", false},
		{schema.MySQLBackend, "user:pass@localhost/riskdash", true},
		{schema.PostgreSQLBackend, "host=localhost dbname=riskdash", false},
		{schema.PostgreSQLBackend, "host=localhost", true},
		{schema.PostgreSQLBackend, "", true},
	}
	for _, tt := range tests {
		err := ValidateDatabaseConnectionString(tt.backend, tt.conn)
		if tt.wantErr {
			assert.Error(t, err, "%s %q", tt.backend, tt.conn)
		} else {
			assert.NoError(t, err, "%s %q", tt.backend, tt.conn)
		}
	}
}

func TestProcessProfilingConfig(t *testing.T) {
	var p ProfileConfig
	require.NoError(t, ProcessProfilingConfig(&p, ""))
	assert.False(t, p.Enabled)
	require.NoError(t, ProcessProfilingConfig(&p, "riskdash"))
	assert.True(t, p.Enabled)
	assert.Equal(t, "riskdash", p.Prefix)
}
