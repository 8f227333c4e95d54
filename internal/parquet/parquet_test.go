package parquet

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRiskRunStructTags(t *testing.T) {
	s := parquet.SchemaOf(new(RiskRun))
	require.NotNil(t, s)

	for _, colName := range []string{
		"analysis_id", "run_uuid", "profile", "start_time", "end_time",
		"run_duration_ms", "total_prs", "config_params",
	} {
		col, ok := s.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
		require.NotNil(t, col)
	}
}

func TestRiskRecordStructTags(t *testing.T) {
	s := parquet.SchemaOf(new(RiskRecord))
	require.NotNil(t, s)

	for _, colName := range []string{
		"analysis_id", "pr_number", "title",
		"feature_ci", "feature_sa", "feature_size", "feature_spread", "feature_hot", "feature_semantic",
		"category", "provenance", "score", "zone", "retro_flagged", "retro_evidence",
	} {
		_, ok := s.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
	}
}

func readAll[T any](t *testing.T, path string) []T {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	reader := parquet.NewGenericReader[T](f)
	defer func() { _ = reader.Close() }()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	return rows[:n]
}

func TestWriteRiskRunsParquet(t *testing.T) {
	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Second)
	duration := int64(3000)
	total := int64(12)
	params := `{"profile":"ci-aware"}`

	runs := ConvertRiskRunRecords([]schema.RiskRunRecord{
		{AnalysisID: 1, RunUUID: "a", Profile: "ci-aware", StartTime: start, EndTime: &end, RunDurationMs: &duration, TotalPRs: &total, ConfigParams: &params},
		{AnalysisID: 2, RunUUID: "b", Profile: "github-only", StartTime: start},
	})

	path := filepath.Join(t.TempDir(), "runs.parquet")
	require.NoError(t, WriteRiskRunsParquet(runs, path))

	got := readAll[RiskRun](t, path)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].RunUUID)
	require.NotNil(t, got[0].TotalPRs)
	assert.Equal(t, int64(12), *got[0].TotalPRs)
	assert.True(t, start.Equal(got[0].StartTime))
	assert.Nil(t, got[1].EndTime)
	assert.Nil(t, got[1].ConfigParams)
}

func TestWriteRiskRecordsParquet(t *testing.T) {
	records := []schema.RiskRecord{
		{Number: 7, Title: "Rotate token", Category: schema.CategorySecurity, Provenance: schema.LLMProvenance,
			Score: 0.81, Zone: schema.HighZone, Features: schema.FeatureSet{Size: 1, Semantic: 0.9},
			Retro: &schema.RetroLabel{Flagged: true, Evidence: schema.CommitEvidence}},
		{Number: 8, Title: "Docs", Category: schema.CategoryGeneral, Provenance: schema.RuleProvenance, Zone: schema.MidZone},
	}

	path := filepath.Join(t.TempDir(), "records.parquet")
	require.NoError(t, WriteRiskRecordsParquet(FromRiskRecords(3, records), path))

	got := readAll[RiskRecord](t, path)
	require.Len(t, got, 2)
	assert.Equal(t, RiskRecord{
		AnalysisID: 3, PRNumber: 7, Title: "Rotate token", FeatureSize: 1, FeatureSemantic: 0.9,
		Category: "Security", Provenance: "llm", Score: 0.81, Zone: "high",
		RetroFlagged: true, RetroEvidence: "commit",
	}, got[0])
	assert.Equal(t, "none", got[1].RetroEvidence)
}

func TestWriteParquetBadPath(t *testing.T) {
	err := WriteRiskRecordsParquet(nil, filepath.Join(t.TempDir(), "missing", "x.parquet"))
	assert.Error(t, err)
}
