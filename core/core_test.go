package core

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Sandroisu/ai-code-risk-analyzer/core/hotness"
	"github.com/Sandroisu/ai-code-risk-analyzer/internal/contract"
	"github.com/Sandroisu/ai-code-risk-analyzer/internal/ingest"
	"github.com/Sandroisu/ai-code-risk-analyzer/internal/iocache"
	"github.com/Sandroisu/ai-code-risk-analyzer/internal/metrics"
	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const corpusPRs = `[
  {
    "number": 1,
    "title": "Fix auth token leak",
    "created_at": "2024-03-01T09:00:00Z",
    "files": [{"path": "app/Auth.kt", "add": 100, "del": 10}, {"path": "lib/Token.kt", "add": 20, "del": 5}],
    "commits": [{"sha": "a1", "message": "fix", "date": "2024-03-01T10:00:00Z"}],
    "ci": {"success": 1, "failure": 1, "duration_avg_sec": 600}
  },
  {
    "number": 2,
    "title": "Docs",
    "created_at": "2024-03-02T09:00:00Z",
    "files": [{"path": "README.md", "add": 1, "del": 0}],
    "commits": [],
    "ci": {"success": 1, "failure": 0, "duration_avg_sec": 60}
  }
]`

func testConfig(t *testing.T) *contract.Config {
	t.Helper()
	computed := make(map[schema.WeightProfile]map[schema.FeatureKey]float64)
	for _, p := range schema.AllWeightProfiles {
		w, err := schema.GetDefaultWeights(p)
		require.NoError(t, err)
		computed[p] = w
	}
	dir := t.TempDir()
	return &contract.Config{
		Profile:         schema.CIAwareProfile,
		CorpusDir:       filepath.Join(dir, "data"),
		Output:          schema.JSONOut,
		OutputFile:      filepath.Join(dir, "out.json"),
		Precision:       4,
		ResultLimit:     10,
		Workers:         2,
		HotWindow:       hotness.DefaultWindow,
		Now:             time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		ComputedWeights: computed,
	}
}

func writeCorpus(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ingest.PullRequestsFile), []byte(corpusPRs), 0o644))
}

func readDashboard(t *testing.T, path string) schema.Dashboard {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var dash schema.Dashboard
	require.NoError(t, json.Unmarshal(data, &dash))
	return dash
}

func noStores() *iocache.MockCacheManager {
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetAnnotationStore").Return(nil)
	mgr.On("GetAnalysisStore").Return(nil)
	return mgr
}

func TestExecuteScore(t *testing.T) {
	cfg := testConfig(t)
	writeCorpus(t, cfg.CorpusDir)

	store := &iocache.MockAnalysisStore{}
	store.On("BeginRun", mock.AnythingOfType("string"), schema.CIAwareProfile, mock.Anything, mock.Anything).Return(int64(7), nil).Once()
	store.On("RecordRiskRecord", int64(7), mock.Anything).Return(nil).Twice()
	store.On("EndRun", int64(7), mock.Anything, 2).Return(nil).Once()
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetAnalysisStore").Return(store)

	require.NoError(t, ExecuteScore(context.Background(), cfg, mgr))

	dash := readDashboard(t, cfg.OutputFile)
	assert.Equal(t, schema.CIAwareProfile, dash.Profile)
	require.Len(t, dash.PRs, 2)
	assert.Equal(t, 1, dash.PRs[0].Number)
	assert.Equal(t, schema.HighZone, dash.PRs[0].Zone)
	assert.Equal(t, schema.RuleProvenance, dash.PRs[0].Provenance)
	assert.GreaterOrEqual(t, dash.PRs[0].Score, dash.PRs[1].Score)
	store.AssertExpectations(t)
}

func TestExecuteScoreLimitAndMetrics(t *testing.T) {
	cfg := testConfig(t)
	writeCorpus(t, cfg.CorpusDir)
	cfg.ResultLimit = 1
	cfg.MetricsFile = filepath.Join(t.TempDir(), "riskdash.prom")

	require.NoError(t, ExecuteScore(context.Background(), cfg, noStores()))

	dash := readDashboard(t, cfg.OutputFile)
	require.Len(t, dash.PRs, 1)
	assert.Equal(t, 1, dash.PRs[0].Number)

	data, err := os.ReadFile(cfg.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "riskdash_pipeline_prs_scored_total 2")
}

func TestExecuteScoreErrors(t *testing.T) {
	t.Run("missing corpus", func(t *testing.T) {
		cfg := testConfig(t)
		err := ExecuteScore(context.Background(), cfg, &iocache.MockCacheManager{})
		assert.ErrorIs(t, err, ingest.ErrMissingPullRequests)
	})

	t.Run("unknown profile", func(t *testing.T) {
		cfg := testConfig(t)
		writeCorpus(t, cfg.CorpusDir)
		cfg.Profile = "nope"
		err := ExecuteScore(context.Background(), cfg, &iocache.MockCacheManager{})
		assert.ErrorIs(t, err, schema.ErrUnknownProfile)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cfg := testConfig(t)
		writeCorpus(t, cfg.CorpusDir)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := ExecuteScore(ctx, cfg, &iocache.MockCacheManager{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestTrackRun(t *testing.T) {
	records := []schema.RiskRecord{{Number: 1, Score: 0.5}, {Number: 2, Score: 0.2}}
	started := time.Now()

	t.Run("no store", func(t *testing.T) {
		mgr := noStores()
		trackRun(mgr, testConfig(t), stageScore, started, records)
		mgr.AssertCalled(t, "GetAnalysisStore")
	})

	t.Run("begin fails", func(t *testing.T) {
		store := &iocache.MockAnalysisStore{}
		store.On("BeginRun", mock.Anything, mock.Anything, started, mock.Anything).Return(int64(0), errors.New("db down"))
		mgr := &iocache.MockCacheManager{}
		mgr.On("GetAnalysisStore").Return(store)

		trackRun(mgr, testConfig(t), stageScore, started, records)
		store.AssertNotCalled(t, "RecordRiskRecord", mock.Anything, mock.Anything)
		store.AssertNotCalled(t, "EndRun", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("failed records are not counted", func(t *testing.T) {
		store := &iocache.MockAnalysisStore{}
		store.On("BeginRun", mock.Anything, mock.Anything, started, mock.MatchedBy(func(p map[string]any) bool {
			return p["command"] == stageEnrich && p["llm_model"] == "m"
		})).Return(int64(3), nil)
		store.On("RecordRiskRecord", int64(3), records[0]).Return(nil)
		store.On("RecordRiskRecord", int64(3), records[1]).Return(errors.New("duplicate"))
		store.On("EndRun", int64(3), mock.Anything, 1).Return(nil)
		mgr := &iocache.MockCacheManager{}
		mgr.On("GetAnalysisStore").Return(store)

		cfg := testConfig(t)
		cfg.LLMModel = "m"
		trackRun(mgr, cfg, stageEnrich, started, records)
		store.AssertExpectations(t)
	})
}

type fakeAnnotator struct {
	ann schema.Annotation
	err error
}

func (f *fakeAnnotator) Annotate(_ context.Context, _ schema.AnnotationRequest) (schema.Annotation, error) {
	return f.ann, f.err
}

func (f *fakeAnnotator) Model() string { return "fake" }

func TestExecuteEnrichFromInput(t *testing.T) {
	cfg := testConfig(t)
	cfg.InputFile = filepath.Join(t.TempDir(), "dashboard.json")
	doc := `{"profile": "ci-aware", "prs": [
		{"number": 5, "title": "Refactor cache", "features": {"ci": 0.2, "sa": 0, "size": 0.4, "spread": 0.5, "hot": 0.1, "semantic": 0.3}, "provenance": "rule", "score": 0.3, "zone": "mid"},
		{"number": 6, "title": "Docs", "features": {"ci": 0, "sa": 0, "size": 0, "spread": 0, "hot": 0, "semantic": 0}, "provenance": "rule", "score": 0, "zone": "mid"}
	]}`
	require.NoError(t, os.WriteFile(cfg.InputFile, []byte(doc), 0o644))

	annotator := &fakeAnnotator{ann: schema.Annotation{Category: schema.CategoryPerformance, Rationale: "Cache eviction rewritten", Score: 0.9}}
	require.NoError(t, executeEnrichWith(context.Background(), cfg, noStores(), annotator))

	dash := readDashboard(t, cfg.OutputFile)
	require.Len(t, dash.PRs, 2)
	assert.Equal(t, 5, dash.PRs[0].Number)
	for _, pr := range dash.PRs {
		assert.Equal(t, schema.LLMProvenance, pr.Provenance)
		assert.Equal(t, schema.CategoryPerformance, pr.Category)
		assert.Equal(t, 0.9, pr.Features.Semantic)
	}
	assert.Equal(t, schema.HighZone, dash.PRs[0].Zone)
}

func TestExecuteEnrichFallsBackToRules(t *testing.T) {
	cfg := testConfig(t)
	writeCorpus(t, cfg.CorpusDir)

	annotator := &fakeAnnotator{err: errors.New("connection refused")}
	require.NoError(t, executeEnrichWith(context.Background(), cfg, noStores(), annotator))

	dash := readDashboard(t, cfg.OutputFile)
	require.Len(t, dash.PRs, 2)
	for _, pr := range dash.PRs {
		assert.Equal(t, schema.RuleProvenance, pr.Provenance)
	}
}

func TestExecuteEnrichInputErrors(t *testing.T) {
	t.Run("empty dashboard", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.InputFile = filepath.Join(t.TempDir(), "empty.json")
		require.NoError(t, os.WriteFile(cfg.InputFile, []byte(`{"prs": []}`), 0o644))
		err := executeEnrichWith(context.Background(), cfg, noStores(), &fakeAnnotator{})
		assert.ErrorIs(t, err, ErrNoPullRequests)
	})

	t.Run("missing file", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.InputFile = filepath.Join(t.TempDir(), "missing.json")
		err := executeEnrichWith(context.Background(), cfg, noStores(), &fakeAnnotator{})
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

type fakeSource struct {
	prs     []schema.PullRequestRecord
	issues  []schema.Issue
	commits []schema.Commit
	err     error
}

func (f *fakeSource) ListPullRequests(_ context.Context, _, _ time.Time, _ int) ([]schema.PullRequestRecord, error) {
	return f.prs, f.err
}

func (f *fakeSource) ListIssues(_ context.Context, _ time.Time) ([]schema.Issue, error) {
	return f.issues, nil
}

func (f *fakeSource) ListCommits(_ context.Context, _ time.Time) ([]schema.Commit, error) {
	return f.commits, nil
}

func TestFetchCorpus(t *testing.T) {
	cfg := testConfig(t)
	cfg.Repo = "acme/app"
	cfg.EndTime = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	cfg.StartTime = cfg.EndTime.Add(-30 * 24 * time.Hour)

	src := &fakeSource{
		prs: []schema.PullRequestRecord{{
			Number:    9,
			Title:     "Add login",
			CreatedAt: cfg.EndTime.Add(-48 * time.Hour),
			Files:     []schema.FileChange{{Path: "app/Login.kt", Added: 3}},
			Commits: []schema.Commit{
				{SHA: "a", Date: cfg.EndTime.Add(-47 * time.Hour)},
				{SHA: "b", Date: cfg.EndTime.Add(-46 * time.Hour)},
				{SHA: "old", Date: cfg.EndTime.Add(-200 * 24 * time.Hour)},
			},
		}},
	}
	require.NoError(t, fetchCorpus(context.Background(), cfg, src, metrics.New()))

	corpus, err := ingest.LoadCorpus(cfg.CorpusDir, nil)
	require.NoError(t, err)
	require.Len(t, corpus.PullRequests, 1)
	assert.Equal(t, 9, corpus.PullRequests[0].Number)
	assert.Equal(t, map[string]int{"app/Login.kt": 2}, corpus.Hotness)

	issues, err := os.ReadFile(filepath.Join(cfg.CorpusDir, ingest.IssuesFile))
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(issues))
}

func TestFetchCorpusError(t *testing.T) {
	cfg := testConfig(t)
	err := fetchCorpus(context.Background(), cfg, &fakeSource{err: errors.New("403")}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch pull requests")
	assert.NoDirExists(t, cfg.CorpusDir)
}

func TestExecuteFetchValidates(t *testing.T) {
	cfg := testConfig(t)
	cfg.Repo = "not-a-slug"
	err := ExecuteFetch(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "owner/name")
}

func TestConvertFindings(t *testing.T) {
	dir := t.TempDir()
	detekt := `<?xml version="1.0" encoding="UTF-8"?>
<checkstyle version="4.3">
  <file name="app/Auth.kt">
    <error line="11" severity="error" source="detekt.MagicNumber" id="known"/>
    <error line="12" severity="warning" source="detekt.MaxLineLength"/>
  </file>
</checkstyle>`
	baseline := `<SmellBaseline><CurrentIssues><ID>known</ID></CurrentIssues></SmellBaseline>`
	ktlint := `{"file":"app/Main.kt","line":4,"rule":"standard:indent"}` + "\n"

	cfg := testConfig(t)
	cfg.DetektReport = filepath.Join(dir, "detekt.xml")
	cfg.DetektBaseline = filepath.Join(dir, "baseline.xml")
	cfg.KtlintReport = filepath.Join(dir, "ktlint.jsonl")
	require.NoError(t, os.WriteFile(cfg.DetektReport, []byte(detekt), 0o644))
	require.NoError(t, os.WriteFile(cfg.DetektBaseline, []byte(baseline), 0o644))
	require.NoError(t, os.WriteFile(cfg.KtlintReport, []byte(ktlint), 0o644))

	require.NoError(t, ExecuteFindings(context.Background(), cfg, nil))

	data, err := os.ReadFile(filepath.Join(cfg.CorpusDir, ingest.DetektFile))
	require.NoError(t, err)
	findings, err := ingest.ParseFindings(data, nil)
	require.NoError(t, err)
	require.Len(t, findings, 2)
	assert.False(t, findings[0].IsNew)
	assert.True(t, findings[1].IsNew)
	assert.Equal(t, "app/Auth.kt:detekt.MaxLineLength:12", findings[1].RID)

	data, err = os.ReadFile(filepath.Join(cfg.CorpusDir, ingest.KtlintFile))
	require.NoError(t, err)
	findings, err = ingest.ParseFindings(data, nil)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "standard:indent", findings[0].Rule)
}

func TestConvertFindingsErrors(t *testing.T) {
	cfg := testConfig(t)
	assert.ErrorIs(t, convertFindings(cfg, nil), ErrNoReports)

	cfg.DetektReport = filepath.Join(t.TempDir(), "missing.xml")
	assert.ErrorIs(t, convertFindings(cfg, nil), os.ErrNotExist)
}

func TestBuildHotness(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.RepoPath = "/repo"
	cfg.HotWindow = 30 * 24 * time.Hour

	client := new(contract.MockGitClient)
	out := []byte("--abc|alice|" + cfg.Now.Add(-time.Hour).Format(time.RFC3339) + "\n1\t1\tcore/A.kt\n")
	client.On("GetActivityLog", ctx, "/repo", cfg.Now.Add(-cfg.HotWindow), cfg.Now).Return(out, nil).Once()

	require.NoError(t, buildHotness(ctx, cfg, client))

	data, err := os.ReadFile(filepath.Join(cfg.CorpusDir, ingest.HotnessFile))
	require.NoError(t, err)
	idx, err := ingest.ParseHotness(data)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"core/A.kt": 1}, idx)
	client.AssertExpectations(t)

	cfg.RepoPath = ""
	assert.Error(t, buildHotness(ctx, cfg, client))
}

func TestExecuteWeights(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output = schema.CSVOut
	cfg.OutputFile = filepath.Join(t.TempDir(), "weights.csv")

	require.NoError(t, ExecuteWeights(context.Background(), cfg, nil))

	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "profile,feature,weight,active")
	assert.Contains(t, string(data), "ci-aware,ci,")
	assert.Contains(t, string(data), "github-only,")
}
