package ingest

import (
	"embed"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Sandroisu/ai-code-risk-analyzer/internal/metrics"
	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//go:embed testdata
var testdata embed.FS

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := testdata.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return data
}

// corpusDir copies fixtures into a temp dir under their corpus names.
func corpusDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for target, source := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, target), fixture(t, source), 0o644))
	}
	return dir
}

func TestParsePullRequestsSkipsInvalid(t *testing.T) {
	rec := metrics.New()
	prs, err := ParsePullRequests(fixture(t, "pr_enriched.json"), rec)
	require.NoError(t, err)
	require.Len(t, prs, 2)

	pr := prs[0]
	assert.Equal(t, 101, pr.Number)
	assert.Equal(t, "dev1", pr.Author)
	require.NotNil(t, pr.MergedAt)
	assert.Equal(t, time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC), pr.MergedAt.UTC())
	assert.Len(t, pr.Files, 2)
	assert.Equal(t, []int{10, 11, 12}, pr.Files[0].AddedLines)
	assert.Equal(t, schema.CiOutcome{Success: 3, Failure: 1, DurationAvgSec: 420}, pr.CI)
	assert.InDelta(t, 3.5, pr.TriageHours, 1e-12)

	assert.Equal(t, 103, prs[1].Number)
	assert.Nil(t, prs[1].MergedAt)
}

func TestParsePullRequestsNotArray(t *testing.T) {
	_, err := ParsePullRequests([]byte(`{"prs": []}`), nil)
	assert.Error(t, err)
}

func TestParseFindings(t *testing.T) {
	found, err := ParseFindings(fixture(t, "findings.json"), nil)
	require.NoError(t, err)
	require.Len(t, found, 3)

	assert.Equal(t, schema.SeverityMajor, found[0].Severity)
	assert.True(t, found[0].IsNew)
	assert.False(t, found[1].IsNew)
	assert.Equal(t, schema.Severity(""), found[2].Severity)
	assert.True(t, found[2].IsNew, "is_new defaults to true")
	assert.Equal(t, 0, found[2].Line)
}

func TestParseFindingsNotArray(t *testing.T) {
	_, err := ParseFindings([]byte(`{}`), nil)
	assert.Error(t, err)
}

func TestParseKtlintJSONLines(t *testing.T) {
	found := ParseKtlint(fixture(t, "ktlint.jsonl"), nil)
	require.Len(t, found, 3)

	assert.Equal(t, schema.Finding{
		Tool: KtlintTool, Rule: "standard:indent", Severity: "Error",
		File: "app/src/Auth.kt", Line: 10, RID: "app/src/Auth.kt:standard:indent:10", IsNew: true,
	}, found[0])
	assert.Equal(t, "standard:no-wildcard-imports", found[1].Rule)
	assert.Equal(t, schema.SeverityMinor, found[1].Severity)
	assert.Equal(t, "ktlint", found[2].Rule)
	assert.Equal(t, "README.md:ktlint:0", found[2].RID)
}

func TestParseKtlintReporterShape(t *testing.T) {
	found := ParseKtlint(fixture(t, "ktlint_report.json"), nil)
	require.Len(t, found, 2)
	assert.Equal(t, "app/src/Main.kt", found[0].File)
	assert.Equal(t, "standard:no-blank-line-before-rbrace", found[0].Rule)
	assert.Equal(t, "ktlint", found[1].Rule)
	assert.Equal(t, 4, found[1].Line)
}

func TestParseKtlintEmpty(t *testing.T) {
	assert.Empty(t, ParseKtlint(nil, nil))
	assert.Empty(t, ParseKtlint([]byte("\n\n"), nil))
}

func TestParseDetekt(t *testing.T) {
	baseline, err := ParseBaseline(fixture(t, "detekt_baseline.xml"))
	require.NoError(t, err)
	assert.Len(t, baseline, 2)

	rec := metrics.New()
	found, err := ParseDetekt(fixture(t, "detekt.xml"), baseline, rec)
	require.NoError(t, err)
	require.Len(t, found, 4)

	assert.Equal(t, schema.Finding{
		Tool: DetektTool, Rule: "detekt.MagicNumber", Severity: "Error",
		File: "app/src/Auth.kt", Line: 11, RID: "MagicNumber:Auth.kt$Auth$42", IsNew: false,
	}, found[0])
	assert.Equal(t, "app/src/Auth.kt:detekt.MaxLineLength:12", found[1].RID)
	assert.True(t, found[1].IsNew)
	assert.Equal(t, "Warning", string(found[1].Severity))

	assert.Equal(t, "UnusedImports", found[2].Rule, "rule falls back from source")
	assert.Equal(t, schema.SeverityInfo, found[2].Severity)
	assert.False(t, found[2].IsNew, "baseline id built from file:rule:line")

	assert.Equal(t, 0, found[3].Line)
	assert.Equal(t, schema.SeverityMinor, found[3].Severity)
}

func TestParseDetektInvalid(t *testing.T) {
	_, err := ParseDetekt([]byte("<checkstyle><file"), nil, nil)
	assert.Error(t, err)
	_, err = ParseBaseline([]byte("<SmellBaseline><ID>x</SmellBaseline>"))
	assert.Error(t, err)
}

func TestParseIssues(t *testing.T) {
	issues, err := ParseIssues(fixture(t, "issues.json"), nil)
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, 7, issues[0].Number)
	assert.Equal(t, "", issues[0].Body)
	assert.True(t, issues[1].CreatedAt.IsZero())
}

func TestParseCommits(t *testing.T) {
	commits, err := ParseCommits(fixture(t, "commits.json"), nil)
	require.NoError(t, err)
	require.Len(t, commits, 3)
	assert.Equal(t, "Hotfix login", commits[1].Message)
	assert.Equal(t, time.Date(2024, 3, 7, 8, 0, 0, 0, time.UTC), commits[1].Date.UTC())
	assert.True(t, commits[2].Date.IsZero())
}

func TestLoadCorpus(t *testing.T) {
	dir := corpusDir(t, map[string]string{
		PullRequestsFile: "pr_enriched.json",
		HotnessFile:      "hot_files_90d.json",
		DetektFile:       "findings.json",
		KtlintFile:       "findings.json",
		IssuesFile:       "issues.json",
		CommitsFile:      "commits.json",
	})
	corpus, err := LoadCorpus(dir, nil)
	require.NoError(t, err)
	assert.Len(t, corpus.PullRequests, 2)
	assert.Len(t, corpus.Findings, 6, "tool files are pooled without dedup")
	assert.Equal(t, map[string]int{"app/src/Auth.kt": 5, "README.md": 1}, corpus.Hotness)
	assert.Len(t, corpus.Issues, 2)
	assert.Len(t, corpus.Commits, 3)
}

func TestLoadCorpusOptionalFilesAbsent(t *testing.T) {
	dir := corpusDir(t, map[string]string{PullRequestsFile: "pr_enriched.json"})
	corpus, err := LoadCorpus(dir, nil)
	require.NoError(t, err)
	assert.Len(t, corpus.PullRequests, 2)
	assert.Nil(t, corpus.Findings)
	assert.Nil(t, corpus.Hotness)
	assert.Nil(t, corpus.Issues)
}

func TestLoadCorpusMissingPullRequests(t *testing.T) {
	_, err := LoadCorpus(t.TempDir(), nil)
	assert.ErrorIs(t, err, ErrMissingPullRequests)
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	require.NoError(t, WriteJSON(path, map[string]int{"a": 1}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(data))
}
