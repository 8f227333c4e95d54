// Package core has core logic for ingest, scoring, enrichment and ranking.
package core

import (
	"context"
	"time"

	"github.com/Sandroisu/ai-code-risk-analyzer/core/algo"
	"github.com/Sandroisu/ai-code-risk-analyzer/core/semantic"
	"github.com/Sandroisu/ai-code-risk-analyzer/internal/contract"
	"github.com/Sandroisu/ai-code-risk-analyzer/internal/ghclient"
	"github.com/Sandroisu/ai-code-risk-analyzer/internal/metrics"
	"github.com/Sandroisu/ai-code-risk-analyzer/internal/outwriter"
	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
)

// ExecutorFunc defines the function signature for executing the different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// ExecuteScore scores the corpus directory and prints the ranked records.
// It serves as the main entry point for the 'score' command.
func ExecuteScore(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	rec := metrics.New()
	outwriter.LogRunHeader(cfg, cfg.CorpusDir)

	records, err := runScoringCore(ctx, cfg, rec)
	if err != nil {
		return err
	}
	trackRun(mgr, cfg, stageScore, start, records)
	return writeRun(cfg, records, start, rec)
}

// GetRiskRecordsResults scores the corpus directory and returns the ranked
// records without printing them.
func GetRiskRecordsResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) ([]schema.RiskRecord, time.Duration, error) {
	start := time.Now()
	records, err := runScoringCore(ctx, cfg, nil)
	if err != nil {
		return nil, 0, err
	}
	trackRun(mgr, cfg, stageScore, start, records)
	return algo.RankRecords(records, cfg.ResultLimit), time.Since(start), nil
}

// ExecuteEnrich re-annotates records through the configured LLM endpoint and
// prints the re-ranked result. The records come from --input when given,
// otherwise from scoring the corpus directory.
func ExecuteEnrich(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	annotator := semantic.NewOpenAIAnnotator(cfg.LLMBaseURL, cfg.LLMKey, cfg.LLMModel, cfg.LLMTimeout)
	return executeEnrichWith(ctx, cfg, mgr, annotator)
}

func executeEnrichWith(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, annotator contract.Annotator) error {
	start := time.Now()
	rec := metrics.New()
	source := cfg.InputFile
	if source == "" {
		source = cfg.CorpusDir
	}
	outwriter.LogRunHeader(cfg, source)

	records, err := runEnrichmentCore(ctx, cfg, mgr, annotator, rec)
	if err != nil {
		return err
	}
	trackRun(mgr, cfg, stageEnrich, start, records)
	return writeRun(cfg, records, start, rec)
}

// ExecuteFetch downloads pull requests, issues and commits from GitHub into the corpus directory.
func ExecuteFetch(ctx context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	if err := contract.ValidateFetchInputs(cfg); err != nil {
		return err
	}
	client, err := ghclient.New(cfg.Repo, cfg.GitHubToken, cfg.GitHubBaseURL, cfg.Workers)
	if err != nil {
		return err
	}
	outwriter.LogFetchHeader(cfg)
	rec := metrics.New()
	if err := fetchCorpus(ctx, cfg, client, rec); err != nil {
		return err
	}
	return rec.WriteTextfile(cfg.MetricsFile)
}

// ExecuteFindings converts detekt and ktlint reports into corpus finding files.
func ExecuteFindings(_ context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	rec := metrics.New()
	if err := convertFindings(cfg, rec); err != nil {
		return err
	}
	return rec.WriteTextfile(cfg.MetricsFile)
}

// ExecuteHotness builds the hotness index from the local git history of the repository.
func ExecuteHotness(ctx context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	return buildHotness(ctx, cfg, contract.NewLocalGitClient())
}

// ExecuteWeights displays the weight profiles and their feature weights.
// This is a static display that does not read the corpus.
func ExecuteWeights(_ context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	return outwriter.NewOutWriter().WriteWeights(cfg.ComputedWeights, cfg)
}
