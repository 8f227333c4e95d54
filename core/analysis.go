package core

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Sandroisu/ai-code-risk-analyzer/core/algo"
	"github.com/Sandroisu/ai-code-risk-analyzer/core/semantic"
	"github.com/Sandroisu/ai-code-risk-analyzer/internal/contract"
	"github.com/Sandroisu/ai-code-risk-analyzer/internal/ingest"
	"github.com/Sandroisu/ai-code-risk-analyzer/internal/metrics"
	"github.com/Sandroisu/ai-code-risk-analyzer/internal/outwriter"
	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Stage names reported to the metrics recorder.
const (
	stageIngest = "ingest"
	stageScore  = "score"
	stageEnrich = "enrich"
	stageFetch  = "fetch"
)

// runScoringCore performs the common ingest and scoring steps over the corpus directory.
func runScoringCore(ctx context.Context, cfg *contract.Config, rec *metrics.Recorder) ([]schema.RiskRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	weights, err := cfg.ActiveWeights()
	if err != nil {
		return nil, err
	}

	// --- 1. Ingest Phase ---
	start := time.Now()
	corpus, err := ingest.LoadCorpus(cfg.CorpusDir, rec)
	if err != nil {
		return nil, err
	}
	rec.ObserveStage(stageIngest, start)

	// --- 2. Scoring Phase ---
	start = time.Now()
	records, err := BuildRecords(corpus, weights)
	if err != nil {
		return nil, err
	}
	rec.ObserveStage(stageScore, start)
	rec.AddScored(len(records))
	for _, r := range records {
		rec.AddAttributed(r.NewFindings)
	}
	return records, nil
}

// runEnrichmentCore annotates records through the given annotator and re-zones them.
// Without an input file the corpus is scored first.
func runEnrichmentCore(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, annotator contract.Annotator, rec *metrics.Recorder) ([]schema.RiskRecord, error) {
	records, err := loadEnrichmentInput(ctx, cfg, rec)
	if err != nil {
		return nil, err
	}
	weights, err := cfg.ActiveWeights()
	if err != nil {
		return nil, err
	}

	var cache contract.CacheStore
	if mgr != nil {
		cache = mgr.GetAnnotationStore()
	}

	start := time.Now()
	enricher := &semantic.Enricher{
		Annotator: annotator,
		Cache:     cache,
		Weights:   weights,
		Workers:   cfg.Workers,
		Metrics:   rec,
	}
	enriched, stats, err := enricher.Enrich(ctx, records)
	if err != nil {
		return nil, err
	}
	rec.ObserveStage(stageEnrich, start)
	log.WithFields(log.Fields{
		"component":  "enrich",
		"model":      annotator.Model(),
		"annotated":  stats.Annotated,
		"fallbacks":  stats.Fallbacks,
		"cache_hits": stats.CacheHits,
	}).Info("enrichment finished")
	return enriched, nil
}

// loadEnrichmentInput reads the dashboard document named by the config, or scores the corpus.
func loadEnrichmentInput(ctx context.Context, cfg *contract.Config, rec *metrics.Recorder) ([]schema.RiskRecord, error) {
	if cfg.InputFile == "" {
		return runScoringCore(ctx, cfg, rec)
	}
	data, err := os.ReadFile(cfg.InputFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", cfg.InputFile, err)
	}
	dash, err := ingest.ParseDashboard(data, rec)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.InputFile, err)
	}
	if dash.Profile != "" && dash.Profile != cfg.Profile {
		log.WithFields(log.Fields{
			"component": "enrich",
			"document":  dash.Profile,
			"selected":  cfg.Profile,
		}).Warn("dashboard was scored with another profile, rescoring with the selected one")
	}
	if len(dash.PRs) == 0 {
		return nil, ErrNoPullRequests
	}
	return dash.PRs, nil
}

// trackRun persists a finished run and its records when an analysis store is configured.
// Tracking failures are warnings; the run output is never held back by them.
func trackRun(mgr contract.CacheManager, cfg *contract.Config, command string, started time.Time, records []schema.RiskRecord) {
	if mgr == nil {
		return
	}
	store := mgr.GetAnalysisStore()
	if store == nil {
		return
	}
	configParams := map[string]any{
		"command":      command,
		"corpus_dir":   cfg.CorpusDir,
		"input_file":   cfg.InputFile,
		"hot_window":   cfg.HotWindow.String(),
		"workers":      cfg.Workers,
		"result_limit": cfg.ResultLimit,
	}
	if command == stageEnrich {
		configParams["llm_model"] = cfg.LLMModel
	}

	analysisID, err := store.BeginRun(uuid.NewString(), cfg.Profile, started, configParams)
	if err != nil {
		contract.LogWarn("Analysis tracking initialization failed", err)
		return
	}
	stored := 0
	for _, r := range records {
		if err := store.RecordRiskRecord(analysisID, r); err != nil {
			contract.LogWarn(fmt.Sprintf("Failed to store record for PR #%d", r.Number), err)
			continue
		}
		stored++
	}
	if err := store.EndRun(analysisID, time.Now(), stored); err != nil {
		contract.LogWarn("Failed to finalize analysis tracking", err)
	}
}

// writeRun prints the ranked records and flushes the metrics textfile.
func writeRun(cfg *contract.Config, records []schema.RiskRecord, started time.Time, rec *metrics.Recorder) error {
	ranked := algo.RankRecords(records, cfg.ResultLimit)
	if err := outwriter.NewOutWriter().WriteRecords(ranked, cfg, time.Since(started)); err != nil {
		return err
	}
	return rec.WriteTextfile(cfg.MetricsFile)
}
