package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Sandroisu/ai-code-risk-analyzer/core/hotness"
	"github.com/Sandroisu/ai-code-risk-analyzer/internal/contract"
	"github.com/Sandroisu/ai-code-risk-analyzer/internal/ingest"
	"github.com/Sandroisu/ai-code-risk-analyzer/internal/metrics"
	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
	log "github.com/sirupsen/logrus"
)

// ErrNoReports is returned by the findings command when no report was named.
var ErrNoReports = errors.New("no static-analysis report given: use --detekt and/or --ktlint")

// fetchCorpus pulls the corpus facts from the source and writes them to the corpus directory.
// The hotness index is derived from the fetched PR commits over the hotness window.
func fetchCorpus(ctx context.Context, cfg *contract.Config, src contract.PullRequestSource, rec *metrics.Recorder) error {
	start := time.Now()
	prs, err := src.ListPullRequests(ctx, cfg.StartTime, cfg.EndTime, 0)
	if err != nil {
		return fmt.Errorf("failed to fetch pull requests: %w", err)
	}
	issues, err := src.ListIssues(ctx, cfg.StartTime)
	if err != nil {
		return fmt.Errorf("failed to fetch issues: %w", err)
	}
	commits, err := src.ListCommits(ctx, cfg.StartTime)
	if err != nil {
		return fmt.Errorf("failed to fetch commits: %w", err)
	}
	rec.ObserveStage(stageFetch, start)

	hot := hotness.Build(hotness.EventsFromPullRequests(prs), cfg.HotWindow, cfg.EndTime)

	outputs := []struct {
		name string
		v    any
	}{
		{ingest.PullRequestsFile, nonNil(prs)},
		{ingest.IssuesFile, nonNil(issues)},
		{ingest.CommitsFile, nonNil(commits)},
		{ingest.HotnessFile, hot},
	}
	for _, o := range outputs {
		if err := ingest.WriteJSON(filepath.Join(cfg.CorpusDir, o.name), o.v); err != nil {
			return err
		}
	}

	log.WithFields(log.Fields{
		"component": "fetch",
		"repo":      cfg.Repo,
		"dir":       cfg.CorpusDir,
		"prs":       len(prs),
		"issues":    len(issues),
		"commits":   len(commits),
		"hot_paths": len(hot),
	}).Info("corpus fetched")
	fmt.Fprintf(os.Stderr, "💾 Wrote %d pull requests to %s\n", len(prs), cfg.CorpusDir)
	return nil
}

// nonNil keeps empty lists as [] in the written JSON.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// convertFindings parses the configured detekt and ktlint reports and writes
// one findings file per tool into the corpus directory.
func convertFindings(cfg *contract.Config, rec *metrics.Recorder) error {
	if cfg.DetektReport == "" && cfg.KtlintReport == "" {
		return ErrNoReports
	}

	if cfg.DetektReport != "" {
		findings, err := readDetekt(cfg.DetektReport, cfg.DetektBaseline, rec)
		if err != nil {
			return err
		}
		if err := writeFindings(cfg.CorpusDir, ingest.DetektFile, findings); err != nil {
			return err
		}
	}

	if cfg.KtlintReport != "" {
		data, err := os.ReadFile(cfg.KtlintReport)
		if err != nil {
			return fmt.Errorf("failed to read ktlint report: %w", err)
		}
		if err := writeFindings(cfg.CorpusDir, ingest.KtlintFile, ingest.ParseKtlint(data, rec)); err != nil {
			return err
		}
	}
	return nil
}

func readDetekt(reportPath, baselinePath string, rec *metrics.Recorder) ([]schema.Finding, error) {
	report, err := os.ReadFile(reportPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read detekt report: %w", err)
	}
	var baseline map[string]struct{}
	if baselinePath != "" {
		data, err := os.ReadFile(baselinePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read detekt baseline: %w", err)
		}
		if baseline, err = ingest.ParseBaseline(data); err != nil {
			return nil, err
		}
	}
	return ingest.ParseDetekt(report, baseline, rec)
}

func writeFindings(dir, name string, findings []schema.Finding) error {
	path := filepath.Join(dir, name)
	if err := ingest.WriteJSON(path, nonNil(findings)); err != nil {
		return err
	}
	newCount := 0
	for _, f := range findings {
		if f.IsNew {
			newCount++
		}
	}
	log.WithFields(log.Fields{
		"component": "findings",
		"file":      path,
		"findings":  len(findings),
		"new":       newCount,
	}).Info("findings written")
	fmt.Fprintf(os.Stderr, "💾 Wrote %d findings to %s\n", len(findings), path)
	return nil
}

// buildHotness writes the touch-count index of the repository's recent history.
func buildHotness(ctx context.Context, cfg *contract.Config, client contract.GitClient) error {
	if cfg.RepoPath == "" {
		return errors.New("a repository path is required")
	}
	idx, err := hotness.BuildFromGit(ctx, client, cfg.RepoPath, cfg.HotWindow, cfg.Now)
	if err != nil {
		return err
	}
	path := filepath.Join(cfg.CorpusDir, ingest.HotnessFile)
	if err := ingest.WriteJSON(path, idx); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"component": "hotness",
		"repo":      cfg.RepoPath,
		"window":    cfg.HotWindow.String(),
		"paths":     len(idx),
	}).Info("hotness index written")
	fmt.Fprintf(os.Stderr, "💾 Wrote %d hot paths to %s\n", len(idx), path)
	return nil
}
