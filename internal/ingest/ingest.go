// Package ingest reads and writes the corpus files consumed by a scoring run.
//
// A corpus directory holds:
//
//	pr_enriched.json     pull requests with files, added lines, commits and CI
//	hot_files_90d.json   path -> touch count
//	*_findings.json      static-analysis findings, one file per tool
//	issues.json          repository issues
//	commits.json         default-branch commits
//
// Only pr_enriched.json is required; every other file may be absent.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Sandroisu/ai-code-risk-analyzer/internal/metrics"
	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
	log "github.com/sirupsen/logrus"
)

// Corpus file names.
const (
	PullRequestsFile = "pr_enriched.json"
	HotnessFile      = "hot_files_90d.json"
	IssuesFile       = "issues.json"
	CommitsFile      = "commits.json"
	DetektFile       = "detekt_findings.json"
	KtlintFile       = "ktlint_findings.json"
	FindingsPattern  = "*_findings.json"
)

// Record kinds used in skip warnings and metrics.
const (
	KindPullRequest = "pull_request"
	KindFinding     = "finding"
	KindIssue       = "issue"
	KindCommit      = "commit"
)

// ErrMissingPullRequests is returned when the corpus has no pull request file.
var ErrMissingPullRequests = errors.New("pull request file not found")

// LoadCorpus reads every corpus file under dir.
func LoadCorpus(dir string, rec *metrics.Recorder) (schema.Corpus, error) {
	var corpus schema.Corpus

	prData, err := os.ReadFile(filepath.Join(dir, PullRequestsFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return corpus, fmt.Errorf("%w: %s", ErrMissingPullRequests, filepath.Join(dir, PullRequestsFile))
		}
		return corpus, fmt.Errorf("failed to read pull requests: %w", err)
	}
	corpus.PullRequests, err = ParsePullRequests(prData, rec)
	if err != nil {
		return corpus, err
	}

	findingFiles, err := filepath.Glob(filepath.Join(dir, FindingsPattern))
	if err != nil {
		return corpus, fmt.Errorf("bad findings pattern: %w", err)
	}
	sort.Strings(findingFiles)
	for _, path := range findingFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			return corpus, fmt.Errorf("failed to read findings %s: %w", path, err)
		}
		found, err := ParseFindings(data, rec)
		if err != nil {
			return corpus, fmt.Errorf("%s: %w", path, err)
		}
		corpus.Findings = append(corpus.Findings, found...)
	}

	if data, ok, err := readOptional(dir, HotnessFile); err != nil {
		return corpus, err
	} else if ok {
		if corpus.Hotness, err = ParseHotness(data); err != nil {
			return corpus, fmt.Errorf("%s: %w", HotnessFile, err)
		}
	}

	if data, ok, err := readOptional(dir, IssuesFile); err != nil {
		return corpus, err
	} else if ok {
		if corpus.Issues, err = ParseIssues(data, rec); err != nil {
			return corpus, fmt.Errorf("%s: %w", IssuesFile, err)
		}
	}

	if data, ok, err := readOptional(dir, CommitsFile); err != nil {
		return corpus, err
	} else if ok {
		if corpus.Commits, err = ParseCommits(data, rec); err != nil {
			return corpus, fmt.Errorf("%s: %w", CommitsFile, err)
		}
	}

	log.WithFields(log.Fields{
		"component": "ingest",
		"dir":       dir,
		"prs":       len(corpus.PullRequests),
		"findings":  len(corpus.Findings),
		"hot_paths": len(corpus.Hotness),
		"issues":    len(corpus.Issues),
		"commits":   len(corpus.Commits),
	}).Debug("corpus loaded")
	return corpus, nil
}

func readOptional(dir, name string) ([]byte, bool, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, true, nil
}

// ParseHotness decodes a path -> count object.
func ParseHotness(data []byte) (map[string]int, error) {
	var idx map[string]int
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("invalid hotness index: %w", err)
	}
	return idx, nil
}

// WriteJSON writes v as indented JSON, creating parent directories.
func WriteJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func skip(rec *metrics.Recorder, kind string, index int, reason error) {
	rec.IncSkipped(kind)
	log.WithFields(log.Fields{"component": "ingest", "kind": kind, "index": index}).
		WithError(reason).Warn("skipping malformed record")
}
