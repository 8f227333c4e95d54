// Package contract provides interfaces and shared utilities for riskdash's internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
)

// GitClient defines the git operations needed to build a hotness index from local history.
// This allows the hotness logic to be tested without needing a real git executable.
type GitClient interface {
	// Run executes a git command and returns the combined output.
	Run(ctx context.Context, repoPath string, args ...string) ([]byte, error)

	// GetRepoRoot returns the absolute path to the root of the Git repository
	// containing the given context path.
	GetRepoRoot(ctx context.Context, contextPath string) (string, error)

	// GetActivityLog returns the raw `git log --numstat` output for the window.
	GetActivityLog(ctx context.Context, repoPath string, startTime, endTime time.Time) ([]byte, error)
}

// PullRequestSource retrieves the raw corpus facts from a code host.
type PullRequestSource interface {
	// ListPullRequests returns PRs merged (or, if unmerged, created) inside the window.
	ListPullRequests(ctx context.Context, since, until time.Time, limit int) ([]schema.PullRequestRecord, error)

	// ListIssues returns issues created at or after since.
	ListIssues(ctx context.Context, since time.Time) ([]schema.Issue, error)

	// ListCommits returns default-branch commits at or after since.
	ListCommits(ctx context.Context, since time.Time) ([]schema.Commit, error)
}

// Annotator produces an externally-sourced semantic annotation for one PR.
type Annotator interface {
	Annotate(ctx context.Context, req schema.AnnotationRequest) (schema.Annotation, error)
	Model() string
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetAnnotationStore() CacheStore
	GetAnalysisStore() AnalysisStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// AnalysisStore defines the interface for tracking scoring runs and their records.
type AnalysisStore interface {
	// BeginRun creates a new scoring run and returns its unique ID
	BeginRun(runUUID string, profile schema.WeightProfile, startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the run with completion data
	EndRun(analysisID int64, endTime time.Time, totalPRs int) error

	// RecordRiskRecord stores one scored record for the run
	RecordRiskRecord(analysisID int64, record schema.RiskRecord) error

	// GetStatus returns status information about the analysis store
	GetStatus() (schema.AnalysisStatus, error)

	// GetAllRuns returns every stored run
	GetAllRuns() ([]schema.RiskRunRecord, error)

	// GetAllRecords returns every stored record
	GetAllRecords() ([]schema.RiskRecordRow, error)

	// Close closes the underlying connection
	Close() error
}
