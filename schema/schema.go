// Package schema has models, enums and default weights shared by all parts of riskdash.
package schema

import "time"

// FileChange is one file touched by a pull request.
type FileChange struct {
	Path       string `json:"path" validate:"required"`
	Added      int    `json:"add" validate:"gte=0"`
	Deleted    int    `json:"del" validate:"gte=0"`
	AddedLines []int  `json:"added_lines"` // line numbers introduced by the PR, derived from its diff
}

// AddedLineSet returns the added lines as a set for membership checks.
func (f FileChange) AddedLineSet() map[int]struct{} {
	set := make(map[int]struct{}, len(f.AddedLines))
	for _, l := range f.AddedLines {
		set[l] = struct{}{}
	}
	return set
}

// Commit is a single commit either inside a PR or observed later in the repository.
type Commit struct {
	SHA     string    `json:"sha" validate:"required"`
	Message string    `json:"message"`
	Date    time.Time `json:"date"`
}

// CiOutcome summarizes the CI runs whose head commit belongs to a PR.
type CiOutcome struct {
	Success        int     `json:"success" validate:"gte=0"`
	Failure        int     `json:"failure" validate:"gte=0"`
	DurationAvgSec float64 `json:"duration_avg_sec" validate:"gte=0"`
}

// FailureRatio is failure / max(1, success+failure).
func (c CiOutcome) FailureRatio() float64 {
	return float64(c.Failure) / float64(max(1, c.Success+c.Failure))
}

// PullRequestRecord holds the raw per-PR facts of one run. It is immutable once ingested.
type PullRequestRecord struct {
	Number      int          `json:"number" validate:"required,gt=0"`
	Title       string       `json:"title"`
	URL         string       `json:"url,omitempty"`
	Author      string       `json:"author,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	MergedAt    *time.Time   `json:"merged_at,omitempty"`
	TriageHours float64      `json:"triage_hours"`
	Files       []FileChange `json:"files" validate:"dive"`
	Commits     []Commit     `json:"commits" validate:"dive"`
	CI          CiOutcome    `json:"ci"`
}

// ReferenceTime is the merge time, or the creation time for unmerged PRs.
func (pr PullRequestRecord) ReferenceTime() time.Time {
	if pr.MergedAt != nil && !pr.MergedAt.IsZero() {
		return *pr.MergedAt
	}
	return pr.CreatedAt
}

// LineTotals returns the added and deleted line counts across all files.
func (pr PullRequestRecord) LineTotals() (added, deleted int) {
	for _, f := range pr.Files {
		added += f.Added
		deleted += f.Deleted
	}
	return added, deleted
}

// Finding is one static-analysis finding.
type Finding struct {
	Tool     string   `json:"tool"`
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	File     string   `json:"file"`
	Line     int      `json:"line"` // 0 means file-level
	RID      string   `json:"rid"`
	IsNew    bool     `json:"is_new"`
}

// Issue is a repository issue used for retrospective labeling.
type Issue struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// TouchEvent is one commit's date with the paths it touched.
type TouchEvent struct {
	Date  time.Time `json:"date"`
	Paths []string  `json:"paths"`
}

// Corpus is everything a scoring pass consumes. Optional inputs may be nil.
type Corpus struct {
	PullRequests []PullRequestRecord
	Findings     []Finding
	Hotness      map[string]int
	Issues       []Issue
	Commits      []Commit // repository commits beyond the PRs' own, for retrospective labeling
}

// FeatureSet holds the normalized per-PR features, each in [0,1].
type FeatureSet struct {
	CI       float64 `json:"ci"`
	SA       float64 `json:"sa"`
	Size     float64 `json:"size"`
	Spread   float64 `json:"spread"`
	Hot      float64 `json:"hot"`
	Semantic float64 `json:"semantic"`
}

// Get returns the value for a feature key.
func (f FeatureSet) Get(key FeatureKey) float64 {
	switch key {
	case FeatureCI:
		return f.CI
	case FeatureSA:
		return f.SA
	case FeatureSize:
		return f.Size
	case FeatureSpread:
		return f.Spread
	case FeatureHot:
		return f.Hot
	case FeatureSemantic:
		return f.Semantic
	default:
		return 0
	}
}

// RetroLabel is the heuristic retrospective regression signal.
type RetroLabel struct {
	Flagged  bool     `json:"flagged"`
	Evidence Evidence `json:"evidence"`
}

// RiskRecord is the scored, zoned output for one PR.
type RiskRecord struct {
	Number       int         `json:"number"`
	Title        string      `json:"title"`
	URL          string      `json:"url,omitempty"`
	Author       string      `json:"author,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	MergedAt     *time.Time  `json:"merged_at,omitempty"`
	FilesChanged int         `json:"files_changed"`
	LinesAdded   int         `json:"lines_added"`
	LinesDeleted int         `json:"lines_deleted"`
	TriageHours  float64     `json:"triage_hours"`
	NewFindings  int         `json:"new_findings"`
	SARaw        float64     `json:"sa_raw"`
	Features     FeatureSet  `json:"features"`
	Category     Category    `json:"category"`
	Rationale    string      `json:"rationale"`
	Provenance   Provenance  `json:"provenance"`
	Score        float64     `json:"score"`
	Zone         Zone        `json:"zone"`
	Retro        *RetroLabel `json:"retrospective_label,omitempty"`
}

// Dashboard is the document consumed by the dashboard renderer.
type Dashboard struct {
	Profile WeightProfile `json:"profile,omitempty"`
	PRs     []RiskRecord  `json:"prs"`
}

// AnnotationRequest is the structured prompt sent to an external annotator.
type AnnotationRequest struct {
	Title        string  `json:"title"`
	FilesChanged int     `json:"files"`
	LinesAdded   int     `json:"added"`
	LinesDeleted int     `json:"deleted"`
	Score        float64 `json:"score"`
}

// Annotation is a validated reply from an external annotator.
type Annotation struct {
	Category  Category `json:"category"`
	Rationale string   `json:"rationale"`
	Score     float64  `json:"score"`
}
