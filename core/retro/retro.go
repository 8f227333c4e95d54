// Package retro flags pull requests that later activity suggests caused a regression.
// The label is a heuristic oracle for offline evaluation, not a causal finding.
package retro

import (
	"fmt"
	"strings"
	"time"

	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
)

// Trigger is one inspectable entry of the trigger table.
type Trigger struct {
	Word   string
	Reason string
}

// Triggers is the ordered trigger table, matched as case-insensitive substrings.
var Triggers = []Trigger{
	{Word: "revert", Reason: "change was reverted"},
	{Word: "hotfix", Reason: "urgent follow-up fix"},
	{Word: "fix", Reason: "follow-up fix"},
	{Word: "regression", Reason: "regression reported"},
}

// MatchTrigger returns the first trigger found in text.
func MatchTrigger(text string) (Trigger, bool) {
	lower := strings.ToLower(text)
	for _, t := range Triggers {
		if strings.Contains(lower, t.Word) {
			return t, true
		}
	}
	return Trigger{}, false
}

// LaterCommits keeps commits dated strictly after ref. Undated commits are dropped.
func LaterCommits(commits []schema.Commit, ref time.Time) []schema.Commit {
	var out []schema.Commit
	for _, c := range commits {
		if c.Date.IsZero() || !c.Date.After(ref) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// LaterIssues keeps issues created strictly after ref. Issues with no creation
// date are kept since their order cannot be decided.
func LaterIssues(issues []schema.Issue, ref time.Time) []schema.Issue {
	var out []schema.Issue
	for _, is := range issues {
		if !is.CreatedAt.IsZero() && !is.CreatedAt.After(ref) {
			continue
		}
		out = append(out, is)
	}
	return out
}

// Label scans later commits, then issues referencing the PR, for trigger words.
// Callers pass activity already restricted to after the PR.
func Label(prNumber int, laterCommits []schema.Commit, issues []schema.Issue) schema.RetroLabel {
	for _, c := range laterCommits {
		if _, ok := MatchTrigger(c.Message); ok {
			return schema.RetroLabel{Flagged: true, Evidence: schema.CommitEvidence}
		}
	}

	ref := fmt.Sprintf("#%d", prNumber)
	for _, is := range issues {
		text := strings.ToLower(is.Title + " " + is.Body)
		if !strings.Contains(text, ref) {
			continue
		}
		if _, ok := MatchTrigger(text); ok {
			return schema.RetroLabel{Flagged: true, Evidence: schema.IssueEvidence}
		}
	}
	return schema.RetroLabel{Flagged: false, Evidence: schema.NoEvidence}
}

// LabelPullRequest restricts the corpus-wide commit and issue streams to activity
// after the PR's reference time and labels it. The PR's own commits never count.
func LabelPullRequest(pr schema.PullRequestRecord, commits []schema.Commit, issues []schema.Issue) schema.RetroLabel {
	ref := pr.ReferenceTime()
	own := make(map[string]struct{}, len(pr.Commits))
	for _, c := range pr.Commits {
		own[c.SHA] = struct{}{}
	}
	var later []schema.Commit
	for _, c := range LaterCommits(commits, ref) {
		if _, mine := own[c.SHA]; mine {
			continue
		}
		later = append(later, c)
	}
	return Label(pr.Number, later, LaterIssues(issues, ref))
}
