// Package hotness computes rolling-window touch counts per file path.
package hotness

import (
	"context"
	"fmt"
	"time"

	"github.com/Sandroisu/ai-code-risk-analyzer/internal/contract"
	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
)

// DefaultWindow is the trailing window used when none is configured.
const DefaultWindow = 90 * 24 * time.Hour

// Index maps a file path to the number of in-window commits that touched it.
type Index map[string]int

// Build counts touches per path over events dated in [now-window, now].
// A path touched by N events counts N.
func Build(events []schema.TouchEvent, window time.Duration, now time.Time) Index {
	cutoff := now.Add(-window)
	idx := make(Index)
	for _, ev := range events {
		if ev.Date.IsZero() || ev.Date.Before(cutoff) || ev.Date.After(now) {
			continue
		}
		for _, p := range ev.Paths {
			if p == "" {
				continue
			}
			idx[p]++
		}
	}
	return idx
}

// Sum returns the hot value of a PR: the index summed over its files.
// A nil index is treated as all-zero.
func (idx Index) Sum(files []schema.FileChange) int {
	total := 0
	for _, f := range files {
		total += idx[f.Path]
	}
	return total
}

// EventsFromPullRequests derives one event per PR commit, touching every file of that PR.
func EventsFromPullRequests(prs []schema.PullRequestRecord) []schema.TouchEvent {
	var events []schema.TouchEvent
	for _, pr := range prs {
		paths := make([]string, 0, len(pr.Files))
		for _, f := range pr.Files {
			paths = append(paths, f.Path)
		}
		for _, c := range pr.Commits {
			events = append(events, schema.TouchEvent{Date: c.Date, Paths: paths})
		}
	}
	return events
}

// BuildFromGit reads the local history through the git client and builds the index.
func BuildFromGit(ctx context.Context, client contract.GitClient, repoPath string, window time.Duration, now time.Time) (Index, error) {
	out, err := client.GetActivityLog(ctx, repoPath, now.Add(-window), now)
	if err != nil {
		return nil, fmt.Errorf("reading git activity: %w", err)
	}
	return Build(ParseGitLog(out), window, now), nil
}
