package ghclient

import (
	"context"
	"fmt"
	"time"

	"github.com/Sandroisu/ai-code-risk-analyzer/internal/ingest"
	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
	"github.com/google/go-github/v62/github"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ListPullRequests returns PRs merged inside [since, until], or created inside
// it when unmerged, each with its files, commits, CI outcome and triage time.
// A positive limit caps the number of PRs.
func (c *Client) ListPullRequests(ctx context.Context, since, until time.Time, limit int) ([]schema.PullRequestRecord, error) {
	// Sorted by update time: anything merged or created in the window was
	// updated at or after since, so the walk can stop at the first older PR.
	listed, err := collect(ctx, c, "list pull requests", 0,
		func(opts github.ListOptions) ([]*github.PullRequest, *github.Response, error) {
			return c.gh.PullRequests.List(ctx, c.owner, c.repo, &github.PullRequestListOptions{
				State: "all", Sort: "updated", Direction: "desc", ListOptions: opts,
			})
		},
		func(pr *github.PullRequest) bool { return !pr.GetUpdatedAt().Time.Before(since) },
	)
	if err != nil {
		return nil, err
	}

	var selected []*github.PullRequest
	for _, pr := range listed {
		if pr.GetNumber() <= 0 || !inWindow(referenceTime(pr), since, until) {
			continue
		}
		selected = append(selected, pr)
		if limit > 0 && len(selected) >= limit {
			break
		}
	}
	log.WithFields(log.Fields{
		"component": "ghclient",
		"listed":    len(listed),
		"selected":  len(selected),
	}).Info("pull requests in window")

	runs, err := c.listWorkflowRuns(ctx, since)
	if err != nil {
		return nil, err
	}

	records := make([]schema.PullRequestRecord, len(selected))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, pr := range selected {
		g.Go(func() error {
			rec, err := c.buildRecord(gctx, pr, runs)
			if err != nil {
				return fmt.Errorf("pull request #%d: %w", pr.GetNumber(), err)
			}
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

func referenceTime(pr *github.PullRequest) time.Time {
	if pr.MergedAt != nil && !pr.MergedAt.Time.IsZero() {
		return pr.MergedAt.Time
	}
	return pr.GetCreatedAt().Time
}

func inWindow(t, since, until time.Time) bool {
	return !t.Before(since) && !t.After(until)
}

// buildRecord gathers the per-PR details the scorer consumes.
func (c *Client) buildRecord(ctx context.Context, pr *github.PullRequest, runs []WorkflowRun) (schema.PullRequestRecord, error) {
	number := pr.GetNumber()
	rec := schema.PullRequestRecord{
		Number:    number,
		Title:     pr.GetTitle(),
		URL:       pr.GetHTMLURL(),
		Author:    pr.GetUser().GetLogin(),
		CreatedAt: pr.GetCreatedAt().Time,
	}
	if pr.MergedAt != nil && !pr.MergedAt.Time.IsZero() {
		merged := pr.MergedAt.Time
		rec.MergedAt = &merged
	}

	files, err := c.listFiles(ctx, number)
	if err != nil {
		return rec, err
	}
	rec.Files = files

	commits, err := collect(ctx, c, "list pull request commits", 0,
		func(opts github.ListOptions) ([]*github.RepositoryCommit, *github.Response, error) {
			return c.gh.PullRequests.ListCommits(ctx, c.owner, c.repo, number, &opts)
		}, nil)
	if err != nil {
		return rec, err
	}
	rec.Commits = convertCommits(commits)
	rec.CI = AggregateCI(runs, number, rec.Commits)

	rec.TriageHours, err = c.triageHours(ctx, number, rec.CreatedAt)
	if err != nil {
		return rec, err
	}
	return rec, nil
}

func (c *Client) listFiles(ctx context.Context, number int) ([]schema.FileChange, error) {
	files, err := collect(ctx, c, "list pull request files", 0,
		func(opts github.ListOptions) ([]*github.CommitFile, *github.Response, error) {
			return c.gh.PullRequests.ListFiles(ctx, c.owner, c.repo, number, &opts)
		}, nil)
	if err != nil {
		return nil, err
	}

	out := make([]schema.FileChange, 0, len(files))
	for _, f := range files {
		added, err := ingest.AddedLinesFromPatch(f.GetPatch())
		if err != nil {
			log.WithFields(log.Fields{
				"component": "ghclient",
				"pr":        number,
				"file":      f.GetFilename(),
			}).WithError(err).Warn("unreadable patch, no added lines recorded")
			added = nil
		}
		out = append(out, schema.FileChange{
			Path:       f.GetFilename(),
			Added:      f.GetAdditions(),
			Deleted:    f.GetDeletions(),
			AddedLines: added,
		})
	}
	return out, nil
}

func (c *Client) triageHours(ctx context.Context, number int, created time.Time) (float64, error) {
	reviews, err := collect(ctx, c, "list reviews", 0,
		func(opts github.ListOptions) ([]*github.PullRequestReview, *github.Response, error) {
			return c.gh.PullRequests.ListReviews(ctx, c.owner, c.repo, number, &opts)
		}, nil)
	if err != nil {
		return 0, err
	}
	reviewTimes := make([]time.Time, 0, len(reviews))
	for _, r := range reviews {
		reviewTimes = append(reviewTimes, r.GetSubmittedAt().Time)
	}
	if first := earliest(reviewTimes); first != nil {
		return TriageHours(created, first, nil), nil
	}

	comments, err := collect(ctx, c, "list issue comments", 0,
		func(opts github.ListOptions) ([]*github.IssueComment, *github.Response, error) {
			return c.gh.Issues.ListComments(ctx, c.owner, c.repo, number, &github.IssueListCommentsOptions{ListOptions: opts})
		}, nil)
	if err != nil {
		return 0, err
	}
	commentTimes := make([]time.Time, 0, len(comments))
	for _, cm := range comments {
		commentTimes = append(commentTimes, cm.GetCreatedAt().Time)
	}
	return TriageHours(created, nil, earliest(commentTimes)), nil
}

// listWorkflowRuns returns pull_request-triggered runs created at or after since.
func (c *Client) listWorkflowRuns(ctx context.Context, since time.Time) ([]WorkflowRun, error) {
	var out []WorkflowRun
	opts := &github.ListWorkflowRunsOptions{
		Event:       "pull_request",
		Created:     ">=" + since.UTC().Format("2006-01-02"),
		ListOptions: github.ListOptions{PerPage: pageSize, Page: 1},
	}
	for {
		var page *github.WorkflowRuns
		resp, err := c.call(ctx, "list workflow runs", func() (*github.Response, error) {
			var resp *github.Response
			var err error
			page, resp, err = c.gh.Actions.ListRepositoryWorkflowRuns(ctx, c.owner, c.repo, opts)
			return resp, err
		})
		if err != nil {
			return nil, err
		}
		for _, r := range page.WorkflowRuns {
			run := WorkflowRun{
				HeadSHA:    r.GetHeadSHA(),
				Conclusion: r.GetConclusion(),
				StartedAt:  r.GetRunStartedAt().Time,
				UpdatedAt:  r.GetUpdatedAt().Time,
			}
			for _, pr := range r.PullRequests {
				run.PRNumbers = append(run.PRNumbers, pr.GetNumber())
			}
			out = append(out, run)
		}
		if resp == nil || resp.NextPage == 0 {
			return out, nil
		}
		opts.Page = resp.NextPage
	}
}

func convertCommits(commits []*github.RepositoryCommit) []schema.Commit {
	out := make([]schema.Commit, 0, len(commits))
	for _, rc := range commits {
		out = append(out, schema.Commit{
			SHA:     rc.GetSHA(),
			Message: rc.GetCommit().GetMessage(),
			Date:    rc.GetCommit().GetAuthor().GetDate().Time,
		})
	}
	return out
}
