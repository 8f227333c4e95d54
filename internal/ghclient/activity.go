package ghclient

import (
	"context"
	"time"

	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
	"github.com/google/go-github/v62/github"
)

// ListIssues returns issues created at or after since. Pull requests, which the
// issues endpoint also serves, are left out.
func (c *Client) ListIssues(ctx context.Context, since time.Time) ([]schema.Issue, error) {
	issues, err := collect(ctx, c, "list issues", 0,
		func(opts github.ListOptions) ([]*github.Issue, *github.Response, error) {
			return c.gh.Issues.ListByRepo(ctx, c.owner, c.repo, &github.IssueListByRepoOptions{
				State: "all", Since: since, ListOptions: opts,
			})
		}, nil)
	if err != nil {
		return nil, err
	}

	out := make([]schema.Issue, 0, len(issues))
	for _, is := range issues {
		// since filters on update time; creation time is what retro labels compare.
		if is.IsPullRequest() || is.GetCreatedAt().Time.Before(since) {
			continue
		}
		out = append(out, schema.Issue{
			Number:    is.GetNumber(),
			Title:     is.GetTitle(),
			Body:      is.GetBody(),
			CreatedAt: is.GetCreatedAt().Time,
		})
	}
	return out, nil
}

// ListCommits returns default-branch commits at or after since.
func (c *Client) ListCommits(ctx context.Context, since time.Time) ([]schema.Commit, error) {
	commits, err := collect(ctx, c, "list commits", 0,
		func(opts github.ListOptions) ([]*github.RepositoryCommit, *github.Response, error) {
			return c.gh.Repositories.ListCommits(ctx, c.owner, c.repo, &github.CommitsListOptions{
				Since: since, ListOptions: opts,
			})
		}, nil)
	if err != nil {
		return nil, err
	}
	return convertCommits(commits), nil
}
