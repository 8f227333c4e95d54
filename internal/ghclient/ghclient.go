// Package ghclient reads pull requests, CI runs, issues and commits from the GitHub REST API.
package ghclient

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Sandroisu/ai-code-risk-analyzer/internal/contract"
	"github.com/google/go-github/v62/github"
	log "github.com/sirupsen/logrus"
)

const (
	// pageSize is the largest page the REST API serves.
	pageSize = 100

	// maxRetries bounds how often a rate-limited call is retried.
	maxRetries = 3

	// maxRateLimitWait caps a single wait for the rate-limit window to reset.
	maxRateLimitWait = 2 * time.Minute

	// defaultRateLimitWait is used when GitHub gives no reset hint.
	defaultRateLimitWait = 60 * time.Second
)

// Client implements contract.PullRequestSource over go-github.
type Client struct {
	gh      *github.Client
	owner   string
	repo    string
	workers int

	// sleep waits for d or until ctx is done. Tests replace it.
	sleep func(ctx context.Context, d time.Duration) error
}

var _ contract.PullRequestSource = &Client{} // Compile-time check

// New creates a client for the owner/name repository. An empty baseURL
// targets api.github.com.
func New(repoSlug, token, baseURL string, workers int) (*Client, error) {
	owner, repo, ok := strings.Cut(repoSlug, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return nil, fmt.Errorf("repository must be in owner/name form (received %q)", repoSlug)
	}

	gh := github.NewClient(nil)
	if token != "" {
		gh = gh.WithAuthToken(token)
	}
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub base URL: %w", err)
		}
		gh.BaseURL = u
	}

	if workers < 1 {
		workers = 1
	}
	return &Client{gh: gh, owner: owner, repo: repo, workers: workers, sleep: sleepCtx}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// call runs fn and retries it while GitHub reports a rate limit.
func (c *Client) call(ctx context.Context, op string, fn func() (*github.Response, error)) (*github.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := fn()
		if err == nil {
			return resp, nil
		}
		wait, limited := rateLimitWait(err, time.Now())
		if !limited || attempt >= maxRetries {
			return resp, fmt.Errorf("%s: %w", op, err)
		}
		log.WithFields(log.Fields{
			"component": "ghclient",
			"op":        op,
			"attempt":   attempt + 1,
			"wait":      wait.String(),
		}).Warn("rate limited by GitHub, waiting")
		if err := c.sleep(ctx, wait); err != nil {
			return resp, fmt.Errorf("%s: %w", op, err)
		}
	}
}

// rateLimitWait reports whether err is a rate-limit error and how long to wait.
func rateLimitWait(err error, now time.Time) (time.Duration, bool) {
	var rle *github.RateLimitError
	if errors.As(err, &rle) {
		wait := rle.Rate.Reset.Time.Sub(now) + time.Second
		if rle.Rate.Reset.Time.IsZero() || wait <= 0 {
			wait = defaultRateLimitWait
		}
		return min(wait, maxRateLimitWait), true
	}
	var abuse *github.AbuseRateLimitError
	if errors.As(err, &abuse) {
		wait := defaultRateLimitWait
		if d := abuse.GetRetryAfter(); d > 0 {
			wait = d
		}
		return min(wait, maxRateLimitWait), true
	}
	return 0, false
}

// collect walks every page of a list endpoint. A positive limit stops the
// walk once that many items are gathered; keep may end it early by returning false.
func collect[T any](ctx context.Context, c *Client, op string, limit int, list func(opts github.ListOptions) ([]T, *github.Response, error), keep func(T) bool) ([]T, error) {
	var out []T
	opts := github.ListOptions{PerPage: pageSize, Page: 1}
	for {
		var items []T
		resp, err := c.call(ctx, op, func() (*github.Response, error) {
			var resp *github.Response
			var err error
			items, resp, err = list(opts)
			return resp, err
		})
		if err != nil {
			return out, err
		}
		for _, it := range items {
			if keep != nil && !keep(it) {
				return out, nil
			}
			out = append(out, it)
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
		if resp == nil || resp.NextPage == 0 {
			return out, nil
		}
		opts.Page = resp.NextPage
	}
}
