package ingest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Sandroisu/ai-code-risk-analyzer/internal/metrics"
	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"
)

var validate = validator.New()

// ParsePullRequests decodes a JSON array of pull request records. Records that
// fail to decode or validate are skipped one by one; a non-array document is an error.
func ParsePullRequests(data []byte, rec *metrics.Recorder) ([]schema.PullRequestRecord, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("pull requests must be a JSON array: %w", err)
	}
	out := make([]schema.PullRequestRecord, 0, len(raw))
	for i, item := range raw {
		var pr schema.PullRequestRecord
		if err := json.Unmarshal(item, &pr); err != nil {
			skip(rec, KindPullRequest, i, err)
			continue
		}
		if err := validate.Struct(pr); err != nil {
			skip(rec, KindPullRequest, i, err)
			continue
		}
		out = append(out, pr)
	}
	return out, nil
}

// ParseIssues decodes repository issues. GitHub's own issue payload is accepted
// as is; a null body is read as empty.
func ParseIssues(data []byte, rec *metrics.Recorder) ([]schema.Issue, error) {
	doc := gjson.ParseBytes(data)
	if !doc.IsArray() {
		return nil, fmt.Errorf("issues must be a JSON array")
	}
	var out []schema.Issue
	i := -1
	doc.ForEach(func(_, item gjson.Result) bool {
		i++
		if !item.IsObject() || !item.Get("number").Exists() {
			skip(rec, KindIssue, i, fmt.Errorf("missing number"))
			return true
		}
		created, err := parseTime(item.Get("created_at"))
		if err != nil {
			skip(rec, KindIssue, i, err)
			return true
		}
		out = append(out, schema.Issue{
			Number:    int(item.Get("number").Int()),
			Title:     item.Get("title").String(),
			Body:      item.Get("body").String(),
			CreatedAt: created,
		})
		return true
	})
	return out, nil
}

// ParseCommits decodes commits in either the flat {sha, message, date} shape or
// GitHub's {sha, commit: {message, author: {date}}} shape.
func ParseCommits(data []byte, rec *metrics.Recorder) ([]schema.Commit, error) {
	doc := gjson.ParseBytes(data)
	if !doc.IsArray() {
		return nil, fmt.Errorf("commits must be a JSON array")
	}
	var out []schema.Commit
	i := -1
	doc.ForEach(func(_, item gjson.Result) bool {
		i++
		sha := item.Get("sha").String()
		if sha == "" {
			skip(rec, KindCommit, i, fmt.Errorf("missing sha"))
			return true
		}
		message := item.Get("message")
		if !message.Exists() {
			message = item.Get("commit.message")
		}
		date := item.Get("date")
		if !date.Exists() {
			date = item.Get("commit.author.date")
		}
		ts, err := parseTime(date)
		if err != nil {
			skip(rec, KindCommit, i, err)
			return true
		}
		out = append(out, schema.Commit{SHA: sha, Message: message.String(), Date: ts})
		return true
	})
	return out, nil
}

// parseTime reads an RFC 3339 timestamp. Missing, null and empty values are the zero time.
func parseTime(v gjson.Result) (time.Time, error) {
	s := v.String()
	if !v.Exists() || v.Type == gjson.Null || s == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return ts, nil
}
