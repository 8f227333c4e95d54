package core

import (
	"errors"
	"strings"

	"github.com/Sandroisu/ai-code-risk-analyzer/core/algo"
	"github.com/Sandroisu/ai-code-risk-analyzer/core/attrib"
	"github.com/Sandroisu/ai-code-risk-analyzer/core/hotness"
	"github.com/Sandroisu/ai-code-risk-analyzer/core/retro"
	"github.com/Sandroisu/ai-code-risk-analyzer/core/semantic"
	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
	log "github.com/sirupsen/logrus"
)

// ErrNoPullRequests is returned when a batch has nothing to score.
var ErrNoPullRequests = errors.New("no pull requests to score")

// rootSegment is the spread bucket of files at the repository root.
const rootSegment = "root"

// rawFeatures are the per-PR values before normalization.
type rawFeatures struct {
	failRatio float64
	duration  float64
	size      float64
	spread    float64
	sa        float64
	hot       float64
}

// BuildRecords scores a batch in one single-threaded pass: raw feature
// extraction, bounds, normalization, rule semantics, score, zone and
// retrospective label, then the score-descending sort.
func BuildRecords(corpus schema.Corpus, weights map[schema.FeatureKey]float64) ([]schema.RiskRecord, error) {
	if len(corpus.PullRequests) == 0 {
		return nil, ErrNoPullRequests
	}
	if len(weights) == 0 {
		return nil, schema.ErrUnknownProfile
	}

	prs := make([]schema.PullRequestRecord, 0, len(corpus.PullRequests))
	for _, pr := range corpus.PullRequests {
		if pr.Number <= 0 {
			log.WithField("component", "pipeline").WithField("title", pr.Title).Warn("skipping pull request without a number")
			continue
		}
		prs = append(prs, pr)
	}
	if len(prs) == 0 {
		return nil, ErrNoPullRequests
	}

	hot := hotness.Index(corpus.Hotness)
	raws := make([]rawFeatures, len(prs))
	records := make([]schema.RiskRecord, len(prs))
	for i, pr := range prs {
		attributed := attrib.Attribute(pr.Files, corpus.Findings)
		added, deleted := pr.LineTotals()
		raws[i] = rawFeatures{
			failRatio: pr.CI.FailureRatio(),
			duration:  pr.CI.DurationAvgSec,
			size:      float64(added + deleted),
			spread:    float64(Spread(pr.Files)),
			sa:        attrib.WeightedCount(attributed),
			hot:       float64(hot.Sum(pr.Files)),
		}
		records[i] = schema.RiskRecord{
			Number:       pr.Number,
			Title:        pr.Title,
			URL:          pr.URL,
			Author:       pr.Author,
			CreatedAt:    pr.CreatedAt,
			MergedAt:     pr.MergedAt,
			FilesChanged: len(pr.Files),
			LinesAdded:   added,
			LinesDeleted: deleted,
			TriageHours:  pr.TriageHours,
			NewFindings:  attrib.CountNew(attributed),
			SARaw:        raws[i].sa,
		}
	}

	// Bounds are computed once per batch and shared by every record.
	failB := algo.ComputeBounds(column(raws, func(r rawFeatures) float64 { return r.failRatio }))
	durB := algo.ComputeBounds(column(raws, func(r rawFeatures) float64 { return r.duration }))
	sizeB := algo.ComputeBounds(column(raws, func(r rawFeatures) float64 { return r.size }))
	spreadB := algo.ComputeBounds(column(raws, func(r rawFeatures) float64 { return r.spread }))
	saB := algo.ComputeBounds(column(raws, func(r rawFeatures) float64 { return r.sa }))
	hotB := algo.ComputeBounds(column(raws, func(r rawFeatures) float64 { return r.hot }))

	commits := allCommits(corpus)
	for i := range records {
		r := raws[i]
		rec := &records[i]
		rec.Features = schema.FeatureSet{
			CI:     algo.CIFeature(failB.Normalize(r.failRatio), durB.Normalize(r.duration)),
			SA:     saB.Normalize(r.sa),
			Size:   sizeB.Normalize(r.size),
			Spread: spreadB.Normalize(r.spread),
			Hot:    hotB.Normalize(r.hot),
		}
		sem := semantic.RuleResult(rec.Title, rec.Features.Size, rec.Features.Spread)
		rec.Features.Semantic = sem.Score
		rec.Category = sem.Category
		rec.Provenance = sem.Provenance
		rec.Score = algo.Round(algo.ComputeScore(rec.Features, weights), semantic.ScorePrecision)
		rec.Rationale = semantic.SummaryText(rec.Title, rec.FilesChanged, rec.LinesAdded, rec.LinesDeleted, rec.Score)

		label := retro.LabelPullRequest(prs[i], commits, corpus.Issues)
		rec.Retro = &label
	}

	algo.ClassifyZones(records)
	algo.SortByScore(records)
	return records, nil
}

// Spread counts the distinct first path segments of a PR's files. Files at the
// repository root share one "root" bucket.
func Spread(files []schema.FileChange) int {
	seen := make(map[string]struct{}, len(files))
	for _, f := range files {
		p := strings.TrimPrefix(f.Path, "/")
		if p == "" {
			continue
		}
		seg, _, nested := strings.Cut(p, "/")
		if !nested {
			seg = rootSegment
		}
		seen[seg] = struct{}{}
	}
	return len(seen)
}

func column(raws []rawFeatures, get func(rawFeatures) float64) []float64 {
	out := make([]float64, len(raws))
	for i, r := range raws {
		out[i] = get(r)
	}
	return out
}

// allCommits is the repository commit stream plus every PR's own commits, so a
// later PR's "revert" commit counts against the PR it reverts.
func allCommits(corpus schema.Corpus) []schema.Commit {
	seen := make(map[string]struct{})
	var out []schema.Commit
	add := func(c schema.Commit) {
		if _, dup := seen[c.SHA]; dup && c.SHA != "" {
			return
		}
		seen[c.SHA] = struct{}{}
		out = append(out, c)
	}
	for _, c := range corpus.Commits {
		add(c)
	}
	for _, pr := range corpus.PullRequests {
		for _, c := range pr.Commits {
			add(c)
		}
	}
	return out
}
