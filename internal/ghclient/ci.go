package ghclient

import (
	"math"
	"time"

	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
)

// WorkflowRun is the slice of a GitHub Actions run the CI aggregation needs.
type WorkflowRun struct {
	HeadSHA    string
	PRNumbers  []int
	Conclusion string
	StartedAt  time.Time
	UpdatedAt  time.Time
}

// DurationSec is the whole seconds from run start to its last update, 0 when unknown.
func (r WorkflowRun) DurationSec() int {
	if r.StartedAt.IsZero() || r.UpdatedAt.IsZero() {
		return 0
	}
	return int(r.UpdatedAt.Sub(r.StartedAt).Seconds())
}

// relevantTo reports whether the run built one of the PR's commits or lists the PR.
func (r WorkflowRun) relevantTo(number int, shas map[string]struct{}) bool {
	if _, ok := shas[r.HeadSHA]; ok && r.HeadSHA != "" {
		return true
	}
	for _, n := range r.PRNumbers {
		if n == number {
			return true
		}
	}
	return false
}

var failureConclusions = map[string]struct{}{
	"failure":   {},
	"timed_out": {},
	"cancelled": {},
}

// AggregateCI summarizes the runs relevant to one PR. Runs without a positive
// duration do not count towards the average, which is truncated to whole seconds.
func AggregateCI(runs []WorkflowRun, number int, commits []schema.Commit) schema.CiOutcome {
	shas := make(map[string]struct{}, len(commits))
	for _, c := range commits {
		shas[c.SHA] = struct{}{}
	}

	var out schema.CiOutcome
	total, counted := 0, 0
	for _, r := range runs {
		if !r.relevantTo(number, shas) {
			continue
		}
		if r.Conclusion == "success" {
			out.Success++
		} else if _, failed := failureConclusions[r.Conclusion]; failed {
			out.Failure++
		}
		if d := r.DurationSec(); d > 0 {
			total += d
			counted++
		}
	}
	if counted > 0 {
		out.DurationAvgSec = float64(total / counted)
	}
	return out
}

// TriageHours is the time from creation to the first review, or to the first
// comment when nobody reviewed, rounded to two decimals. It is 0 when neither
// exists and never negative.
func TriageHours(created time.Time, firstReview, firstComment *time.Time) float64 {
	first := firstReview
	if first == nil {
		first = firstComment
	}
	if first == nil || created.IsZero() {
		return 0
	}
	return math.Round(max(0, first.Sub(created).Hours())*100) / 100
}

// earliest returns the smallest non-zero time, or nil.
func earliest(times []time.Time) *time.Time {
	var best *time.Time
	for i := range times {
		t := times[i]
		if t.IsZero() {
			continue
		}
		if best == nil || t.Before(*best) {
			best = &t
		}
	}
	return best
}
