// Package attrib links static-analysis findings to the pull request whose diff introduced them.
package attrib

import "github.com/Sandroisu/ai-code-risk-analyzer/schema"

// severityWeights maps a title-cased severity to its contribution.
var severityWeights = map[schema.Severity]float64{
	schema.SeverityCritical: 1.0,
	schema.SeverityMajor:    0.7,
	schema.SeverityMinor:    0.4,
	schema.SeverityInfo:     0.2,
}

// DefaultSeverityWeight applies to missing or unrecognized severities.
const DefaultSeverityWeight = 0.4

// SeverityWeight returns the weight of one severity.
func SeverityWeight(sev schema.Severity) float64 {
	if w, ok := severityWeights[sev]; ok {
		return w
	}
	return DefaultSeverityWeight
}

// Attribute returns the findings that belong to a PR's file changes. A finding
// matches when its path is a changed file and its line is 0 or an added line.
// Findings are not deduplicated: the same finding may match several PRs.
func Attribute(files []schema.FileChange, findings []schema.Finding) []schema.Finding {
	if len(files) == 0 || len(findings) == 0 {
		return nil
	}

	addedByPath := make(map[string]map[int]struct{}, len(files))
	for _, f := range files {
		set, ok := addedByPath[f.Path]
		if !ok {
			addedByPath[f.Path] = f.AddedLineSet()
			continue
		}
		// Same path listed twice: union the added lines.
		for _, l := range f.AddedLines {
			set[l] = struct{}{}
		}
	}

	var out []schema.Finding
	for _, fnd := range findings {
		lines, ok := addedByPath[fnd.File]
		if !ok {
			continue
		}
		if fnd.Line == 0 {
			out = append(out, fnd)
			continue
		}
		if _, hit := lines[fnd.Line]; hit {
			out = append(out, fnd)
		}
	}
	return out
}

// WeightedCount sums severity weights over new findings only.
func WeightedCount(findings []schema.Finding) float64 {
	total := 0.0
	for _, f := range findings {
		if !f.IsNew {
			continue
		}
		total += SeverityWeight(f.Severity)
	}
	return total
}

// CountNew returns how many findings are new.
func CountNew(findings []schema.Finding) int {
	n := 0
	for _, f := range findings {
		if f.IsNew {
			n++
		}
	}
	return n
}
