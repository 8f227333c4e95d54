// Package semantic assigns a coarse category and a semantic risk contribution to
// pull requests, from title rules or from an external annotation service.
package semantic

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
)

// Rule is one (pattern, category) entry of the ordered rule table.
type Rule struct {
	Category schema.Category
	Pattern  *regexp.Regexp
}

// Rules is matched in order against the lower-cased title; the first hit wins.
var Rules = []Rule{
	{schema.CategoryAPI, regexp.MustCompile(`\bapi|public|signature|contract|breaking|deprecat`)},
	{schema.CategoryTests, regexp.MustCompile(`\btest|flaky|coverage|assert|ksp|kotlin`)},
	{schema.CategorySecurity, regexp.MustCompile(`\bsecurity|secret|token|auth|permission|vuln`)},
	{schema.CategoryDependencies, regexp.MustCompile(`\bdependenc|bump|gradle|plugin|version|update`)},
	{schema.CategoryPerformance, regexp.MustCompile(`\bperf|performance|speed|optim`)},
}

// Result is the shape both strategies produce.
type Result struct {
	Category   schema.Category
	Rationale  string
	Score      float64
	Provenance schema.Provenance
}

// Classify returns the category of a PR title.
func Classify(title string) schema.Category {
	t := strings.ToLower(title)
	for _, r := range Rules {
		if r.Pattern.MatchString(t) {
			return r.Category
		}
	}
	return schema.CategoryGeneral
}

// RuleContribution is the equal-weighted average of the normalized size and
// spread, capped at 1.
func RuleContribution(sizeN, spreadN float64) float64 {
	return math.Min(1, 0.5*sizeN+0.5*spreadN)
}

// SummaryText is the rule-based rationale shown on a dashboard card.
func SummaryText(title string, files, added, deleted int, score float64) string {
	return fmt.Sprintf("%s. Files %d, added %d, deleted %d. Index %.2f.", title, files, added, deleted, score)
}

// RuleResult computes the rule strategy for a record whose size and spread are
// already normalized.
func RuleResult(title string, sizeN, spreadN float64) Result {
	return Result{
		Category:   Classify(title),
		Score:      RuleContribution(sizeN, spreadN),
		Provenance: schema.RuleProvenance,
	}
}
