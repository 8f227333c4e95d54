package schema

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Custom string types for type safety.
type (
	// FeatureKey represents one normalized feature that feeds the composite score.
	FeatureKey string

	// WeightProfile names a fixed set of feature weights.
	WeightProfile string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching and run tracking.
	DatabaseBackend string

	// Zone is a corpus-relative risk tier.
	Zone string

	// Category is the coarse semantic category of a pull request.
	Category string

	// Provenance records which strategy produced the semantic fields.
	Provenance string

	// Evidence is the kind of later activity that triggered a retrospective label.
	Evidence string

	// Severity is a title-cased static-analysis severity.
	Severity string
)

// Feature keys used in the scoring logic.
const (
	FeatureCI       FeatureKey = "ci"
	FeatureSA       FeatureKey = "sa"
	FeatureSize     FeatureKey = "size"
	FeatureSpread   FeatureKey = "spread"
	FeatureHot      FeatureKey = "hot"
	FeatureSemantic FeatureKey = "semantic"
)

// AllFeatureKeys lists the features in display order.
var AllFeatureKeys = []FeatureKey{FeatureCI, FeatureSA, FeatureSize, FeatureSpread, FeatureHot, FeatureSemantic}

// All weight profiles supported.
const (
	CIAwareProfile    WeightProfile = "ci-aware" // default
	GitHubOnlyProfile WeightProfile = "github-only"
)

// AllWeightProfiles returns a list of all supported weight profiles.
var AllWeightProfiles = []WeightProfile{CIAwareProfile, GitHubOnlyProfile}

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Risk zones.
const (
	HighZone Zone = "high"
	MidZone  Zone = "mid"
)

// Semantic categories.
const (
	CategoryAPI          Category = "API"
	CategoryTests        Category = "Tests"
	CategorySecurity     Category = "Security"
	CategoryDependencies Category = "Dependencies"
	CategoryPerformance  Category = "Performance"
	CategoryGeneral      Category = "General"
)

// Semantic provenance tags.
const (
	RuleProvenance Provenance = "rule"
	LLMProvenance  Provenance = "llm"
)

// Retrospective evidence kinds.
const (
	CommitEvidence Evidence = "commit"
	IssueEvidence  Evidence = "issue"
	NoEvidence     Evidence = "none"
)

// Known severities.
const (
	SeverityCritical Severity = "Critical"
	SeverityMajor    Severity = "Major"
	SeverityMinor    Severity = "Minor"
	SeverityInfo     Severity = "Info"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidWeightProfiles lists all valid weight profiles.
var ValidWeightProfiles = map[WeightProfile]struct{}{
	CIAwareProfile:    {},
	GitHubOnlyProfile: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidCategories lists the semantic categories in rule order.
var ValidCategories = map[Category]struct{}{
	CategoryAPI:          {},
	CategoryTests:        {},
	CategorySecurity:     {},
	CategoryDependencies: {},
	CategoryPerformance:  {},
	CategoryGeneral:      {},
}

// ErrUnknownProfile is returned when no usable weight profile was selected.
var ErrUnknownProfile = errors.New("unknown weight profile")

// GetDefaultWeights returns the default weight map for a given profile.
// An empty or unknown profile is an error so callers never score with undefined weights.
func GetDefaultWeights(profile WeightProfile) (map[FeatureKey]float64, error) {
	switch profile {
	case CIAwareProfile:
		return map[FeatureKey]float64{
			FeatureCI:       0.25,
			FeatureSA:       0.25,
			FeatureSize:     0.15,
			FeatureSpread:   0.10,
			FeatureHot:      0.15,
			FeatureSemantic: 0.10,
		}, nil
	case GitHubOnlyProfile:
		return map[FeatureKey]float64{
			FeatureSize:     0.40,
			FeatureSpread:   0.30,
			FeatureHot:      0.10,
			FeatureSemantic: 0.20,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q (must be one of %s)", ErrUnknownProfile, profile, profileNames())
	}
}

func profileNames() string {
	names := make([]string, len(AllWeightProfiles))
	for i, p := range AllWeightProfiles {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

// NormalizeSeverity title-cases a raw severity string. Empty input stays empty.
func NormalizeSeverity(raw string) Severity {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	runes := []rune(strings.ToLower(raw))
	runes[0] = unicode.ToUpper(runes[0])
	return Severity(string(runes))
}
