package attrib

import (
	"testing"

	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
	"github.com/stretchr/testify/assert"
)

func TestAttribute(t *testing.T) {
	files := []schema.FileChange{
		{Path: "app/src/Main.kt", Added: 3, AddedLines: []int{10, 11, 12}},
		{Path: "lib/Util.kt", Added: 1, AddedLines: []int{5}},
	}

	tests := []struct {
		name     string
		finding  schema.Finding
		expected bool
	}{
		{"added line matches", schema.Finding{File: "app/src/Main.kt", Line: 11}, true},
		{"file-level finding matches", schema.Finding{File: "lib/Util.kt", Line: 0}, true},
		{"untouched line does not match", schema.Finding{File: "app/src/Main.kt", Line: 9}, false},
		{"untouched file never matches", schema.Finding{File: "other/Thing.kt", Line: 0}, false},
		{"untouched file with line never matches", schema.Finding{File: "other/Thing.kt", Line: 10}, false},
		{"path must match exactly", schema.Finding{File: "src/Main.kt", Line: 10}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Attribute(files, []schema.Finding{tt.finding})
			if tt.expected {
				assert.Equal(t, []schema.Finding{tt.finding}, got)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestAttributePoolsToolsWithoutDedup(t *testing.T) {
	files := []schema.FileChange{{Path: "a/B.kt", AddedLines: []int{7}}}
	findings := []schema.Finding{
		{Tool: "detekt", Rule: "MagicNumber", File: "a/B.kt", Line: 7, IsNew: true},
		{Tool: "ktlint", Rule: "indent", File: "a/B.kt", Line: 7, IsNew: true},
		{Tool: "ktlint", Rule: "indent", File: "a/B.kt", Line: 7, IsNew: true},
	}
	assert.Len(t, Attribute(files, findings), 3)
}

func TestAttributeSameFindingToSeveralPRs(t *testing.T) {
	finding := schema.Finding{File: "core/X.kt", Line: 4, IsNew: true}
	first := []schema.FileChange{{Path: "core/X.kt", AddedLines: []int{3, 4}}}
	second := []schema.FileChange{{Path: "core/X.kt", AddedLines: []int{4}}}

	assert.Len(t, Attribute(first, []schema.Finding{finding}), 1)
	assert.Len(t, Attribute(second, []schema.Finding{finding}), 1)
}

func TestAttributeDuplicatePathUnion(t *testing.T) {
	files := []schema.FileChange{
		{Path: "x.kt", AddedLines: []int{1}},
		{Path: "x.kt", AddedLines: []int{2}},
	}
	got := Attribute(files, []schema.Finding{{File: "x.kt", Line: 1}, {File: "x.kt", Line: 2}})
	assert.Len(t, got, 2)
}

func TestAttributeEmptyInputs(t *testing.T) {
	assert.Nil(t, Attribute(nil, []schema.Finding{{File: "a", Line: 0}}))
	assert.Nil(t, Attribute([]schema.FileChange{{Path: "a"}}, nil))
}

func TestWeightedCount(t *testing.T) {
	findings := []schema.Finding{
		{Severity: schema.SeverityCritical, IsNew: true},
		{Severity: schema.SeverityMajor, IsNew: true},
		{Severity: schema.SeverityMinor, IsNew: true},
		{Severity: schema.SeverityInfo, IsNew: true},
		{Severity: "", IsNew: true},                      // missing defaults to Minor
		{Severity: "Warning", IsNew: true},               // unknown defaults to Minor
		{Severity: schema.SeverityCritical, IsNew: false}, // baseline-suppressed
	}
	assert.InDelta(t, 1.0+0.7+0.4+0.2+0.4+0.4, WeightedCount(findings), 1e-9)
	assert.Equal(t, 6, CountNew(findings))
	assert.Equal(t, 0.0, WeightedCount(nil))
}

func TestSeverityWeight(t *testing.T) {
	assert.Equal(t, 1.0, SeverityWeight(schema.SeverityCritical))
	assert.Equal(t, 0.7, SeverityWeight(schema.SeverityMajor))
	assert.Equal(t, 0.4, SeverityWeight(schema.SeverityMinor))
	assert.Equal(t, 0.2, SeverityWeight(schema.SeverityInfo))
	assert.Equal(t, DefaultSeverityWeight, SeverityWeight("Error"))
}
