package contract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetZoneLabel(t *testing.T) {
	assert.Equal(t, "High", GetZoneLabel(schema.HighZone))
	assert.Equal(t, "Mid", GetZoneLabel(schema.MidZone))
	assert.Equal(t, "-", GetZoneLabel(""))
}

func TestGetColorZoneLabel(t *testing.T) {
	assert.Contains(t, GetColorZoneLabel(schema.HighZone), "High")
	assert.Contains(t, GetColorZoneLabel(schema.MidZone), "Mid")
	assert.Contains(t, GetColorProvenance(schema.LLMProvenance), "llm")
	assert.Equal(t, "rule", GetColorProvenance(schema.RuleProvenance))
}

func TestSelectOutputFile(t *testing.T) {
	f, err := SelectOutputFile("")
	require.NoError(t, err)
	assert.Equal(t, os.Stdout, f)

	path := filepath.Join(t.TempDir(), "out.json")
	f, err = SelectOutputFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.FileExists(t, path)
}

func TestDBFilePathsDiffer(t *testing.T) {
	assert.True(t, strings.HasSuffix(GetCacheDBFilePath(), ".riskdash_cache.db"))
	assert.True(t, strings.HasSuffix(GetAnalysisDBFilePath(), ".riskdash_analysis.db"))
	assert.NotEqual(t, GetCacheDBFilePath(), GetAnalysisDBFilePath())
}

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxWidth int
		expected string
	}{
		{"short text unchanged", "Fix crash", 20, "Fix crash"},
		{"exact width unchanged", "abcdef", 6, "abcdef"},
		{"long text truncated", "Bump kotlin to 2.0.21 and gradle", 12, "Bump kotl..."},
		{"tiny width unchanged", "abcdef", 3, "abcdef"},
		{"multibyte", "Обновить зависимости", 9, "Обнови..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TruncateText(tt.text, tt.maxWidth))
		})
	}
}

func TestParseBoolString(t *testing.T) {
	for _, in := range []string{"yes", "TRUE", "1"} {
		v, err := ParseBoolString(in)
		require.NoError(t, err)
		assert.True(t, v)
	}
	for _, in := range []string{"no", "False", "0"} {
		v, err := ParseBoolString(in)
		require.NoError(t, err)
		assert.False(t, v)
	}
	_, err := ParseBoolString("maybe")
	assert.Error(t, err)
}
