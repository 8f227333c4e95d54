package algo

import (
	"math/rand"
	"testing"

	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAll(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected []float64
	}{
		{"empty", []float64{}, []float64{}},
		{"single value is degenerate", []float64{42}, []float64{0}},
		{"all equal maps to zero", []float64{3, 3, 3}, []float64{0, 0, 0}},
		{"diff sizes", []float64{100, 500, 2000}, []float64{0, 400.0 / 1900.0, 1}},
		{"negative range", []float64{-2, 0, 2}, []float64{0, 0.5, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeAll(tt.values)
			require.Len(t, got, len(tt.expected))
			for i := range got {
				assert.InDelta(t, tt.expected[i], got[i], 1e-12)
			}
		})
	}
}

func TestNormalizeProperties(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for range 50 {
		n := 1 + r.Intn(30)
		values := make([]float64, n)
		for i := range values {
			values[i] = r.Float64() * 1000
		}
		b := ComputeBounds(values)
		for i, v := range NormalizeAll(values) {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
			if b.Degenerate() {
				assert.Equal(t, 0.0, v)
				continue
			}
			if values[i] == b.Min {
				assert.Equal(t, 0.0, v)
			}
			if values[i] == b.Max {
				assert.Equal(t, 1.0, v)
			}
		}
	}
}

func TestBoundsOutsideBatchAreClamped(t *testing.T) {
	b := ComputeBounds([]float64{10, 20})
	assert.Equal(t, 0.0, b.Normalize(5))
	assert.Equal(t, 1.0, b.Normalize(25))
	assert.True(t, ComputeBounds(nil).Degenerate())
	assert.Equal(t, 0.0, ComputeBounds(nil).Normalize(3))
}

func TestComputeScoreWorkedScenario(t *testing.T) {
	weights, err := schema.GetDefaultWeights(schema.GitHubOnlyProfile)
	require.NoError(t, err)

	sizeN := NormalizeAll([]float64{100, 500, 2000})
	expected := []float64{0.0, 0.0842, 0.40}
	records := make([]schema.RiskRecord, 3)
	for i, s := range sizeN {
		score := ComputeScore(schema.FeatureSet{Size: s}, weights)
		assert.InDelta(t, expected[i], Round(score, 4), 1e-9)
		records[i] = schema.RiskRecord{Number: i + 1, Score: score}
	}

	threshold := ClassifyZones(records)
	assert.InDelta(t, 0.40, threshold, 1e-12)
	assert.Equal(t, schema.MidZone, records[0].Zone)
	assert.Equal(t, schema.MidZone, records[1].Zone)
	assert.Equal(t, schema.HighZone, records[2].Zone)
}

func TestComputeScoreCIAware(t *testing.T) {
	weights, err := schema.GetDefaultWeights(schema.CIAwareProfile)
	require.NoError(t, err)

	all := schema.FeatureSet{CI: 1, SA: 1, Size: 1, Spread: 1, Hot: 1, Semantic: 1}
	assert.InDelta(t, 1.0, ComputeScore(all, weights), 1e-9)

	f := schema.FeatureSet{CI: 0.5, SA: 0.2, Size: 0.1, Spread: 0, Hot: 1, Semantic: 0.3}
	want := 0.25*0.5 + 0.25*0.2 + 0.15*0.1 + 0.15*1 + 0.10*0.3
	assert.InDelta(t, want, ComputeScore(f, weights), 1e-12)
	assert.Equal(t, ComputeScore(f, weights), ComputeScore(f, weights))
}

func TestComputeScoreIgnoresUnweightedFeatures(t *testing.T) {
	weights, err := schema.GetDefaultWeights(schema.GitHubOnlyProfile)
	require.NoError(t, err)
	assert.Equal(t, 0.0, ComputeScore(schema.FeatureSet{CI: 1, SA: 1}, weights))
}

func TestComputeScoreClamps(t *testing.T) {
	heavy := map[schema.FeatureKey]float64{schema.FeatureSize: 3}
	assert.Equal(t, 1.0, ComputeScore(schema.FeatureSet{Size: 1}, heavy))
	negative := map[schema.FeatureKey]float64{schema.FeatureSize: -1}
	assert.Equal(t, 0.0, ComputeScore(schema.FeatureSet{Size: 1}, negative))
}

func TestCIFeature(t *testing.T) {
	assert.Equal(t, 0.5, CIFeature(1, 0))
	assert.Equal(t, 0.75, CIFeature(0.5, 1))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 0.0842, Round(0.08421052631, 4))
	assert.Equal(t, 0.12, Round(0.123, 2))
}

func TestZoneThreshold(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single", []float64{0.3}, 0.3},
		{"unsorted", []float64{0.9, 0.1, 0.5}, 0.9},
		{"ten scores", []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9}, 0.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ZoneThreshold(tt.scores))
		})
	}
}

func TestZoneThresholdDoesNotMutateInput(t *testing.T) {
	scores := []float64{0.9, 0.1, 0.5}
	ZoneThreshold(scores)
	assert.Equal(t, []float64{0.9, 0.1, 0.5}, scores)
}

func TestClassifyZonesIdempotent(t *testing.T) {
	records := []schema.RiskRecord{{Score: 0.2}, {Score: 0.8}, {Score: 0.5}, {Score: 0.8}, {Score: 0.1}}
	first := ClassifyZones(records)
	zones := make([]schema.Zone, len(records))
	for i, r := range records {
		zones[i] = r.Zone
	}
	second := ClassifyZones(records)
	assert.Equal(t, first, second)
	for i, r := range records {
		assert.Equal(t, zones[i], r.Zone)
	}
	// threshold index floor(3.5)=3 of [0.1 0.2 0.5 0.8 0.8] is 0.8; ties are high
	assert.Equal(t, schema.HighZone, records[1].Zone)
	assert.Equal(t, schema.HighZone, records[3].Zone)
	assert.Equal(t, schema.MidZone, records[2].Zone)
}

func TestClassifyZonesEmpty(t *testing.T) {
	assert.Equal(t, 0.0, ClassifyZones(nil))
}

func TestSortByScore(t *testing.T) {
	records := []schema.RiskRecord{
		{Number: 9, Score: 0.5},
		{Number: 2, Score: 0.9},
		{Number: 4, Score: 0.5},
		{Number: 1, Score: 0.1},
	}
	SortByScore(records)
	var order []int
	for _, r := range records {
		order = append(order, r.Number)
	}
	assert.Equal(t, []int{2, 4, 9, 1}, order)
}

func TestRankRecords(t *testing.T) {
	records := []schema.RiskRecord{{Number: 1, Score: 0.1}, {Number: 2, Score: 0.9}, {Number: 3, Score: 0.5}}
	top := RankRecords(records, 2)
	require.Len(t, top, 2)
	assert.Equal(t, 2, top[0].Number)
	assert.Equal(t, 3, top[1].Number)
	assert.Len(t, RankRecords(records, 0), 3)
}
