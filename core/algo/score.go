package algo

import (
	"math"

	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
)

// ComputeScore returns the weighted sum of features, clamped to [0,1].
// Features without a weight contribute nothing.
func ComputeScore(features schema.FeatureSet, weights map[schema.FeatureKey]float64) float64 {
	score := 0.0
	for _, key := range schema.AllFeatureKeys {
		w, ok := weights[key]
		if !ok {
			continue
		}
		score += w * features.Get(key)
	}
	return clamp01(score)
}

// Round rounds v to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// CIFeature combines the normalized failure ratio and duration with equal weight.
func CIFeature(failureN, durationN float64) float64 {
	return (failureN + durationN) / 2
}
