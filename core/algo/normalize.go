// Package algo holds the pure numeric parts of risk scoring: normalization,
// composite scores, zoning and ranking.
package algo

import "github.com/montanaflynn/stats"

// Bounds is the corpus-wide min/max of one raw feature. It is computed once per
// batch and passed by value into every normalization.
type Bounds struct {
	Min   float64
	Max   float64
	Empty bool
}

// ComputeBounds returns the min and max of values.
func ComputeBounds(values []float64) Bounds {
	if len(values) == 0 {
		return Bounds{Empty: true}
	}
	data := stats.Float64Data(values)
	lo, err := stats.Min(data)
	if err != nil {
		return Bounds{Empty: true}
	}
	hi, err := stats.Max(data)
	if err != nil {
		return Bounds{Empty: true}
	}
	return Bounds{Min: lo, Max: hi}
}

// Degenerate reports whether every value in the batch was equal (or there were none).
func (b Bounds) Degenerate() bool {
	return b.Empty || b.Max == b.Min
}

// Normalize min-max scales v into [0,1]. A degenerate batch maps every value to 0.
func (b Bounds) Normalize(v float64) float64 {
	if b.Degenerate() {
		return 0
	}
	return clamp01((v - b.Min) / (b.Max - b.Min))
}

// NormalizeAll scales a whole sequence against its own bounds.
// Empty input yields empty output.
func NormalizeAll(values []float64) []float64 {
	out := make([]float64, len(values))
	b := ComputeBounds(values)
	for i, v := range values {
		out[i] = b.Normalize(v)
	}
	return out
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
