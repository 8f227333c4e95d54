package algo

import (
	"math"
	"slices"

	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
)

// HighZoneQuantile is the share of the batch below the high-zone threshold.
const HighZoneQuantile = 0.70

// ZoneThreshold returns ascending-sorted scores[floor(0.7*N)], or 0 for an empty batch.
func ZoneThreshold(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	sorted := slices.Clone(scores)
	slices.Sort(sorted)
	idx := int(math.Floor(HighZoneQuantile * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// ZoneFor labels one score against a threshold; the boundary is high.
func ZoneFor(score, threshold float64) schema.Zone {
	if score >= threshold {
		return schema.HighZone
	}
	return schema.MidZone
}

// ClassifyZones sets the zone of every record from the batch threshold and
// returns that threshold. Re-running on an unchanged batch is a no-op.
func ClassifyZones(records []schema.RiskRecord) float64 {
	scores := make([]float64, len(records))
	for i, r := range records {
		scores[i] = r.Score
	}
	threshold := ZoneThreshold(scores)
	for i := range records {
		records[i].Zone = ZoneFor(records[i].Score, threshold)
	}
	return threshold
}
