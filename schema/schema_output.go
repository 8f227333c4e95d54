package schema

import "slices"

// RankedRecord adds presentation data to a RiskRecord.
type RankedRecord struct {
	Rank int `json:"rank"`
	RiskRecord
}

// ProfileSummary is the display form of one weight profile.
type ProfileSummary struct {
	Profile WeightProfile          `json:"profile"`
	Weights map[FeatureKey]float64 `json:"weights"`
	Sum     float64                `json:"sum"`
}

// RankRecords assigns 1-based ranks in the existing order.
func RankRecords(records []RiskRecord) []RankedRecord {
	output := make([]RankedRecord, len(records))
	for i, r := range records {
		output[i] = RankedRecord{Rank: i + 1, RiskRecord: r}
	}
	return output
}

// SummarizeProfile builds a ProfileSummary from a weight map.
func SummarizeProfile(profile WeightProfile, weights map[FeatureKey]float64) ProfileSummary {
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	return ProfileSummary{Profile: profile, Weights: weights, Sum: sum}
}

// SortedFeatureKeys returns the keys present in weights, in AllFeatureKeys order.
func SortedFeatureKeys(weights map[FeatureKey]float64) []FeatureKey {
	keys := make([]FeatureKey, 0, len(weights))
	for _, k := range AllFeatureKeys {
		if _, ok := weights[k]; ok {
			keys = append(keys, k)
		}
	}
	// Unknown keys go last in lexical order.
	var extra []FeatureKey
	for k := range weights {
		if !slices.Contains(AllFeatureKeys, k) {
			extra = append(extra, k)
		}
	}
	slices.Sort(extra)
	return append(keys, extra...)
}
