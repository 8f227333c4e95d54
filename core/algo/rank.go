package algo

import (
	"sort"

	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
)

// SortByScore orders records by score descending, ties by PR number ascending.
func SortByScore(records []schema.RiskRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Score != records[j].Score {
			return records[i].Score > records[j].Score
		}
		return records[i].Number < records[j].Number
	})
}

// RankRecords sorts records and returns the top 'limit'. A limit of 0 or less
// keeps everything.
func RankRecords(records []schema.RiskRecord, limit int) []schema.RiskRecord {
	SortByScore(records)
	if limit > 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}
