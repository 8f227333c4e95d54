package schema

import "time"

// CacheStatus represents the status of the annotation cache store.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// AnalysisStatus represents the status of the analysis store.
type AnalysisStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	TotalRuns     int              `json:"total_runs"`
	LastRunID     int64            `json:"last_run_id"`
	LastRunTime   time.Time        `json:"last_run_time"`
	OldestRunTime time.Time        `json:"oldest_run_time"`
	TotalRecords  int              `json:"total_records"`
	TableSizes    map[string]int64 `json:"table_sizes"`
}

// RiskRunRecord represents a row from the risk_runs table.
type RiskRunRecord struct {
	AnalysisID    int64
	RunUUID       string
	Profile       string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int64
	TotalPRs      *int64
	ConfigParams  *string
}

// RiskRecordRow represents a row from the risk_records table.
type RiskRecordRow struct {
	AnalysisID    int64
	PRNumber      int64
	Title         string
	FeatureCI     float64
	FeatureSA     float64
	FeatureSize   float64
	FeatureSpread float64
	FeatureHot    float64
	FeatureSem    float64
	Category      string
	Provenance    string
	Score         float64
	Zone          string
	RetroFlagged  bool
	RetroEvidence string
}

// RowFromRecord flattens a RiskRecord into its stored row form.
func RowFromRecord(analysisID int64, r RiskRecord) RiskRecordRow {
	row := RiskRecordRow{
		AnalysisID:    analysisID,
		PRNumber:      int64(r.Number),
		Title:         r.Title,
		FeatureCI:     r.Features.CI,
		FeatureSA:     r.Features.SA,
		FeatureSize:   r.Features.Size,
		FeatureSpread: r.Features.Spread,
		FeatureHot:    r.Features.Hot,
		FeatureSem:    r.Features.Semantic,
		Category:      string(r.Category),
		Provenance:    string(r.Provenance),
		Score:         r.Score,
		Zone:          string(r.Zone),
		RetroEvidence: string(NoEvidence),
	}
	if r.Retro != nil {
		row.RetroFlagged = r.Retro.Flagged
		row.RetroEvidence = string(r.Retro.Evidence)
	}
	return row
}
