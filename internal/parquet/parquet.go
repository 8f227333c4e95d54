// Package parquet exports scoring runs and risk records to Parquet files
// using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
	"github.com/parquet-go/parquet-go"
)

// RiskRun is one scoring run with its metadata.
// This struct maps to the risk_runs database table.
type RiskRun struct {
	// AnalysisID is the store-assigned identifier of the run
	AnalysisID int64 `parquet:"analysis_id,snappy"`

	// RunUUID is the identifier generated when the run started
	RunUUID string `parquet:"run_uuid,snappy"`

	// Profile is the weight profile the run scored with
	Profile string `parquet:"profile,snappy"`

	StartTime     time.Time  `parquet:"start_time,snappy"`
	EndTime       *time.Time `parquet:"end_time,optional,snappy"`
	RunDurationMs *int64     `parquet:"run_duration_ms,optional,snappy"`
	TotalPRs      *int64     `parquet:"total_prs,optional,snappy"`

	// ConfigParams contains the JSON-encoded run configuration (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// RiskRecord is one scored pull request of a run.
// This struct maps to the risk_records database table.
type RiskRecord struct {
	AnalysisID      int64   `parquet:"analysis_id,snappy"`
	PRNumber        int64   `parquet:"pr_number,snappy"`
	Title           string  `parquet:"title,snappy"`
	FeatureCI       float64 `parquet:"feature_ci,snappy"`
	FeatureSA       float64 `parquet:"feature_sa,snappy"`
	FeatureSize     float64 `parquet:"feature_size,snappy"`
	FeatureSpread   float64 `parquet:"feature_spread,snappy"`
	FeatureHot      float64 `parquet:"feature_hot,snappy"`
	FeatureSemantic float64 `parquet:"feature_semantic,snappy"`
	Category        string  `parquet:"category,snappy"`
	Provenance      string  `parquet:"provenance,snappy"`
	Score           float64 `parquet:"score,snappy"`
	Zone            string  `parquet:"zone,snappy"`
	RetroFlagged    bool    `parquet:"retro_flagged,snappy"`
	RetroEvidence   string  `parquet:"retro_evidence,snappy"`
}

// writeRows writes rows to outputPath with a schema inferred from T's struct tags.
func writeRows[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteRiskRunsParquet writes runs to a Parquet file.
func WriteRiskRunsParquet(data []RiskRun, outputPath string) error {
	return writeRows(data, outputPath)
}

// WriteRiskRecordsParquet writes records to a Parquet file.
func WriteRiskRecordsParquet(data []RiskRecord, outputPath string) error {
	return writeRows(data, outputPath)
}

// ConvertRiskRunRecords converts stored runs to Parquet rows.
func ConvertRiskRunRecords(records []schema.RiskRunRecord) []RiskRun {
	result := make([]RiskRun, len(records))
	for i, r := range records {
		result[i] = RiskRun{
			AnalysisID:    r.AnalysisID,
			RunUUID:       r.RunUUID,
			Profile:       r.Profile,
			StartTime:     r.StartTime,
			EndTime:       r.EndTime,
			RunDurationMs: r.RunDurationMs,
			TotalPRs:      r.TotalPRs,
			ConfigParams:  r.ConfigParams,
		}
	}
	return result
}

// ConvertRiskRecordRows converts stored record rows to Parquet rows.
func ConvertRiskRecordRows(rows []schema.RiskRecordRow) []RiskRecord {
	result := make([]RiskRecord, len(rows))
	for i, r := range rows {
		result[i] = RiskRecord{
			AnalysisID:      r.AnalysisID,
			PRNumber:        r.PRNumber,
			Title:           r.Title,
			FeatureCI:       r.FeatureCI,
			FeatureSA:       r.FeatureSA,
			FeatureSize:     r.FeatureSize,
			FeatureSpread:   r.FeatureSpread,
			FeatureHot:      r.FeatureHot,
			FeatureSemantic: r.FeatureSem,
			Category:        r.Category,
			Provenance:      r.Provenance,
			Score:           r.Score,
			Zone:            r.Zone,
			RetroFlagged:    r.RetroFlagged,
			RetroEvidence:   r.RetroEvidence,
		}
	}
	return result
}

// FromRiskRecords flattens in-memory records of one run into Parquet rows.
func FromRiskRecords(analysisID int64, records []schema.RiskRecord) []RiskRecord {
	rows := make([]schema.RiskRecordRow, len(records))
	for i, r := range records {
		rows[i] = schema.RowFromRecord(analysisID, r)
	}
	return ConvertRiskRecordRows(rows)
}
