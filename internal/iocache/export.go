package iocache

import (
	"errors"
	"fmt"

	"github.com/Sandroisu/ai-code-risk-analyzer/internal/contract"
	"github.com/Sandroisu/ai-code-risk-analyzer/internal/parquet"
)

// ExecuteAnalysisExport writes the run history of the global store to Parquet files.
func ExecuteAnalysisExport(outputFile string) error {
	return ExportAnalysis(Manager.GetAnalysisStore(), outputFile)
}

// ExportAnalysis writes every run and record of store to
// <outputFile>.risk_runs.parquet and <outputFile>.risk_records.parquet.
func ExportAnalysis(store contract.AnalysisStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("analysis store is not initialized")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get analysis status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no analysis data found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total scoring runs: %d\n", status.TotalRuns)
	fmt.Printf("Total risk records: %d\n", status.TotalRecords)

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve risk runs: %w", err)
	}
	records, err := store.GetAllRecords()
	if err != nil {
		return fmt.Errorf("failed to retrieve risk records: %w", err)
	}

	parquetRuns := parquet.ConvertRiskRunRecords(runs)
	runsFile := outputFile + ".risk_runs.parquet"
	if err := parquet.WriteRiskRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write risk runs: %w", err)
	}
	fmt.Printf("Exported %d scoring runs to: %s\n", len(parquetRuns), runsFile)

	parquetRecords := parquet.ConvertRiskRecordRows(records)
	recordsFile := outputFile + ".risk_records.parquet"
	if err := parquet.WriteRiskRecordsParquet(parquetRecords, recordsFile); err != nil {
		return fmt.Errorf("failed to write risk records: %w", err)
	}
	fmt.Printf("Exported %d risk records to: %s\n", len(parquetRecords), recordsFile)

	fmt.Println("\nExport complete! The Parquet files can be used with:")
	fmt.Println("  - Apache Spark")
	fmt.Println("  - Pandas (via pyarrow)")
	fmt.Println("  - DuckDB")
	return nil
}
