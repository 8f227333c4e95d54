package outwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/Sandroisu/ai-code-risk-analyzer/internal/contract"
	"github.com/Sandroisu/ai-code-risk-analyzer/internal/parquet"
	"github.com/Sandroisu/ai-code-risk-analyzer/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

var recordCSVHeader = []string{
	"rank",
	"number",
	"title",
	"url",
	"author",
	"created_at",
	"merged_at",
	"files_changed",
	"lines_added",
	"lines_deleted",
	"triage_hours",
	"new_findings",
	"sa_raw",
	"ci",
	"sa",
	"size",
	"spread",
	"hot",
	"semantic",
	"category",
	"provenance",
	"rationale",
	"score",
	"zone",
	"retro_flagged",
	"retro_evidence",
}

// WriteRiskRecords outputs scored records, dispatching based on the output format configured.
func WriteRiskRecords(records []schema.RiskRecord, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDashboardJSON(w, cfg.Profile, records)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRecordsCSV(w, records, fmtFloat, intFmt)
		}, "Wrote CSV")
	case schema.ParquetOut:
		if cfg.OutputFile == "" {
			return errors.New("parquet output requires --output-file")
		}
		if err := parquet.WriteRiskRecordsParquet(parquet.FromRiskRecords(0, records), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing parquet output: %w", err)
		}
		fmt.Fprintf(os.Stderr, "💾 Wrote Parquet to %s\n", cfg.OutputFile)
		return nil
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRecordsTable(w, records, cfg, fmtFloat, intFmt, duration)
		}, "Wrote table")
	}
}

// writeDashboardJSON writes the document the dashboard renderer consumes.
func writeDashboardJSON(w io.Writer, profile schema.WeightProfile, records []schema.RiskRecord) error {
	if records == nil {
		records = []schema.RiskRecord{}
	}
	return writeJSON(w, schema.Dashboard{Profile: profile, PRs: records})
}

// writeRecordsCSV writes one row per record with every feature spelled out.
func writeRecordsCSV(w io.Writer, records []schema.RiskRecord, fmtFloat func(float64) string, intFmt string) error {
	return writeCSVWithHeader(w, recordCSVHeader, func(cw *csv.Writer) error {
		for _, r := range schema.RankRecords(records) {
			merged := ""
			if r.MergedAt != nil {
				merged = r.MergedAt.Format(contract.DateTimeFormat)
			}
			retroFlagged, retroEvidence := "", ""
			if r.Retro != nil {
				retroFlagged = strconv.FormatBool(r.Retro.Flagged)
				retroEvidence = string(r.Retro.Evidence)
			}
			row := []string{
				strconv.Itoa(r.Rank),
				fmt.Sprintf(intFmt, r.Number),
				r.Title,
				r.URL,
				r.Author,
				r.CreatedAt.Format(contract.DateTimeFormat),
				merged,
				fmt.Sprintf(intFmt, r.FilesChanged),
				fmt.Sprintf(intFmt, r.LinesAdded),
				fmt.Sprintf(intFmt, r.LinesDeleted),
				fmtFloat(r.TriageHours),
				fmt.Sprintf(intFmt, r.NewFindings),
				fmtFloat(r.SARaw),
				fmtFloat(r.Features.CI),
				fmtFloat(r.Features.SA),
				fmtFloat(r.Features.Size),
				fmtFloat(r.Features.Spread),
				fmtFloat(r.Features.Hot),
				fmtFloat(r.Features.Semantic),
				string(r.Category),
				string(r.Provenance),
				r.Rationale,
				fmtFloat(r.Score),
				string(r.Zone),
				retroFlagged,
				retroEvidence,
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
		return nil
	})
}

// writeRecordsTable generates and writes the human-readable table.
func writeRecordsTable(w io.Writer, records []schema.RiskRecord, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "PR", "Title", "Score", "Zone", "Category", "Source", "Findings", "Retro"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	titleWidth := GetMaxTableTitleWidth(cfg)
	zoneLabel := contract.GetZoneLabel
	provenanceLabel := func(p schema.Provenance) string { return string(p) }
	if cfg.UseColors {
		zoneLabel = contract.GetColorZoneLabel
		provenanceLabel = contract.GetColorProvenance
	}

	var data [][]string
	for _, r := range schema.RankRecords(records) {
		data = append(data, []string{
			strconv.Itoa(r.Rank),
			"#" + strconv.Itoa(r.Number),
			contract.TruncateText(r.Title, titleWidth),
			fmtFloat(r.Score),
			zoneLabel(r.Zone),
			string(r.Category),
			provenanceLabel(r.Provenance),
			fmt.Sprintf(intFmt, r.NewFindings),
			formatRetro(r.Retro),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	summary := summarizeScores(records)
	if _, err := fmt.Fprintf(w, "Showing top %d pull requests (high zone: %d, mean score: %s, median score: %s)\n",
		len(records), summary.High, fmtFloat(summary.Mean), fmtFloat(summary.Median)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Scored in %v with profile %s. Cache backend: %s\n", duration, cfg.Profile, cfg.CacheBackend); err != nil {
		return err
	}
	return nil
}
