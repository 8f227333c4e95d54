package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Sandroisu/ai-code-risk-analyzer/internal/contract"
	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
	"github.com/montanaflynn/stats"
)

// writeWithFile handles the common pattern of opening a file, writing to it, and cleaning up.
// It accepts a writer function that takes an io.Writer and returns an error.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	// Only close if it's not stdout
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader creates a CSV writer, writes the header, then the rows.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	return writeRows(csvWriter)
}

// createFormatters creates the common formatter closures used across multiple output types.
func createFormatters(precision int) (fmtFloat func(float64) string, intFmt string) {
	intFmt = "%d"
	fmtFloat = func(v float64) string {
		return fmt.Sprintf("%.*f", precision, v)
	}
	return fmtFloat, intFmt
}

// formatWeights renders a weight map as "0.40*size+0.30*spread" in feature order.
// Zero weights are left out.
func formatWeights(weights map[schema.FeatureKey]float64) string {
	var parts []string
	for _, key := range schema.SortedFeatureKeys(weights) {
		if w := weights[key]; w > 0 {
			parts = append(parts, fmt.Sprintf("%.2f*%s", w, key))
		}
	}
	return strings.Join(parts, "+")
}

// formatRetro is the short table form of a retrospective label.
func formatRetro(label *schema.RetroLabel) string {
	switch {
	case label == nil:
		return "-"
	case label.Flagged:
		return string(label.Evidence)
	default:
		return "no"
	}
}

// scoreSummary holds the footer statistics of a table.
type scoreSummary struct {
	High   int
	Mean   float64
	Median float64
}

// summarizeScores returns zone counts and central tendency of the shown scores.
func summarizeScores(records []schema.RiskRecord) scoreSummary {
	var summary scoreSummary
	scores := make(stats.Float64Data, 0, len(records))
	for _, r := range records {
		if r.Zone == schema.HighZone {
			summary.High++
		}
		scores = append(scores, r.Score)
	}
	if len(scores) == 0 {
		return summary
	}
	summary.Mean, _ = stats.Mean(scores)
	summary.Median, _ = stats.Median(scores)
	return summary
}
