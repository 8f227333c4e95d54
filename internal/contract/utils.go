package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
	"github.com/fatih/color"
)

// Color variables for console output.
var (
	HighZoneColor = color.New(color.FgRed, color.Bold) // strong warning for the top tier
	MidZoneColor  = color.New(color.FgCyan)            // informational
	LLMColor      = color.New(color.FgMagenta)
)

// GetZoneLabel returns the display label of a zone.
func GetZoneLabel(zone schema.Zone) string {
	switch zone {
	case schema.HighZone:
		return "High"
	case schema.MidZone:
		return "Mid"
	default:
		return "-"
	}
}

// GetColorZoneLabel returns a colored zone label for console output (table).
func GetColorZoneLabel(zone schema.Zone) string {
	text := GetZoneLabel(zone)
	switch zone {
	case schema.HighZone:
		return HighZoneColor.Sprint(text)
	case schema.MidZone:
		return MidZoneColor.Sprint(text)
	default:
		return text
	}
}

// GetColorProvenance highlights externally-sourced semantics.
func GetColorProvenance(p schema.Provenance) string {
	if p == schema.LLMProvenance {
		return LLMColor.Sprint(string(p))
	}
	return string(p)
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for the annotation cache.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".riskdash_cache.db"
	}
	return filepath.Join(homeDir, ".riskdash_cache.db")
}

// GetAnalysisDBFilePath returns the path to the SQLite DB file for analysis storage.
func GetAnalysisDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".riskdash_analysis.db"
	}
	return filepath.Join(homeDir, ".riskdash_analysis.db")
}

// TruncateText truncates text to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so there is room for the ellipsis and at least one character.
func TruncateText(text string, maxWidth int) string {
	runes := []rune(text)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return text
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
