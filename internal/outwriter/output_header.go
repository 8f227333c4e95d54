package outwriter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Sandroisu/ai-code-risk-analyzer/internal/contract"
)

// headerWriter is where run headers go. Headers never share stdout with the records.
var headerWriter io.Writer = os.Stderr

// LogRunHeader prints a concise, 2-line header for a scoring or enrichment run.
func LogRunHeader(cfg *contract.Config, source string) {
	name := filepath.Base(source)
	if name == "" || name == "." {
		name = "current"
	}

	// Line 1: The input and the weight profile
	fmt.Fprintf(headerWriter, "🔎 Corpus: %s (Profile: %s)\n", name, cfg.Profile)

	// Line 2: The hotness reference instant and window
	fmt.Fprintf(headerWriter, "📅 Hotness: %s back from %s\n", formatWindow(cfg), cfg.Now.Format(contract.DateTimeFormat))
}

// LogFetchHeader prints the repository and window a fetch covers.
func LogFetchHeader(cfg *contract.Config) {
	fmt.Fprintf(headerWriter, "🔎 Repo: %s\n", cfg.Repo)
	fmt.Fprintf(headerWriter, "📅 Range: %s → %s\n", cfg.StartTime.Format(contract.DateTimeFormat), cfg.EndTime.Format(contract.DateTimeFormat))
}

func formatWindow(cfg *contract.Config) string {
	days := int(cfg.HotWindow.Hours() / 24)
	if days > 0 && float64(days)*24 == cfg.HotWindow.Hours() {
		return fmt.Sprintf("%dd", days)
	}
	return cfg.HotWindow.String()
}
