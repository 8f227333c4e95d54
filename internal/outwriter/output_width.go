package outwriter

import (
	"os"

	"github.com/Sandroisu/ai-code-risk-analyzer/internal/contract"
	"golang.org/x/term"
)

const (
	minTitleWidth = 15
	maxTitleWidth = 60
)

// GetMaxTableTitleWidth calculates the maximum width for PR titles in table output
// based on terminal width and the fixed columns around the title.
func GetMaxTableTitleWidth(cfg *contract.Config) int {
	termWidth := cfg.Width
	if termWidth <= 0 {
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Rank + PR + Score + Zone + Category + Source + Findings + Retro, with borders
	baseWidth := 75

	available := termWidth - baseWidth
	if available < minTitleWidth {
		return minTitleWidth
	}
	if available > maxTitleWidth {
		return maxTitleWidth
	}
	return available
}
