package cmd

import (
	"github.com/Sandroisu/ai-code-risk-analyzer/core"
	"github.com/Sandroisu/ai-code-risk-analyzer/internal/contract"
	"github.com/spf13/cobra"
)

// findingsCmd converts static-analysis reports into corpus findings.
var findingsCmd = &cobra.Command{
	Use:   "findings",
	Short: "Convert detekt and ktlint reports into corpus findings.",
	Long: `Parse static-analysis reports and write detekt_findings.json and
ktlint_findings.json into the corpus directory.

detekt findings listed in the baseline are marked as not new; every ktlint
finding is new. The tools themselves are not run.

Examples:
  riskdash findings --detekt build/reports/detekt.xml --baseline detekt-baseline.xml
  riskdash findings --ktlint build/ktlint.json`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteFindings(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot convert findings", err)
		}
	},
}
