package cmd

import (
	"github.com/Sandroisu/ai-code-risk-analyzer/core"
	"github.com/Sandroisu/ai-code-risk-analyzer/internal/contract"
	"github.com/spf13/cobra"
)

// weightsCmd displays the weight profiles.
var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Display the weight profiles and the score formula",
	Long: `Show the feature weights of every profile, including custom weights
from the config file, and how zones are assigned.

No corpus is read - this is purely informational.

Examples:
  # Show default weights
  riskdash weights

  # View with custom weights from config file
  riskdash weights --config .riskdash.yaml`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteWeights(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot display weights", err)
		}
	},
}
