package cmd

import (
	"github.com/Sandroisu/ai-code-risk-analyzer/core"
	"github.com/Sandroisu/ai-code-risk-analyzer/internal/contract"
	"github.com/spf13/cobra"
)

// scoreCmd scores the corpus and ranks pull requests.
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Rank the corpus pull requests by release risk.",
	Long: `Score every pull request of the corpus directory and rank them by release risk.

Each PR gets six normalized features (CI, static analysis, size, spread,
hotness, semantics), a weighted score, a zone relative to the batch and a
retrospective regression label. The rule classifier supplies the semantics;
use 'enrich' to replace them with model annotations.

Profiles:
  ci-aware     CI outcomes and static-analysis findings carry weight
  github-only  lighter profile for corpora without CI or findings

Examples:
  # Rank the corpus in ./data
  riskdash score

  # Use the lighter profile and show the top 20
  riskdash score --profile github-only --limit 20

  # Write the dashboard document
  riskdash score --output json --output-file dashboard.json`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteScore(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot score corpus", err)
		}
	},
}
