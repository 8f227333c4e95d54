package cmd

import (
	"github.com/Sandroisu/ai-code-risk-analyzer/core"
	"github.com/Sandroisu/ai-code-risk-analyzer/internal/contract"
	"github.com/spf13/cobra"
)

// enrichCmd re-annotates records through an LLM endpoint.
var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Re-annotate records with an LLM and re-rank them.",
	Long: `Ask an OpenAI-compatible model (Ollama's /v1 works) for the category,
rationale and semantic score of every record, then recompute scores and zones.

Records whose annotation fails keep the rule-based semantics. Replies are
cached in the annotation cache, keyed by model and prompt.

Examples:
  # Score the corpus and enrich it with the local model
  riskdash enrich

  # Re-annotate an existing dashboard document
  riskdash enrich --input dashboard.json --output json --output-file enriched.json`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteEnrich(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot enrich records", err)
		}
	},
}
