package cmd

import (
	"github.com/Sandroisu/ai-code-risk-analyzer/core"
	"github.com/Sandroisu/ai-code-risk-analyzer/internal/contract"
	"github.com/spf13/cobra"
)

// hotnessCmd builds the hotness index from local git history.
var hotnessCmd = &cobra.Command{
	Use:   "hotness [repo-path]",
	Short: "Build the hotness index from a local git history.",
	Long: `Count how many commits touched each file inside the hotness window and
write hot_files_90d.json into the corpus directory.

Renames are followed to their new path.

Examples:
  # Current repository, default 90 day window
  riskdash hotness

  # Another clone, 30 day window ending at a release
  riskdash hotness ../app --hot-window "30 days" --now 2024-06-30`,
	Args: cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{"."}
		}
		return sharedSetup(rootCtx, cmd, args)
	},
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteHotness(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot build hotness index", err)
		}
	},
}
