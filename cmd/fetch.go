package cmd

import (
	"github.com/Sandroisu/ai-code-risk-analyzer/core"
	"github.com/Sandroisu/ai-code-risk-analyzer/internal/contract"
	"github.com/spf13/cobra"
)

// fetchCmd downloads the corpus from GitHub.
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download pull requests, issues and commits from GitHub.",
	Long: `Fetch the corpus facts of a repository into the corpus directory:

  pr_enriched.json    PRs with files, added lines, commits, CI and triage time
  issues.json         issues created in the window
  commits.json        default-branch commits in the window
  hot_files_90d.json  touch counts derived from the PR commits

The token is read from RISKDASH_GITHUB_TOKEN or github-token in the config file.

Examples:
  # Last 180 days of acme/app
  riskdash fetch --repo acme/app

  # A fixed window into another directory
  riskdash fetch --repo acme/app --since 2024-01-01 --until 2024-06-30 --corpus q1`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteFetch(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot fetch corpus", err)
		}
	},
}
