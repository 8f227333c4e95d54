package cmd

import (
	"github.com/Sandroisu/ai-code-risk-analyzer/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the riskdash MCP server",
	Long: `Launch an MCP server on stdio so AI agents can score corpora, classify
PR titles and inspect weight profiles through standard tools.`,
	Args: cobra.NoArgs,
	// Run headers go to stderr, stdout carries the protocol
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}
