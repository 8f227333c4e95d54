// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/Sandroisu/ai-code-risk-analyzer/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the riskdash MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Release Risk Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: score_corpus ---
	s.AddTool(mcp.NewTool("score_corpus",
		mcp.WithDescription("Score the pull requests of a corpus directory and return them ranked by release risk."),
		mcp.WithString("corpus_dir", mcp.Description("Directory holding pr_enriched.json and the optional corpus files (defaults to the configured corpus).")),
		mcp.WithString("profile", mcp.Description("Weight profile. Defaults to the configured profile."), mcp.Enum("ci-aware", "github-only")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of records returned.")),
	), h.handleScoreCorpus)

	// --- 2. Tool: classify_title ---
	s.AddTool(mcp.NewTool("classify_title",
		mcp.WithDescription("Classify a pull request title into its rule-based semantic category."),
		mcp.WithString("title", mcp.Description("The pull request title."), mcp.Required()),
	), h.handleClassifyTitle)

	// --- 3. Tool: get_weights ---
	s.AddTool(mcp.NewTool("get_weights",
		mcp.WithDescription("Return the feature weights of a profile, or of every profile when none is named."),
		mcp.WithString("profile", mcp.Description("Weight profile to return."), mcp.Enum("ci-aware", "github-only")),
	), h.handleGetWeights)

	return s
}

// StartMCPServer starts the riskdash MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
