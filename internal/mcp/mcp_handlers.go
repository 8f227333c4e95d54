package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Sandroisu/ai-code-risk-analyzer/core"
	"github.com/Sandroisu/ai-code-risk-analyzer/core/semantic"
	"github.com/Sandroisu/ai-code-risk-analyzer/internal/contract"
	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

// parseProfile returns the named profile, or def when name is empty.
func parseProfile(name string, def schema.WeightProfile) (schema.WeightProfile, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return def, nil
	}
	p := schema.WeightProfile(name)
	if _, ok := schema.ValidWeightProfiles[p]; !ok {
		return "", fmt.Errorf("%w: %q", schema.ErrUnknownProfile, name)
	}
	return p, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleScoreCorpus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if d := request.GetString("corpus_dir", ""); d != "" {
		cfg.CorpusDir = d
	}
	profile, err := parseProfile(request.GetString("profile", ""), cfg.Profile)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	cfg.Profile = profile
	if l := request.GetInt("limit", 0); l > 0 {
		cfg.ResultLimit = min(l, contract.MaxResultLimit)
	}

	ranked, _, err := core.GetRiskRecordsResults(ctx, cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scoring failed: %v", err)), nil
	}
	return jsonResult(schema.Dashboard{Profile: cfg.Profile, PRs: ranked})
}

func (h *toolHandler) handleClassifyTitle(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := strings.TrimSpace(request.GetString("title", ""))
	if title == "" {
		return mcp.NewToolResultError("title is required"), nil
	}
	return jsonResult(map[string]any{
		"title":    title,
		"category": semantic.Classify(title),
	})
}

func (h *toolHandler) handleGetWeights(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("profile", "")
	if strings.TrimSpace(name) == "" {
		return jsonResult(h.baseCfg.ComputedWeights)
	}
	profile, err := parseProfile(name, "")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	weights, ok := h.baseCfg.ComputedWeights[profile]
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no weights computed for profile %s", profile)), nil
	}
	return jsonResult(weights)
}
