// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/Sandroisu/ai-code-risk-analyzer/internal/contract"
	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteRecords prints scored risk records using the configured output format.
func (ow *OutWriter) WriteRecords(records []schema.RiskRecord, cfg *contract.Config, duration time.Duration) error {
	return WriteRiskRecords(records, cfg, duration)
}

// WriteWeights prints the weight profiles using the configured output format.
func (ow *OutWriter) WriteWeights(weights map[schema.WeightProfile]map[schema.FeatureKey]float64, cfg *contract.Config) error {
	return WriteWeightProfiles(weights, cfg)
}
