package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/Sandroisu/ai-code-risk-analyzer/internal/contract"
	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
)

// profileDescriptions explain when each profile applies.
var profileDescriptions = map[schema.WeightProfile]string{
	schema.CIAwareProfile:    "CI outcomes, new static-analysis findings and change shape",
	schema.GitHubOnlyProfile: "change shape only, for repositories without CI or analysis data",
}

// weightsRenderModel is the format-independent view of the weight profiles.
type weightsRenderModel struct {
	Profiles []weightsProfileModel `json:"profiles"`
	Zone     string                `json:"zone"`
}

type weightsProfileModel struct {
	Profile     schema.WeightProfile          `json:"profile"`
	Active      bool                          `json:"active"`
	Description string                        `json:"description"`
	Formula     string                        `json:"formula"`
	Weights     map[schema.FeatureKey]float64 `json:"weights"`
	Sum         float64                       `json:"sum"`
}

// buildWeightsRenderModel lists every known profile in order, with the
// configured weights when present and the defaults otherwise.
func buildWeightsRenderModel(weights map[schema.WeightProfile]map[schema.FeatureKey]float64, active schema.WeightProfile) weightsRenderModel {
	model := weightsRenderModel{Zone: "high when score >= ascending scores[floor(0.7*N)], else mid"}
	for _, profile := range schema.AllWeightProfiles {
		w, ok := weights[profile]
		if !ok {
			var err error
			if w, err = schema.GetDefaultWeights(profile); err != nil {
				continue
			}
		}
		summary := schema.SummarizeProfile(profile, w)
		model.Profiles = append(model.Profiles, weightsProfileModel{
			Profile:     profile,
			Active:      profile == active,
			Description: profileDescriptions[profile],
			Formula:     "score = " + formatWeights(w),
			Weights:     summary.Weights,
			Sum:         summary.Sum,
		})
	}
	return model
}

// WriteWeightProfiles prints the weight profiles in the configured format.
func WriteWeightProfiles(weights map[schema.WeightProfile]map[schema.FeatureKey]float64, cfg *contract.Config) error {
	model := buildWeightsRenderModel(weights, cfg.Profile)
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, model)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeWeightsCSV(w, model)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeWeightsText(w, model)
		}, "Wrote weights")
	}
}

func writeWeightsText(w io.Writer, model weightsRenderModel) error {
	for _, p := range model.Profiles {
		marker := " "
		if p.Active {
			marker = "*"
		}
		if _, err := fmt.Fprintf(w, "%s %s: %s\n", marker, p.Profile, p.Description); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "    %s (sum %.2f)\n", p.Formula, p.Sum); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\nZones: %s\n", model.Zone)
	return err
}

func writeWeightsCSV(w io.Writer, model weightsRenderModel) error {
	return writeCSVWithHeader(w, []string{"profile", "feature", "weight", "active"}, func(cw *csv.Writer) error {
		for _, p := range model.Profiles {
			for _, key := range schema.SortedFeatureKeys(p.Weights) {
				row := []string{string(p.Profile), string(key), fmt.Sprintf("%.4f", p.Weights[key]), fmt.Sprintf("%t", p.Active)}
				if err := cw.Write(row); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
