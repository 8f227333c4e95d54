package semantic

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/Sandroisu/ai-code-risk-analyzer/core/algo"
	"github.com/Sandroisu/ai-code-risk-analyzer/internal/contract"
	"github.com/Sandroisu/ai-code-risk-analyzer/internal/metrics"
	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// cacheVersion is bumped whenever the cached reply layout changes.
const cacheVersion = 1

// ScorePrecision is the number of decimals kept on a recomputed score.
const ScorePrecision = 4

// Enricher replaces rule annotations with external ones where the annotator succeeds.
type Enricher struct {
	Annotator contract.Annotator
	Cache     contract.CacheStore // optional
	Weights   map[schema.FeatureKey]float64
	Workers   int
	Metrics   *metrics.Recorder // optional
}

// Stats summarizes one enrichment pass.
type Stats struct {
	Annotated int
	Fallbacks int
	CacheHits int
}

type outcome struct {
	annotation schema.Annotation
	ok         bool
	cached     bool
}

// Enrich annotates every record, recomputes scores, zones and order, and returns
// the updated copy. Per-record failures fall back to the rule strategy; only a
// cancelled context is returned as an error.
func (e *Enricher) Enrich(ctx context.Context, records []schema.RiskRecord) ([]schema.RiskRecord, Stats, error) {
	out := make([]schema.RiskRecord, len(records))
	copy(out, records)
	outcomes := make([]outcome, len(out))

	workers := e.Workers
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range out {
		g.Go(func() error {
			outcomes[i] = e.annotateOne(gctx, out[i])
			return nil
		})
	}
	_ = g.Wait()

	var stats Stats
	for i := range out {
		oc := outcomes[i]
		if oc.cached {
			stats.CacheHits++
			e.Metrics.IncCacheHit()
		}
		if oc.ok {
			e.applyAnnotation(&out[i], oc.annotation)
			stats.Annotated++
		} else {
			e.applyRule(&out[i])
			stats.Fallbacks++
		}
		e.Metrics.IncAnnotation(string(out[i].Provenance))
	}

	algo.ClassifyZones(out)
	algo.SortByScore(out)
	return out, stats, ctx.Err()
}

func (e *Enricher) annotateOne(ctx context.Context, rec schema.RiskRecord) outcome {
	req := RequestFor(rec)
	key := CacheKey(e.Annotator.Model(), BuildPrompt(req))
	logger := log.WithFields(log.Fields{"component": "enrich", "pr": rec.Number})

	if ann, ok := e.cached(key); ok {
		return outcome{annotation: ann, ok: true, cached: true}
	}
	if ctx.Err() != nil {
		return outcome{}
	}

	ann, err := e.Annotator.Annotate(ctx, req)
	if err != nil {
		logger.WithError(err).Warn("annotation failed, keeping rule output")
		return outcome{}
	}
	if e.Cache != nil {
		if data, err := json.Marshal(ann); err == nil {
			if err := e.Cache.Set(key, data, cacheVersion, time.Now().Unix()); err != nil {
				logger.WithError(err).Debug("failed to cache annotation")
			}
		}
	}
	return outcome{annotation: ann, ok: true}
}

func (e *Enricher) cached(key string) (schema.Annotation, bool) {
	if e.Cache == nil {
		return schema.Annotation{}, false
	}
	data, version, _, err := e.Cache.Get(key)
	if err != nil || version != cacheVersion {
		return schema.Annotation{}, false
	}
	// cached entries went through ParseReply before being stored
	ann, err := ParseReply(string(data))
	if err != nil {
		return schema.Annotation{}, false
	}
	return ann, true
}

func (e *Enricher) applyAnnotation(rec *schema.RiskRecord, ann schema.Annotation) {
	rec.Category = ann.Category
	rec.Rationale = ann.Rationale
	rec.Provenance = schema.LLMProvenance
	rec.Features.Semantic = ann.Score
	rec.Score = algo.Round(algo.ComputeScore(rec.Features, e.Weights), ScorePrecision)
}

func (e *Enricher) applyRule(rec *schema.RiskRecord) {
	res := RuleResult(rec.Title, rec.Features.Size, rec.Features.Spread)
	rec.Category = res.Category
	rec.Provenance = res.Provenance
	rec.Features.Semantic = res.Score
	rec.Score = algo.Round(algo.ComputeScore(rec.Features, e.Weights), ScorePrecision)
	rec.Rationale = SummaryText(rec.Title, rec.FilesChanged, rec.LinesAdded, rec.LinesDeleted, rec.Score)
}

// RequestFor builds the annotation request of a scored record.
func RequestFor(rec schema.RiskRecord) schema.AnnotationRequest {
	return schema.AnnotationRequest{
		Title:        rec.Title,
		FilesChanged: rec.FilesChanged,
		LinesAdded:   rec.LinesAdded,
		LinesDeleted: rec.LinesDeleted,
		Score:        rec.Score,
	}
}

// CacheKey identifies a reply by model and prompt.
func CacheKey(model, prompt string) string {
	sum := sha256.Sum256([]byte(model + "\n" + prompt))
	return "annotation:" + hex.EncodeToString(sum[:])
}
