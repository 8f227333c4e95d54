// Package metrics holds the prometheus counters of a riskdash run.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "riskdash"

// Recorder bundles the pipeline metrics on a private registry so a CLI run can
// dump them to a node-exporter textfile. A nil *Recorder is valid and records nothing.
type Recorder struct {
	Registry *prometheus.Registry

	// prsScored counts pull requests that produced a risk record.
	prsScored prometheus.Counter

	// recordsSkipped counts inputs dropped during ingest or scoring.
	// Labels: kind (pull_request, finding, issue, commit)
	recordsSkipped *prometheus.CounterVec

	// findingsAttributed counts findings attributed to any PR, duplicates included.
	findingsAttributed prometheus.Counter

	// annotations counts semantic annotation outcomes.
	// Labels: provenance (rule, llm)
	annotations *prometheus.CounterVec

	// cacheHits counts annotation replies served from the cache.
	cacheHits prometheus.Counter

	// stageDuration measures each pipeline stage.
	// Labels: stage (score, enrich, fetch, hotness, findings)
	stageDuration *prometheus.HistogramVec
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		Registry: reg,
		prsScored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "prs_scored_total",
			Help:      "Pull requests that produced a risk record",
		}),
		recordsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "records_skipped_total",
			Help:      "Malformed input records skipped",
		}, []string{"kind"}),
		findingsAttributed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "findings_attributed_total",
			Help:      "Static-analysis findings attributed to pull requests",
		}),
		annotations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "semantic",
			Name:      "annotations_total",
			Help:      "Semantic annotations by provenance",
		}, []string{"provenance"}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "semantic",
			Name:      "cache_hits_total",
			Help:      "Annotation replies served from the cache",
		}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Wall time of a pipeline stage",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"stage"}),
	}
}

// AddScored adds n scored pull requests.
func (r *Recorder) AddScored(n int) {
	if r == nil {
		return
	}
	r.prsScored.Add(float64(n))
}

// IncSkipped counts one skipped input record of the given kind.
func (r *Recorder) IncSkipped(kind string) {
	if r == nil {
		return
	}
	r.recordsSkipped.WithLabelValues(kind).Inc()
}

// AddAttributed adds n attributed findings.
func (r *Recorder) AddAttributed(n int) {
	if r == nil {
		return
	}
	r.findingsAttributed.Add(float64(n))
}

// IncAnnotation counts one annotation outcome.
func (r *Recorder) IncAnnotation(provenance string) {
	if r == nil {
		return
	}
	r.annotations.WithLabelValues(provenance).Inc()
}

// IncCacheHit counts one annotation cache hit.
func (r *Recorder) IncCacheHit() {
	if r == nil {
		return
	}
	r.cacheHits.Inc()
}

// ObserveStage records how long a stage took since start.
func (r *Recorder) ObserveStage(stage string, start time.Time) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.Registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
