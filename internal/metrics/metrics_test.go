package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounters(t *testing.T) {
	r := New()
	r.AddScored(3)
	r.IncSkipped("finding")
	r.IncSkipped("finding")
	r.IncSkipped("pull_request")
	r.AddAttributed(7)
	r.IncAnnotation("llm")
	r.IncAnnotation("rule")
	r.IncAnnotation("llm")
	r.IncCacheHit()

	assert.Equal(t, 3.0, testutil.ToFloat64(r.prsScored))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.recordsSkipped.WithLabelValues("finding")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.recordsSkipped.WithLabelValues("pull_request")))
	assert.Equal(t, 7.0, testutil.ToFloat64(r.findingsAttributed))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.annotations.WithLabelValues("llm")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.annotations.WithLabelValues("rule")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cacheHits))
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.AddScored(1)
		r.IncSkipped("issue")
		r.AddAttributed(1)
		r.IncAnnotation("llm")
		r.IncCacheHit()
		r.ObserveStage("score", time.Now())
	})
	assert.NoError(t, r.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.AddScored(2)
	r.ObserveStage("score", time.Now())
	path := filepath.Join(t.TempDir(), "riskdash.prom")

	require.NoError(t, r.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "riskdash_pipeline_prs_scored_total 2")
	assert.Contains(t, string(data), "riskdash_pipeline_stage_duration_seconds_count{stage=\"score\"} 1")
}

func TestWriteTextfileEmptyPath(t *testing.T) {
	assert.NoError(t, New().WriteTextfile(""))
}
