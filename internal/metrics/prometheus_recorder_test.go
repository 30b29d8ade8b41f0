package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration(StageRead, 150*time.Millisecond)
	pr.IncStageResult(StageRead, ResultSuccess)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncBuildOutcome(BuildOutcomeSuccess)
	pr.ObservePluginDuration("markdown", time.Millisecond, true)
	pr.AddFiles(StageRead, 4)
	pr.AddFiles(StageRead, 2)
	pr.SetConcurrency(3)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, mfs, 7)

	path := filepath.Join(t.TempDir(), "docsmith.prom")
	require.NoError(t, WriteTextfile(path, reg))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `docsmith_files_total{stage="read"} 6`)
	assert.Contains(t, out, `docsmith_concurrency_limit 3`)
	assert.Contains(t, out, `docsmith_plugin_duration_seconds_count{plugin="markdown",result="success"} 1`)
}

func TestPrometheusRecorder_NilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.IncBuildOutcome(BuildOutcomeFailed)
	pr.AddFiles(StageWrite, 1)
}

func TestWriteTextfile(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncBuildOutcome(BuildOutcomeSuccess)

	path := filepath.Join(t.TempDir(), "docsmith.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `docsmith_build_outcomes_total{outcome="success"} 1`)
}
