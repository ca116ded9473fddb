package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_WriteTextfile(t *testing.T) {
	r := New()
	r.ObserveDataset("access", 100, 2048, 1500*time.Millisecond)
	r.ObserveDataset("access", 50, 1024, time.Second)
	r.ObserveDataset("audit", 10, 512, 250*time.Millisecond)
	r.ObserveRun()

	path := filepath.Join(t.TempDir(), "logcourse.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, `logcourse_records_generated_total{dataset="access"} 150`)
	assert.Contains(t, text, `logcourse_records_generated_total{dataset="audit"} 10`)
	assert.Contains(t, text, `logcourse_dataset_bytes{dataset="access"} 1024`)
	assert.Contains(t, text, `logcourse_dataset_generation_seconds{dataset="audit"} 0.25`)
	assert.Contains(t, text, "logcourse_runs_total 1")
}

func TestRecorder_NilSafe(t *testing.T) {
	var r *Recorder
	r.ObserveDataset("access", 1, 1, time.Second)
	r.ObserveRun()
	assert.NoError(t, r.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}

func TestRecorder_EmptyPathNoop(t *testing.T) {
	assert.NoError(t, New().WriteTextfile(""))
}

func TestRecorder_Gather(t *testing.T) {
	r := New()
	r.ObserveRun()
	families, err := r.Gatherer().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
