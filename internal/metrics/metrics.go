// Package metrics exposes generation statistics in Prometheus form.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder collects per-dataset generation metrics on a private registry.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	RecordsGenerated  *prometheus.CounterVec
	DatasetBytes      *prometheus.GaugeVec
	GenerationSeconds *prometheus.GaugeVec
	RunsTotal         prometheus.Counter
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		RecordsGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "logcourse_records_generated_total",
			Help: "Records synthesized and written, by dataset.",
		}, []string{"dataset"}),
		DatasetBytes: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "logcourse_dataset_bytes",
			Help: "Size on disk of the most recently written dataset file.",
		}, []string{"dataset"}),
		GenerationSeconds: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "logcourse_dataset_generation_seconds",
			Help: "Wall time spent synthesizing and writing the most recent dataset.",
		}, []string{"dataset"}),
		RunsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "logcourse_runs_total",
			Help: "Completed generation runs.",
		}),
	}
}

// ObserveDataset records one finished dataset.
func (r *Recorder) ObserveDataset(name string, records int, bytes int64, took time.Duration) {
	if r == nil {
		return
	}
	r.RecordsGenerated.WithLabelValues(name).Add(float64(records))
	r.DatasetBytes.WithLabelValues(name).Set(float64(bytes))
	r.GenerationSeconds.WithLabelValues(name).Set(took.Seconds())
}

// ObserveRun counts a completed run.
func (r *Recorder) ObserveRun() {
	if r == nil {
		return
	}
	r.RunsTotal.Inc()
}

// Gatherer exposes the registry, e.g. for an HTTP handler.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the current metrics in the node-exporter textfile
// collector format. An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
