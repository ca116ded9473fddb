// Package course runs a full dataset generation for the course: it builds
// the shared entity pools once, writes the three datasets in sequence and
// records the run.
package course

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/nvandessel/logcourse/internal/catalog"
	"github.com/nvandessel/logcourse/internal/dataset"
	"github.com/nvandessel/logcourse/internal/logging"
	"github.com/nvandessel/logcourse/internal/metrics"
	"github.com/nvandessel/logcourse/internal/pathutil"
	"github.com/nvandessel/logcourse/internal/pools"
	"github.com/nvandessel/logcourse/internal/sampler"
	"github.com/nvandessel/logcourse/internal/store"
	"github.com/nvandessel/logcourse/internal/synth"
)

// Dataset names, also used as metric labels and manifest keys.
const (
	Access = "access"
	Audit  = "audit"
	Secure = "secure"
)

// poolStream is the PCG stream used for pool construction; datasets use
// their own non-zero streams.
const poolStream = 0

// Dataset is one fixed output of a run.
type Dataset struct {
	Name        string
	FileName    string
	Format      dataset.Format
	Sourcetype  string
	Description string
	stream      uint64
}

// Datasets lists the outputs in the order they are written.
var Datasets = []Dataset{
	{Name: Access, FileName: "access_30DAY.log", Format: dataset.FormatLines, Sourcetype: "access_combined_wcookie", Description: "Web application access logs", stream: 1},
	{Name: Audit, FileName: "db_audit_30DAY.csv", Format: dataset.FormatCSV, Sourcetype: "db_audit", Description: "Database audit logs", stream: 2},
	{Name: Secure, FileName: "linux_s_30DAY.log", Format: dataset.FormatLines, Sourcetype: "linux_secure", Description: "Linux security logs", stream: 3},
}

// Counts is the number of records per dataset.
type Counts struct {
	Access int
	Audit  int
	Secure int
}

func (c Counts) of(name string) int {
	switch name {
	case Access:
		return c.Access
	case Audit:
		return c.Audit
	default:
		return c.Secure
	}
}

// Options configures a Generator.
type Options struct {
	OutputDir string
	Days      int
	// End closes the sampling window. Zero means the run's start time.
	End time.Time
	// Seed fixes every random draw of the run. Zero derives one from the clock.
	Seed     uint64
	Workers  int
	Compress bool
	Counts   Counts
	// Catalog supplies product codes. Nil uses the embedded catalog.
	Catalog *catalog.Catalog
	// WriteCatalog copies the catalog to OutputDir/products.csv when absent.
	WriteCatalog bool
	// MetricsFile receives a textfile export after the run. Empty skips it.
	MetricsFile string

	Logger  *slog.Logger
	Events  *logging.EventLogger
	Metrics *metrics.Recorder
}

// RunSummary describes a completed run.
type RunSummary struct {
	RunID        string           `json:"run_id"`
	Seed         uint64           `json:"seed"`
	OutputDir    string           `json:"output_dir"`
	Window       sampler.Window   `json:"window"`
	StartedAt    time.Time        `json:"started_at"`
	FinishedAt   time.Time        `json:"finished_at"`
	Datasets     []dataset.Result `json:"datasets"`
	CatalogPath  string           `json:"catalog_path,omitempty"`
	ManifestPath string           `json:"manifest_path"`
}

// TotalRecords sums records across datasets.
func (s *RunSummary) TotalRecords() int {
	n := 0
	for _, d := range s.Datasets {
		n += d.Records
	}
	return n
}

// TotalBytes sums file sizes across datasets.
func (s *RunSummary) TotalBytes() int64 {
	var n int64
	for _, d := range s.Datasets {
		n += d.Bytes
	}
	return n
}

// Generator produces the course datasets.
type Generator struct {
	opts Options
	cat  *catalog.Catalog
	now  func() time.Time
}

// NewGenerator validates opts and returns a Generator.
func NewGenerator(opts Options) (*Generator, error) {
	if opts.OutputDir == "" {
		return nil, errors.New("output directory is required")
	}
	if opts.Days < 0 {
		return nil, fmt.Errorf("days must be non-negative, got %d", opts.Days)
	}
	if opts.Counts.Access < 0 || opts.Counts.Audit < 0 || opts.Counts.Secure < 0 {
		return nil, fmt.Errorf("record counts must be non-negative, got %+v", opts.Counts)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	cat := opts.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	return &Generator{opts: opts, cat: cat, now: time.Now}, nil
}

// Run writes every dataset, records the run in the output directory's
// manifest and returns its summary. The first failure aborts the run;
// datasets already written are left in place.
func (g *Generator) Run(ctx context.Context) (*RunSummary, error) {
	started := g.now()
	log := g.opts.Logger

	outDir, err := filepath.Abs(g.opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("resolving output directory: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", pathutil.RedactPath(outDir), err)
	}

	end := g.opts.End
	if end.IsZero() {
		end = started
	}
	window, err := sampler.NewWindow(end, g.opts.Days)
	if err != nil {
		return nil, err
	}

	seed := g.opts.Seed
	if seed == 0 {
		seed = uint64(started.UnixNano())
	}

	p := pools.New(rand.New(rand.NewPCG(seed, poolStream)), g.cat)
	synths := map[string]synth.Synthesizer{
		Access: synth.NewWebAccess(p, window),
		Audit:  synth.NewDBAudit(p, window),
		Secure: synth.NewSecurityLog(p, window),
	}

	log.Info("generating course data",
		"days", g.opts.Days, "output_dir", pathutil.RedactPath(outDir), "seed", seed, "workers", g.opts.Workers)

	summary := &RunSummary{
		Seed:      seed,
		OutputDir: outDir,
		Window:    window,
		StartedAt: started,
	}

	for _, ds := range Datasets {
		spec := dataset.Spec{
			Name:     ds.Name,
			FileName: ds.FileName,
			Format:   ds.Format,
			Count:    g.opts.Counts.of(ds.Name),
			Compress: g.opts.Compress,
		}
		g.opts.Events.Emit(logging.Event{Kind: logging.EventDatasetStarted, Dataset: ds.Name, Records: spec.Count})

		res, err := dataset.Write(ctx, outDir, spec, synths[ds.Name], dataset.Options{
			Seed:    seed,
			Stream:  ds.stream,
			Workers: g.opts.Workers,
			Logger:  log,
		})
		if err != nil {
			return nil, err
		}

		log.Info("dataset written", "dataset", ds.Name, "records", res.Records, "bytes", res.Bytes, "duration", res.Duration)
		g.opts.Metrics.ObserveDataset(ds.Name, res.Records, res.Bytes, res.Duration)
		g.opts.Events.Emit(logging.Event{
			Kind:       logging.EventDatasetWritten,
			Dataset:    ds.Name,
			Path:       res.Path,
			Records:    res.Records,
			Bytes:      res.Bytes,
			Checksum:   res.Checksum,
			DurationMS: res.Duration.Milliseconds(),
		})
		summary.Datasets = append(summary.Datasets, res)
	}

	if g.opts.WriteCatalog {
		path, err := writeCatalog(outDir, g.cat)
		if err != nil {
			return nil, err
		}
		summary.CatalogPath = path
	}

	summary.FinishedAt = g.now()
	if err := g.record(ctx, summary); err != nil {
		return nil, err
	}

	g.opts.Metrics.ObserveRun()
	if err := g.opts.Metrics.WriteTextfile(g.opts.MetricsFile); err != nil {
		// Export failure does not fail the run.
		log.Warn("metrics export failed", "error", err)
	}

	g.opts.Events.Emit(logging.Event{
		Kind:       logging.EventRunCompleted,
		RunID:      summary.RunID,
		Seed:       seed,
		Records:    summary.TotalRecords(),
		Bytes:      summary.TotalBytes(),
		DurationMS: summary.FinishedAt.Sub(started).Milliseconds(),
	})
	log.Info("data generation complete", "run_id", summary.RunID, "records", summary.TotalRecords())

	return summary, nil
}

func (g *Generator) record(ctx context.Context, s *RunSummary) error {
	m, err := store.Open(s.OutputDir)
	if err != nil {
		return fmt.Errorf("opening run manifest: %w", err)
	}
	defer m.Close()

	run := store.Run{
		StartedAt:   s.StartedAt,
		FinishedAt:  s.FinishedAt,
		Seed:        s.Seed,
		Days:        g.opts.Days,
		WindowStart: s.Window.Start,
		WindowEnd:   s.Window.End,
		Workers:     g.opts.Workers,
		OutputDir:   s.OutputDir,
	}
	for _, d := range s.Datasets {
		run.Datasets = append(run.Datasets, store.DatasetEntry{
			Name:     d.Name,
			Path:     d.Path,
			Format:   string(d.Format),
			Records:  d.Records,
			Bytes:    d.Bytes,
			Checksum: d.Checksum,
			Duration: d.Duration,
		})
	}

	id, err := m.RecordRun(ctx, run)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	s.RunID = id
	s.ManifestPath = m.Path()
	return nil
}

// writeCatalog writes cat to dir/products.csv unless a file is already there.
// It returns the path when it wrote one and "" when it left an existing file.
func writeCatalog(dir string, cat *catalog.Catalog) (string, error) {
	target, err := pathutil.JoinWithin(dir, catalog.FileName)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(target); err == nil {
		return "", nil
	}

	tmp, err := os.CreateTemp(dir, "."+catalog.FileName+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating catalog temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := cat.WriteCSV(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("writing catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("closing catalog: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("setting catalog permissions: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("replacing %s: %w", pathutil.RedactPath(target), err)
	}
	return target, nil
}
