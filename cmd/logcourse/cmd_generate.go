package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nvandessel/logcourse/internal/catalog"
	"github.com/nvandessel/logcourse/internal/config"
	"github.com/nvandessel/logcourse/internal/course"
	"github.com/nvandessel/logcourse/internal/logging"
	"github.com/nvandessel/logcourse/internal/metrics"
	"github.com/nvandessel/logcourse/internal/store"
	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the course datasets",
		Long: `Generate access_30DAY.log, db_audit_30DAY.csv and linux_s_30DAY.log.

Timestamps are drawn uniformly over the last --days days. Session tokens and
product codes are shared across the three files so lab searches can join
them. Existing files are replaced only once the new file is complete.

Examples:
  logcourse generate --output-dir labs/data
  logcourse generate --days 7 --seed 42 --workers 4
  logcourse generate --access-count 1000 --audit-count 500 --secure-count 500 --compress`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := applyGenerateFlags(cmd, cfg); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			g := cfg.Generation
			var cat *catalog.Catalog
			if g.CatalogPath != "" {
				if cat, err = catalog.Load(g.CatalogPath); err != nil {
					return fmt.Errorf("failed to load catalog: %w", err)
				}
			}

			logger := newLogger(cmd, cfg)
			events := logging.NewEventLogger(filepath.Join(g.OutputDir, store.StateDirName), cfg.Logging.Level)
			defer events.Close()

			gen, err := course.NewGenerator(course.Options{
				OutputDir:    g.OutputDir,
				Days:         g.Days,
				Seed:         g.Seed,
				Workers:      g.Workers,
				Compress:     g.Compress,
				Counts:       course.Counts{Access: g.Counts.Access, Audit: g.Counts.Audit, Secure: g.Counts.Secure},
				Catalog:      cat,
				WriteCatalog: g.WriteCatalog,
				MetricsFile:  cfg.Metrics.Textfile,
				Logger:       logger,
				Events:       events,
				Metrics:      metrics.New(),
			})
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			jsonOut, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()
			if !jsonOut {
				fmt.Fprintf(out, "Generating %d days of data for Splunk Fundamentals course...\n", g.Days)
				fmt.Fprintf(out, "Output directory: %s\n", g.OutputDir)
				fmt.Fprintln(out, strings.Repeat("=", 60))
			}

			summary, err := gen.Run(ctx)
			if err != nil {
				return fmt.Errorf("generation failed: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(out).Encode(summary)
			}
			printSummary(out, summary)
			return nil
		},
	}

	cmd.Flags().Int("days", config.DefaultDays, "Days of history to span")
	cmd.Flags().String("output-dir", ".", "Directory to write datasets into")
	cmd.Flags().Uint64("seed", 0, "Random seed (0 derives one from the clock)")
	cmd.Flags().Int("workers", config.DefaultWorkers, "Goroutines synthesizing each dataset")
	cmd.Flags().Int("access-count", config.DefaultAccessCount, "Web access records")
	cmd.Flags().Int("audit-count", config.DefaultAuditCount, "Database audit records")
	cmd.Flags().Int("secure-count", config.DefaultSecureCount, "Linux security records")
	cmd.Flags().String("catalog", "", "products.csv to draw product codes from (default: built-in catalog)")
	cmd.Flags().Bool("compress", false, "Write gzip-compressed datasets (.gz)")
	cmd.Flags().Bool("write-catalog", false, "Write products.csv to the output directory if it is missing")
	cmd.Flags().String("metrics-file", "", "Write Prometheus textfile metrics to this path")

	return cmd
}

// applyGenerateFlags overlays flags the user actually set onto cfg, so
// unset flags do not clobber file or environment values.
func applyGenerateFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	g := &cfg.Generation

	ints := map[string]*int{
		"days":         &g.Days,
		"workers":      &g.Workers,
		"access-count": &g.Counts.Access,
		"audit-count":  &g.Counts.Audit,
		"secure-count": &g.Counts.Secure,
	}
	for name, dst := range ints {
		if !f.Changed(name) {
			continue
		}
		v, err := f.GetInt(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	if f.Changed("seed") {
		v, err := f.GetUint64("seed")
		if err != nil {
			return err
		}
		g.Seed = v
	}
	if f.Changed("output-dir") {
		g.OutputDir, _ = f.GetString("output-dir")
	}
	if f.Changed("catalog") {
		g.CatalogPath, _ = f.GetString("catalog")
	}
	if f.Changed("compress") {
		g.Compress, _ = f.GetBool("compress")
	}
	if f.Changed("write-catalog") {
		g.WriteCatalog, _ = f.GetBool("write-catalog")
	}
	if f.Changed("metrics-file") {
		cfg.Metrics.Textfile, _ = f.GetString("metrics-file")
	}
	return nil
}

// signalContext cancels ctx on interrupt so a run stops between chunks and
// leaves no partial file behind.
func signalContext(parent context.Context) (context.Context, func()) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 1)
	notifySignals(ch)

	done := make(chan struct{})
	go func() {
		select {
		case <-ch:
			cancel()
		case <-done:
		}
	}()

	return ctx, func() {
		signal.Stop(ch)
		close(done)
		cancel()
	}
}

func printSummary(w io.Writer, s *course.RunSummary) {
	fmt.Fprintln(w, "Data generation complete!")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generated files:")
	for i, res := range s.Datasets {
		fmt.Fprintf(w, "- %s (%s): %s records, %s, %s\n",
			filepath.Base(res.Path), course.Datasets[i].Description,
			humanize.Comma(int64(res.Records)), humanize.Bytes(uint64(res.Bytes)), res.Duration.Round(time.Millisecond))
	}
	fmt.Fprintln(w)
	if s.CatalogPath != "" {
		fmt.Fprintf(w, "Wrote %s\n", s.CatalogPath)
	} else {
		fmt.Fprintln(w, "Note: products.csv is a static file and does not need regeneration")
	}
	fmt.Fprintf(w, "Run %s (seed %d), window %s to %s\n",
		s.RunID, s.Seed, s.Window.Start.Format("2006-01-02 15:04:05"), s.Window.End.Format("2006-01-02 15:04:05"))
	fmt.Fprintln(w)
	printLoadingInstructions(w)
}

func printLoadingInstructions(w io.Writer) {
	fmt.Fprintln(w, "Data loading instructions:")
	fmt.Fprintln(w, "1. Copy files to your Splunk instance")
	fmt.Fprintln(w, "2. Use Settings > Add Data > Upload")
	step := 3
	labels := map[string]string{course.Access: "access logs", course.Audit: "db audit", course.Secure: "linux logs"}
	for _, ds := range course.Datasets {
		fmt.Fprintf(w, "%d. For %s: Set sourcetype=%s, index=main\n", step, labels[ds.Name], ds.Sourcetype)
		step++
	}
	fmt.Fprintf(w, "%d. Upload %s via Settings > Lookups > Lookup table files\n", step, catalog.FileName)
}
