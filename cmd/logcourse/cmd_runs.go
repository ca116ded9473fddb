package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nvandessel/logcourse/internal/store"
	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded generation runs",
		Long: `List the generation runs recorded in <output-dir>/.logcourse/manifest.db,
newest first.

Examples:
  logcourse runs
  logcourse runs --output-dir labs/data --limit 5 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputDir, err := resolveOutputDir(cmd)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")
			jsonOut, _ := cmd.Flags().GetBool("json")

			m, err := store.Open(outputDir)
			if err != nil {
				return fmt.Errorf("failed to open manifest: %w", err)
			}
			defer m.Close()

			runs, err := m.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				if runs == nil {
					runs = []store.Run{}
				}
				return json.NewEncoder(out).Encode(runs)
			}
			if len(runs) == 0 {
				fmt.Fprintf(out, "No runs recorded in %s. Run 'logcourse generate' first.\n", outputDir)
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tSTARTED\tDAYS\tSEED\tRECORDS\tSIZE")
			for _, r := range runs {
				var records int
				var size int64
				for _, d := range r.Datasets {
					records += d.Records
					size += d.Bytes
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n",
					r.ID, humanize.Time(r.StartedAt), r.Days, r.Seed,
					humanize.Comma(int64(records)), humanize.Bytes(uint64(size)))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().String("output-dir", "", "Output directory holding the manifest (default from config)")
	cmd.Flags().Int("limit", 20, "Maximum runs to show (0 for all)")

	cmd.AddCommand(newRunsPruneCmd())

	return cmd
}

func newRunsPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Drop old runs from the manifest",
		Long: `Remove manifest entries for old runs. A run is kept if it is among the
--keep most recent OR newer than --max-age. Dataset files are not deleted.

Examples:
  logcourse runs prune --keep 10
  logcourse runs prune --keep 3 --max-age 30d`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputDir, err := resolveOutputDir(cmd)
			if err != nil {
				return err
			}
			keep, _ := cmd.Flags().GetInt("keep")
			maxAge, _ := cmd.Flags().GetString("max-age")
			jsonOut, _ := cmd.Flags().GetBool("json")

			if keep < 0 {
				return fmt.Errorf("--keep must be non-negative, got %d", keep)
			}
			policy := store.AnyPolicy{store.CountPolicy{MaxCount: keep}}
			if maxAge != "" {
				age, err := store.ParseAge(maxAge)
				if err != nil {
					return fmt.Errorf("invalid --max-age: %w", err)
				}
				policy = append(policy, store.AgePolicy{MaxAge: age})
			}

			m, err := store.Open(outputDir)
			if err != nil {
				return fmt.Errorf("failed to open manifest: %w", err)
			}
			defer m.Close()

			removed, err := m.Prune(cmd.Context(), policy, time.Now())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				if removed == nil {
					removed = []string{}
				}
				return json.NewEncoder(out).Encode(map[string]any{"removed": removed})
			}
			fmt.Fprintf(out, "Pruned %d run(s)\n", len(removed))
			return nil
		},
	}

	cmd.Flags().String("output-dir", "", "Output directory holding the manifest (default from config)")
	cmd.Flags().Int("keep", 10, "Number of most recent runs to keep")
	cmd.Flags().String("max-age", "", "Also keep runs newer than this (e.g. 720h, 30d, 2w)")

	return cmd
}

// resolveOutputDir returns --output-dir when set, else the configured one.
func resolveOutputDir(cmd *cobra.Command) (string, error) {
	if dir, _ := cmd.Flags().GetString("output-dir"); dir != "" {
		return dir, nil
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}
	return cfg.Generation.OutputDir, nil
}
