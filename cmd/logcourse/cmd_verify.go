package main

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/nvandessel/logcourse/internal/course"
	"github.com/nvandessel/logcourse/internal/store"
	"github.com/spf13/cobra"
)

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check generated datasets against the run manifest",
		Long: `Recompute the checksum and record count of every dataset in a run and
compare them with what was recorded at generation time. Defaults to the
latest run.

Examples:
  logcourse verify
  logcourse verify --run 0b8f6c9e-3c1a-4d0e-9a55-2f1f3f8e6f21`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputDir, err := resolveOutputDir(cmd)
			if err != nil {
				return err
			}
			runID, _ := cmd.Flags().GetString("run")
			jsonOut, _ := cmd.Flags().GetBool("json")

			m, err := store.Open(outputDir)
			if err != nil {
				return fmt.Errorf("failed to open manifest: %w", err)
			}
			defer m.Close()

			var run *store.Run
			if runID == "" {
				run, err = m.LatestRun(cmd.Context())
			} else {
				run, err = m.GetRun(cmd.Context(), runID)
			}
			if err != nil {
				return err
			}

			checks, err := course.Verify(cmd.Context(), run)
			if err != nil {
				return err
			}

			failed := 0
			for _, c := range checks {
				if !c.OK() {
					failed++
				}
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				if err := json.NewEncoder(out).Encode(map[string]any{
					"run_id":   run.ID,
					"valid":    failed == 0,
					"datasets": checks,
				}); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(out, "Run %s (started %s)\n", run.ID, humanize.Time(run.StartedAt))
				for _, c := range checks {
					if c.OK() {
						fmt.Fprintf(out, "  OK       %s (%s records)\n", c.Path, humanize.Comma(int64(c.ActualRecords)))
						continue
					}
					fmt.Fprintf(out, "  %-8s %s: %s\n", c.Status, c.Path, c.Detail)
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d datasets: %w", failed, len(checks), errVerifyFailed)
			}
			return nil
		},
	}

	cmd.Flags().String("output-dir", "", "Output directory holding the manifest (default from config)")
	cmd.Flags().String("run", "", "Run ID to verify (default: latest)")

	return cmd
}
