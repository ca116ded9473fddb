package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nvandessel/logcourse/internal/validate"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the course structure and content",
		Long: `Check a course tree for required files, leftover timing references,
lab formatting, presentation coverage of lab concepts and broken links.

Errors (missing files, timing references) fail the command. Formatting,
coverage and link problems are reported as warnings only.

Examples:
  logcourse validate
  logcourse validate --root ~/courses/splunk-fundamentals`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			root := cfg.Validation.CourseRoot
			if cmd.Flags().Changed("root") {
				root, _ = cmd.Flags().GetString("root")
			}

			if info, err := os.Stat(filepath.Join(root, validate.LabsDir)); err != nil || !info.IsDir() {
				return fmt.Errorf("cannot find '%s' directory under %s; run from the course root or pass --root", validate.LabsDir, root)
			}

			v := validate.New(root, validate.Options{
				RequiredDataFiles: cfg.Validation.RequiredDataFiles,
				Logger:            newLogger(cmd, cfg),
			})
			report := v.Run()

			out := cmd.OutOrStdout()
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				if err := json.NewEncoder(out).Encode(map[string]any{
					"root":     report.Root,
					"passed":   report.Passed(),
					"errors":   report.Errors,
					"warnings": report.Warnings,
				}); err != nil {
					return err
				}
			} else {
				abs, _ := filepath.Abs(root)
				fmt.Fprintf(out, "Validating course at %s\n\n", abs)
				report.Render(out)
			}

			if !report.Passed() {
				return errValidationFailed
			}
			return nil
		},
	}

	cmd.Flags().String("root", ".", "Course root directory (default from config)")

	return cmd
}
