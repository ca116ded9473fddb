// Package validate checks a course tree: required files, leftover timing
// phrases, lab formatting, presentation coverage of lab concepts, and
// internal markdown links.
//
// Problems are collected rather than returned. Errors are blocking,
// warnings are not; Report.Passed reports whether any errors were found.
package validate

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Directory names relative to the course root.
const (
	LabsDir          = "labs"
	PresentationsDir = "presentations"
	ScriptsDir       = "scripts"
	DataDir          = "labs/data"
)

// LabOrder is the required lab sequence.
var LabOrder = []string{
	"Lab1_Data_Loading.md",
	"Lab2_Basic_Searching.md",
	"Lab3_Using_Fields_in_Searches.md",
	"Lab4_Basic_Commands.md",
	"lab5_transforming_commands.md",
	"lab6_reports_dashboards.md",
	"lab7_pivot_datasets.md",
	"lab8_lookups.md",
	"lab9_alerts.md",
}

// Presentations are the slide decks every lab draws its concepts from.
var Presentations = []string{"content1.html", "content2.html"}

// DefaultRequiredDataFiles are expected under labs/data when Options does
// not override them.
var DefaultRequiredDataFiles = []string{
	"access_30DAY.log",
	"linux_s_30DAY.log",
	"db_audit_30DAY.csv",
	"products.csv",
}

var requiredDirs = []string{LabsDir, PresentationsDir, ScriptsDir, DataDir}

var timingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Duration:\s*\d+\s*(?:min|hour|minute)`),
	regexp.MustCompile(`(?i)\d+-day\s+(?:intensive\s+)?course`),
	regexp.MustCompile(`(?i)\*Day\s+\d+\s*-\s*Lab`),
	regexp.MustCompile(`(?i)Lab\s+\d+\s+of\s+\d+`),
}

var linkPattern = regexp.MustCompile(`\[([^\]]+)\]\(([^\)]+)\)`)

var requiredSections = []string{"Learning Objectives", "Prerequisites"}

// labConcepts lists, per lab, the terms the presentations must mention.
var labConcepts = []struct {
	lab      string
	concepts []string
}{
	{"Lab1_Data_Loading.md", []string{"data ingestion", "source type", "index"}},
	{"Lab2_Basic_Searching.md", []string{"search", "timeline", "Boolean", "search history", "jobs"}},
	{"Lab3_Using_Fields_in_Searches.md", []string{"fields", "sidebar"}},
	{"Lab4_Basic_Commands.md", []string{"commands", "table", "sort", "dedup"}},
	{"lab5_transforming_commands.md", []string{"stats", "chart", "transforming"}},
	{"lab6_reports_dashboards.md", []string{"reports", "dashboards", "visualizations"}},
	{"lab7_pivot_datasets.md", []string{"pivot", "datasets"}},
	{"lab8_lookups.md", []string{"lookups", "enrichment"}},
	{"lab9_alerts.md", []string{"alerts", "scheduled", "actions"}},
}

// Check names, as reported in Issue.Check.
const (
	CheckStructure  = "structure"
	CheckTiming     = "timing"
	CheckFormatting = "formatting"
	CheckCoverage   = "coverage"
	CheckLinks      = "links"
)

// Issue is one finding.
type Issue struct {
	Check   string `json:"check"`
	Message string `json:"message"`
}

// Report is the consolidated result of a validation run.
type Report struct {
	Root     string  `json:"root"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// Passed reports whether no errors were recorded. Warnings do not fail a run.
func (r *Report) Passed() bool {
	return len(r.Errors) == 0
}

// Render writes the human-readable report.
func (r *Report) Render(w io.Writer) {
	rule := strings.Repeat("=", 70)
	fmt.Fprintf(w, "%s\nVALIDATION REPORT\n%s\n", rule, rule)

	if len(r.Errors) == 0 && len(r.Warnings) == 0 {
		fmt.Fprintln(w, "\nCourse validation passed with no issues!")
		return
	}
	if len(r.Errors) > 0 {
		fmt.Fprintf(w, "\nFound %d error(s):\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  ERROR: %s\n", e.Message)
		}
	}
	if len(r.Warnings) > 0 {
		fmt.Fprintf(w, "\nFound %d warning(s):\n", len(r.Warnings))
		for _, e := range r.Warnings {
			fmt.Fprintf(w, "  WARNING: %s\n", e.Message)
		}
	}
	fmt.Fprintf(w, "\n%s\n", rule)
}

// Options configures a Validator.
type Options struct {
	// RequiredDataFiles replaces DefaultRequiredDataFiles when non-empty.
	RequiredDataFiles []string
	// Logger receives per-check debug output. Nil discards it.
	Logger *slog.Logger
}

// Validator runs checks against one course root, accumulating into a Report.
type Validator struct {
	root      string
	dataFiles []string
	logger    *slog.Logger
	report    *Report
}

// New creates a Validator for the course tree at root.
func New(root string, opts Options) *Validator {
	v := &Validator{
		root:      root,
		dataFiles: DefaultRequiredDataFiles,
		logger:    opts.Logger,
	}
	if len(opts.RequiredDataFiles) > 0 {
		v.dataFiles = opts.RequiredDataFiles
	}
	if v.logger == nil {
		v.logger = slog.New(slog.DiscardHandler)
	}
	v.Reset()
	return v
}

// Reset discards accumulated findings.
func (v *Validator) Reset() {
	v.report = &Report{Root: v.root}
}

// Report returns the findings accumulated so far.
func (v *Validator) Report() *Report {
	return v.report
}

// Run executes every check in order and returns the consolidated report.
// A check that panics is recorded as an error; later checks still run.
func (v *Validator) Run() *Report {
	v.Reset()
	checks := []struct {
		name string
		fn   func()
	}{
		{CheckStructure, v.Structure},
		{CheckTiming, v.NoTimingReferences},
		{CheckFormatting, v.LabFormatting},
		{CheckCoverage, v.PresentationCoverage},
		{CheckLinks, v.Links},
	}
	for _, c := range checks {
		v.guard(c.name, c.fn)
	}
	return v.report
}

func (v *Validator) guard(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			v.errorf(name, "Check %s failed: %v", name, r)
		}
	}()
	before := len(v.report.Errors) + len(v.report.Warnings)
	fn()
	v.logger.Debug("check complete", "check", name,
		"findings", len(v.report.Errors)+len(v.report.Warnings)-before)
}

// Structure records an error for each missing directory, lab, data file or
// presentation.
func (v *Validator) Structure() {
	for _, dir := range requiredDirs {
		if !v.exists(dir) {
			v.errorf(CheckStructure, "Required directory missing: %s", dir)
		}
	}
	for _, lab := range LabOrder {
		if !v.exists(LabsDir, lab) {
			v.errorf(CheckStructure, "Required lab file missing: %s", lab)
		}
	}
	for _, f := range v.dataFiles {
		if !v.exists(DataDir, f) {
			v.errorf(CheckStructure, "Required data file missing: %s", f)
		}
	}
	for _, p := range Presentations {
		if !v.exists(PresentationsDir, p) {
			v.errorf(CheckStructure, "Required presentation file missing: %s", p)
		}
	}
}

// NoTimingReferences records an error for the first match of each timing
// pattern in every lab and presentation.
func (v *Validator) NoTimingReferences() {
	scan := func(dir, name string) {
		content, ok := v.read(CheckTiming, dir, name)
		if !ok {
			return
		}
		for _, re := range timingPatterns {
			if m := re.FindString(content); m != "" {
				v.errorf(CheckTiming, "Timing reference found in %s: %s", name, m)
			}
		}
	}
	for _, lab := range LabOrder {
		scan(LabsDir, lab)
	}
	for _, p := range Presentations {
		scan(PresentationsDir, p)
	}
}

// LabFormatting warns on labs without a "# Lab" heading, without the
// required sections, or still holding TODO/TBD markers.
func (v *Validator) LabFormatting() {
	for _, lab := range LabOrder {
		content, ok := v.read(CheckFormatting, LabsDir, lab)
		if !ok {
			continue
		}
		if !strings.HasPrefix(content, "# Lab") {
			v.warnf(CheckFormatting, "%s: Should start with '# Lab' heading", lab)
		}
		for _, section := range requiredSections {
			if !strings.Contains(content, section) {
				v.warnf(CheckFormatting, "%s: Missing '%s' section", lab, section)
			}
		}
		if strings.Contains(content, "TODO") || strings.Contains(content, "TBD") {
			v.warnf(CheckFormatting, "%s: Contains TODO/TBD markers", lab)
		}
	}
}

// PresentationCoverage warns for each lab whose concepts do not all appear,
// case-insensitively, somewhere in the presentations.
func (v *Validator) PresentationCoverage() {
	var all strings.Builder
	for _, p := range Presentations {
		if content, ok := v.read(CheckCoverage, PresentationsDir, p); ok {
			all.WriteString(strings.ToLower(content))
		}
	}
	text := all.String()

	for _, lc := range labConcepts {
		var missing []string
		for _, c := range lc.concepts {
			if !strings.Contains(text, strings.ToLower(c)) {
				missing = append(missing, c)
			}
		}
		if len(missing) > 0 {
			v.warnf(CheckCoverage, "%s: Concepts not found in presentations: %s", lc.lab, strings.Join(missing, ", "))
		}
	}
}

// Links warns for markdown links in labs that point at files missing under
// labs/. External URLs and pure anchors are skipped; a fragment on a file
// link is ignored.
func (v *Validator) Links() {
	for _, lab := range LabOrder {
		content, ok := v.read(CheckLinks, LabsDir, lab)
		if !ok {
			continue
		}
		for _, m := range linkPattern.FindAllStringSubmatch(content, -1) {
			target := m[2]
			if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") || strings.HasPrefix(target, "#") {
				continue
			}
			file, _, _ := strings.Cut(target, "#")
			if !v.exists(LabsDir, filepath.FromSlash(file)) {
				v.warnf(CheckLinks, "%s: Broken link to '%s'", lab, target)
			}
		}
	}
}

func (v *Validator) path(elem ...string) string {
	parts := append([]string{v.root}, elem...)
	for i := 1; i < len(parts); i++ {
		parts[i] = filepath.FromSlash(parts[i])
	}
	return filepath.Join(parts...)
}

func (v *Validator) exists(elem ...string) bool {
	_, err := os.Stat(v.path(elem...))
	return err == nil
}

// read returns a file's content. A missing file is silently skipped since
// Structure reports it; any other failure is recorded as an error.
func (v *Validator) read(check string, elem ...string) (string, bool) {
	data, err := os.ReadFile(v.path(elem...))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false
	}
	if err != nil {
		v.errorf(check, "Could not read %s: %v", filepath.ToSlash(filepath.Join(elem...)), err)
		return "", false
	}
	return string(data), true
}

func (v *Validator) errorf(check, format string, args ...any) {
	v.report.Errors = append(v.report.Errors, Issue{Check: check, Message: fmt.Sprintf(format, args...)})
}

func (v *Validator) warnf(check, format string, args ...any) {
	v.report.Warnings = append(v.report.Warnings, Issue{Check: check, Message: fmt.Sprintf(format, args...)})
}
