package validate

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodLab = "# Lab\n\n## Learning Objectives\n- learn\n\n## Prerequisites\n- none\n"

const allConcepts = `<html><body>
data ingestion, source type, index. search, timeline, boolean, search history, jobs.
fields, sidebar. commands, table, sort, dedup. stats, chart, transforming.
reports, dashboards, visualizations. pivot, datasets. lookups, enrichment.
alerts, scheduled, actions.
</body></html>`

// newCourse lays out a complete, valid course tree and returns its root.
func newCourse(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, d := range requiredDirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, filepath.FromSlash(d)), 0o755))
	}
	for _, lab := range LabOrder {
		writeFile(t, root, LabsDir+"/"+lab, goodLab)
	}
	for _, f := range DefaultRequiredDataFiles {
		writeFile(t, root, DataDir+"/"+f, "x\n")
	}
	for _, p := range Presentations {
		writeFile(t, root, PresentationsDir+"/"+p, allConcepts)
	}
	return root
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func messages(issues []Issue) []string {
	out := make([]string, len(issues))
	for i, is := range issues {
		out[i] = is.Message
	}
	return out
}

func TestRun_CompleteCoursePasses(t *testing.T) {
	report := New(newCourse(t), Options{}).Run()
	assert.True(t, report.Passed())
	assert.Empty(t, report.Errors)
	assert.Empty(t, report.Warnings)
}

func TestStructure_MissingLab1(t *testing.T) {
	root := newCourse(t)
	require.NoError(t, os.Remove(filepath.Join(root, LabsDir, "Lab1_Data_Loading.md")))

	v := New(root, Options{})
	v.Structure()
	require.Len(t, v.Report().Errors, 1)
	assert.Contains(t, v.Report().Errors[0].Message, "Lab1_Data_Loading.md")

	report := v.Run()
	assert.False(t, report.Passed())
	assert.Equal(t, []string{"Required lab file missing: Lab1_Data_Loading.md"}, messages(report.Errors))
}

func TestStructure_MissingEverything(t *testing.T) {
	v := New(t.TempDir(), Options{})
	v.Structure()

	want := len(requiredDirs) + len(LabOrder) + len(DefaultRequiredDataFiles) + len(Presentations)
	assert.Len(t, v.Report().Errors, want)
	assert.Contains(t, messages(v.Report().Errors), "Required directory missing: labs/data")
	assert.Contains(t, messages(v.Report().Errors), "Required presentation file missing: content2.html")
}

func TestStructure_CustomDataFiles(t *testing.T) {
	root := newCourse(t)
	v := New(root, Options{RequiredDataFiles: []string{"access_30DAY.log", "generate_course_data.py"}})
	v.Structure()
	assert.Equal(t, []string{"Required data file missing: generate_course_data.py"}, messages(v.Report().Errors))
}

func TestNoTimingReferences_Duration(t *testing.T) {
	root := newCourse(t)
	writeFile(t, root, "labs/Lab2_Basic_Searching.md", goodLab+"\nDuration: 45 min\n")

	v := New(root, Options{})
	v.NoTimingReferences()
	require.Len(t, v.Report().Errors, 1)
	assert.Equal(t, "Timing reference found in Lab2_Basic_Searching.md: Duration: 45 min", v.Report().Errors[0].Message)
	assert.Equal(t, CheckTiming, v.Report().Errors[0].Check)
}

func TestNoTimingReferences_Patterns(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		match string
	}{
		{"duration hours", "duration:2 hours", "duration:2 hour"},
		{"multi-day course", "This 3-day intensive course covers", "3-day intensive course"},
		{"plain day course", "a 2-Day Course", "2-Day Course"},
		{"day lab marker", "*Day 1 - Lab 3*", "*Day 1 - Lab"},
		{"lab of n", "lab 3 of 9", "lab 3 of 9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newCourse(t)
			writeFile(t, root, "presentations/content1.html", allConcepts+tt.text)

			v := New(root, Options{})
			v.NoTimingReferences()
			assert.Equal(t, []string{"Timing reference found in content1.html: " + tt.match}, messages(v.Report().Errors))
		})
	}
}

func TestNoTimingReferences_OneErrorPerPattern(t *testing.T) {
	root := newCourse(t)
	writeFile(t, root, "labs/lab9_alerts.md", goodLab+"Duration: 10 min\nDuration: 20 min\nLab 9 of 9\n")

	v := New(root, Options{})
	v.NoTimingReferences()
	assert.Equal(t, []string{
		"Timing reference found in lab9_alerts.md: Duration: 10 min",
		"Timing reference found in lab9_alerts.md: Lab 9 of 9",
	}, messages(v.Report().Errors))
}

func TestLabFormatting(t *testing.T) {
	root := newCourse(t)
	writeFile(t, root, "labs/lab7_pivot_datasets.md", "Intro\n\nTODO: write this\n")

	v := New(root, Options{})
	v.LabFormatting()
	assert.Empty(t, v.Report().Errors)
	assert.Equal(t, []string{
		"lab7_pivot_datasets.md: Should start with '# Lab' heading",
		"lab7_pivot_datasets.md: Missing 'Learning Objectives' section",
		"lab7_pivot_datasets.md: Missing 'Prerequisites' section",
		"lab7_pivot_datasets.md: Contains TODO/TBD markers",
	}, messages(v.Report().Warnings))
}

func TestPresentationCoverage(t *testing.T) {
	root := newCourse(t)
	writeFile(t, root, "presentations/content1.html", "SEARCH Timeline boolean search history jobs")
	writeFile(t, root, "presentations/content2.html", "")

	v := New(root, Options{})
	v.PresentationCoverage()

	warnings := messages(v.Report().Warnings)
	assert.NotContains(t, strings.Join(warnings, "\n"), "Lab2_Basic_Searching.md")
	assert.Contains(t, warnings, "lab8_lookups.md: Concepts not found in presentations: lookups, enrichment")
	assert.Len(t, warnings, len(labConcepts)-1)
}

func TestPresentationCoverage_NoPresentations(t *testing.T) {
	root := newCourse(t)
	require.NoError(t, os.RemoveAll(filepath.Join(root, PresentationsDir)))

	v := New(root, Options{})
	v.PresentationCoverage()
	assert.Len(t, v.Report().Warnings, len(labConcepts))
	assert.Empty(t, v.Report().Errors)
}

func TestLinks(t *testing.T) {
	root := newCourse(t)
	writeFile(t, root, "labs/Lab4_Basic_Commands.md", goodLab+`
See [previous lab](Lab3_Using_Fields_in_Searches.md) and [data](data/products.csv).
Also [section](#prerequisites), [docs](https://docs.splunk.com) and [old](http://example.com).
Jump to [lab 5 steps](lab5_transforming_commands.md#steps).
Broken: [missing](lab10_missing.md) and [image](images/screen.png).
`)

	v := New(root, Options{})
	v.Links()
	assert.Equal(t, []string{
		"Lab4_Basic_Commands.md: Broken link to 'lab10_missing.md'",
		"Lab4_Basic_Commands.md: Broken link to 'images/screen.png'",
	}, messages(v.Report().Warnings))
}

func TestRun_UnreadableFileIsErrorAndRunContinues(t *testing.T) {
	root := newCourse(t)
	lab := filepath.Join(root, LabsDir, "lab6_reports_dashboards.md")
	require.NoError(t, os.Remove(lab))
	require.NoError(t, os.Mkdir(lab, 0o755))
	writeFile(t, root, "labs/lab8_lookups.md", "no heading\n")

	report := New(root, Options{}).Run()
	assert.False(t, report.Passed())

	var unreadable int
	for _, e := range report.Errors {
		if strings.HasPrefix(e.Message, "Could not read labs/lab6_reports_dashboards.md") {
			unreadable++
		}
	}
	// timing, formatting and links each try to read it
	assert.Equal(t, 3, unreadable)
	assert.Contains(t, messages(report.Warnings), "lab8_lookups.md: Should start with '# Lab' heading")
}

func TestRun_ResetsBetweenRuns(t *testing.T) {
	v := New(t.TempDir(), Options{})
	first := len(v.Run().Errors)
	second := len(v.Run().Errors)
	assert.Equal(t, first, second)
}

func TestGuard_RecoversPanic(t *testing.T) {
	v := New(t.TempDir(), Options{})
	ran := false
	v.guard("boom", func() { panic("kaboom") })
	v.guard(CheckLinks, func() { ran = true })

	assert.True(t, ran)
	assert.Equal(t, []string{"Check boom failed: kaboom"}, messages(v.Report().Errors))
}

func TestReport_Render(t *testing.T) {
	var buf bytes.Buffer
	(&Report{}).Render(&buf)
	assert.Contains(t, buf.String(), "passed with no issues")

	buf.Reset()
	r := &Report{
		Errors:   []Issue{{Check: CheckStructure, Message: "Required lab file missing: lab9_alerts.md"}},
		Warnings: []Issue{{Check: CheckLinks, Message: "x: Broken link to 'y'"}},
	}
	r.Render(&buf)
	out := buf.String()
	assert.Contains(t, out, "Found 1 error(s):")
	assert.Contains(t, out, "  ERROR: Required lab file missing: lab9_alerts.md")
	assert.Contains(t, out, "Found 1 warning(s):")
	assert.Contains(t, out, "  WARNING: x: Broken link to 'y'")
}
