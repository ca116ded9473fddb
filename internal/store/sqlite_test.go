package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func sampleRun(started time.Time) Run {
	return Run{
		StartedAt:   started,
		FinishedAt:  started.Add(3 * time.Second),
		Seed:        18446744073709551615,
		Days:        30,
		WindowStart: started.AddDate(0, 0, -30),
		WindowEnd:   started,
		Workers:     2,
		OutputDir:   "/tmp/course",
		Datasets: []DatasetEntry{
			{Name: "access", Path: "/tmp/course/access_30DAY.log", Format: "lines", Records: 10, Bytes: 1234, Checksum: "sha256:aa", Duration: 1500 * time.Millisecond},
			{Name: "audit", Path: "/tmp/course/db_audit_30DAY.csv", Format: "csv", Records: 5, Bytes: 321, Checksum: "sha256:bb", Duration: 20 * time.Millisecond},
		},
	}
}

func TestOpen(t *testing.T) {
	tmpDir := t.TempDir()

	m, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer m.Close()

	want := filepath.Join(tmpDir, StateDirName, "manifest.db")
	if m.Path() != want {
		t.Errorf("Path() = %q, want %q", m.Path(), want)
	}
	if _, err := os.Stat(want); os.IsNotExist(err) {
		t.Error("manifest.db was not created")
	}
}

func TestManifest_RecordAndGetRun(t *testing.T) {
	m, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer m.Close()
	ctx := context.Background()

	started := time.Date(2026, 3, 4, 5, 6, 7, 8, time.UTC)
	id, err := m.RecordRun(ctx, sampleRun(started))
	if err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}
	if id == "" {
		t.Fatal("RecordRun() returned empty id")
	}

	got, err := m.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if got.Seed != 18446744073709551615 {
		t.Errorf("Seed = %d, want max uint64", got.Seed)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, started)
	}
	if got.Days != 30 || got.Workers != 2 {
		t.Errorf("Days/Workers = %d/%d, want 30/2", got.Days, got.Workers)
	}
	if len(got.Datasets) != 2 {
		t.Fatalf("Datasets len = %d, want 2", len(got.Datasets))
	}
	if got.Datasets[0].Name != "access" || got.Datasets[1].Name != "audit" {
		t.Errorf("datasets out of order: %+v", got.Datasets)
	}
	if got.Datasets[0].Duration != 1500*time.Millisecond {
		t.Errorf("Duration = %v, want 1.5s", got.Datasets[0].Duration)
	}
}

func TestManifest_RecordRunKeepsExplicitID(t *testing.T) {
	m, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer m.Close()

	run := sampleRun(time.Now())
	run.ID = "fixed-id"
	id, err := m.RecordRun(context.Background(), run)
	if err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}
	if id != "fixed-id" {
		t.Errorf("id = %q, want fixed-id", id)
	}

	// Same id twice violates the primary key and must not leave partial rows.
	if _, err := m.RecordRun(context.Background(), run); err == nil {
		t.Error("RecordRun() with duplicate id should fail")
	}
	got, err := m.GetRun(context.Background(), "fixed-id")
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if len(got.Datasets) != 2 {
		t.Errorf("Datasets len = %d, want 2", len(got.Datasets))
	}
}

func TestManifest_GetRunNotFound(t *testing.T) {
	m, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer m.Close()

	_, err = m.GetRun(context.Background(), "nope")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("GetRun() error = %v, want ErrRunNotFound", err)
	}
	_, err = m.LatestRun(context.Background())
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("LatestRun() error = %v, want ErrRunNotFound", err)
	}
}

func TestManifest_LatestAndList(t *testing.T) {
	m, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer m.Close()
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		id, err := m.RecordRun(ctx, sampleRun(base.Add(time.Duration(i)*time.Hour)))
		if err != nil {
			t.Fatalf("RecordRun() error = %v", err)
		}
		ids = append(ids, id)
	}

	latest, err := m.LatestRun(ctx)
	if err != nil {
		t.Fatalf("LatestRun() error = %v", err)
	}
	if latest.ID != ids[2] {
		t.Errorf("LatestRun() = %s, want %s", latest.ID, ids[2])
	}

	all, err := m.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListRuns(0) len = %d, want 3", len(all))
	}
	if all[0].ID != ids[2] || all[2].ID != ids[0] {
		t.Errorf("ListRuns() not newest first")
	}
	for _, r := range all {
		if len(r.Datasets) != 2 {
			t.Errorf("run %s has %d datasets, want 2", r.ID, len(r.Datasets))
		}
	}

	limited, err := m.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns(2) error = %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("ListRuns(2) len = %d, want 2", len(limited))
	}
}

func TestManifest_ReopenPersists(t *testing.T) {
	dir := t.TempDir()
	m, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	id, err := m.RecordRun(context.Background(), sampleRun(time.Now()))
	if err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}
	m.Close()

	m2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer m2.Close()
	if _, err := m2.GetRun(context.Background(), id); err != nil {
		t.Errorf("GetRun() after reopen error = %v", err)
	}
}
