// Package store keeps a manifest of generation runs and the datasets each
// run produced, so later commands can list and verify them.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// StateDirName is the per-output-directory folder holding the manifest and
// event log.
const StateDirName = ".logcourse"

// ErrRunNotFound is returned when a run id or "latest" has no manifest entry.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded generation run.
type Run struct {
	ID          string         `json:"id"`
	StartedAt   time.Time      `json:"started_at"`
	FinishedAt  time.Time      `json:"finished_at"`
	Seed        uint64         `json:"seed"`
	Days        int            `json:"days"`
	WindowStart time.Time      `json:"window_start"`
	WindowEnd   time.Time      `json:"window_end"`
	Workers     int            `json:"workers"`
	OutputDir   string         `json:"output_dir"`
	Datasets    []DatasetEntry `json:"datasets"`
}

// DatasetEntry is one file written by a run.
type DatasetEntry struct {
	Name     string        `json:"name"`
	Path     string        `json:"path"`
	Format   string        `json:"format"`
	Records  int           `json:"records"`
	Bytes    int64         `json:"bytes"`
	Checksum string        `json:"checksum"`
	Duration time.Duration `json:"duration"`
}

// Manifest is the SQLite-backed run history of one output directory.
type Manifest struct {
	mu     sync.Mutex
	db     *sql.DB
	dbPath string
}

// Open opens (creating if needed) the manifest at <outputDir>/.logcourse/manifest.db.
func Open(outputDir string) (*Manifest, error) {
	stateDir := filepath.Join(outputDir, StateDirName)
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", StateDirName, err)
	}

	dbPath := filepath.Join(stateDir, "manifest.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Manifest{db: db, dbPath: dbPath}, nil
}

// Path returns the database file location.
func (m *Manifest) Path() string {
	return m.dbPath
}

// Close closes the database.
func (m *Manifest) Close() error {
	return m.db.Close()
}

// RecordRun stores a run and its datasets in one transaction. An empty ID
// is filled with a new UUID, which is returned.
func (m *Manifest) RecordRun(ctx context.Context, run Run) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, seed, days, window_start, window_end, workers, output_dir)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, formatTime(run.StartedAt), formatTime(run.FinishedAt),
		strconv.FormatUint(run.Seed, 10), run.Days,
		formatTime(run.WindowStart), formatTime(run.WindowEnd),
		run.Workers, run.OutputDir)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	for _, d := range run.Datasets {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO datasets (run_id, name, path, format, records, bytes, checksum, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, d.Name, d.Path, d.Format, d.Records, d.Bytes, d.Checksum, d.Duration.Milliseconds())
		if err != nil {
			return "", fmt.Errorf("failed to insert dataset %s: %w", d.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return run.ID, nil
}

// GetRun loads one run with its datasets.
func (m *Manifest) GetRun(ctx context.Context, id string) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row := m.db.QueryRowContext(ctx, runColumns+` WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := m.loadDatasets(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// LatestRun returns the most recently started run.
func (m *Manifest) LatestRun(ctx context.Context) (*Run, error) {
	m.mu.Lock()
	var id string
	err := m.db.QueryRowContext(ctx, `SELECT id FROM runs ORDER BY started_at DESC, rowid DESC LIMIT 1`).Scan(&id)
	m.mu.Unlock()

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("latest: %w", ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest run: %w", err)
	}
	return m.GetRun(ctx, id)
}

// ListRuns returns runs newest first, with datasets. limit <= 0 means all.
func (m *Manifest) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	query := runColumns + ` ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	rows.Close()

	for i := range runs {
		if err := m.loadDatasets(ctx, &runs[i]); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

const runColumns = `SELECT id, started_at, finished_at, seed, days, window_start, window_end, workers, output_dir FROM runs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run                                   Run
		started, finished, seed, wStart, wEnd string
	)
	if err := row.Scan(&run.ID, &started, &finished, &seed, &run.Days, &wStart, &wEnd, &run.Workers, &run.OutputDir); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	var err error
	if run.Seed, err = strconv.ParseUint(seed, 10, 64); err != nil {
		return nil, fmt.Errorf("run %s: invalid seed %q: %w", run.ID, seed, err)
	}
	for _, f := range []struct {
		dst *time.Time
		src string
	}{{&run.StartedAt, started}, {&run.FinishedAt, finished}, {&run.WindowStart, wStart}, {&run.WindowEnd, wEnd}} {
		if *f.dst, err = time.Parse(time.RFC3339Nano, f.src); err != nil {
			return nil, fmt.Errorf("run %s: invalid timestamp %q: %w", run.ID, f.src, err)
		}
	}
	return &run, nil
}

func (m *Manifest) loadDatasets(ctx context.Context, run *Run) error {
	rows, err := m.db.QueryContext(ctx, `
		SELECT name, path, format, records, bytes, checksum, duration_ms
		FROM datasets WHERE run_id = ? ORDER BY rowid`, run.ID)
	if err != nil {
		return fmt.Errorf("failed to query datasets: %w", err)
	}
	defer rows.Close()

	run.Datasets = nil
	for rows.Next() {
		var d DatasetEntry
		var ms int64
		if err := rows.Scan(&d.Name, &d.Path, &d.Format, &d.Records, &d.Bytes, &d.Checksum, &ms); err != nil {
			return fmt.Errorf("failed to scan dataset: %w", err)
		}
		d.Duration = time.Duration(ms) * time.Millisecond
		run.Datasets = append(run.Datasets, d)
	}
	return rows.Err()
}

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
