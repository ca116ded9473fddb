package logging

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"info", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"trace", LevelTrace},
		{"TRACE", LevelTrace},
		{" Debug ", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level      string
		logAtDebug bool
		logAtInfo  bool
	}{
		{"info", false, true},
		{"debug", true, true},
		{"trace", true, true},
		{"error", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.level, &buf)

			logger.Debug("debug message")
			if got := strings.Contains(buf.String(), "debug message"); got != tt.logAtDebug {
				t.Errorf("debug visible = %v, want %v", got, tt.logAtDebug)
			}

			buf.Reset()
			logger.Info("info message")
			if got := strings.Contains(buf.String(), "info message"); got != tt.logAtInfo {
				t.Errorf("info visible = %v, want %v", got, tt.logAtInfo)
			}
		})
	}
}

func TestNewLogger_TraceLabel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("trace", &buf)
	logger.Log(context.Background(), LevelTrace, "chunk done")

	if !strings.Contains(buf.String(), "level=TRACE") {
		t.Errorf("trace level not labelled: %q", buf.String())
	}
}

func TestNewEventLogger_InfoLevelDisabled(t *testing.T) {
	dir := t.TempDir()
	el := NewEventLogger(dir, "info")
	if el != nil {
		t.Fatal("expected nil EventLogger at info level")
	}

	// nil receiver must be usable
	el.Emit(Event{Kind: EventRunCompleted})
	if err := el.Close(); err != nil {
		t.Errorf("Close() on nil = %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, EventsFileName)); err == nil {
		t.Error("events file should not exist at info level")
	}
}

func TestEventLogger_Emit(t *testing.T) {
	dir := t.TempDir()
	el := NewEventLogger(dir, "debug")
	if el == nil {
		t.Fatal("expected EventLogger at debug level")
	}
	fixed := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	el.now = func() time.Time { return fixed }

	el.Emit(Event{Kind: EventDatasetWritten, Dataset: "access", Records: 10, Bytes: 2048})
	el.Emit(Event{Kind: EventRunCompleted, RunID: "abc"})
	if err := el.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	// Emit after Close is dropped.
	el.Emit(Event{Kind: EventRunCompleted})

	f, err := os.Open(filepath.Join(dir, EventsFileName))
	if err != nil {
		t.Fatalf("open events: %v", err)
	}
	defer f.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var m map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &m); err != nil {
			t.Fatalf("invalid JSON line %q: %v", scanner.Text(), err)
		}
		lines = append(lines, m)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0]["event"] != EventDatasetWritten || lines[0]["dataset"] != "access" {
		t.Errorf("unexpected first event: %v", lines[0])
	}
	if lines[0]["time"] != "2026-02-03T04:05:06Z" {
		t.Errorf("time = %v", lines[0]["time"])
	}
	if _, ok := lines[1]["dataset"]; ok {
		t.Error("empty dataset should be omitted")
	}
}

func TestEventLogger_ConcurrentEmit(t *testing.T) {
	dir := t.TempDir()
	el := NewEventLogger(dir, "trace")
	if el == nil {
		t.Fatal("expected EventLogger at trace level")
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			el.Emit(Event{Kind: EventDatasetStarted, Records: i + 1})
		}(i)
	}
	wg.Wait()
	el.Close()

	data, err := os.ReadFile(filepath.Join(dir, EventsFileName))
	if err != nil {
		t.Fatalf("read events: %v", err)
	}
	if n := strings.Count(string(data), "\n"); n != 20 {
		t.Errorf("got %d lines, want 20", n)
	}
}
