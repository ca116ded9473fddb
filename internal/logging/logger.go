// Package logging provides the stderr logger and the generation event log.
//
// Operational output goes through a leveled slog.Logger. At debug and trace
// level, generation boundaries are also appended as JSONL to
// <output>/.logcourse/events.jsonl by an EventLogger.
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LevelTrace is a custom slog level below Debug, used for per-worker detail.
const LevelTrace = slog.LevelDebug - 4

// EventsFileName is the JSONL file written by EventLogger.
const EventsFileName = "events.jsonl"

// ParseLevel maps a level name to a slog.Level, case-insensitively.
// Supported: "trace", "debug", "info", "warn", "error". Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled text logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Event kinds written to the event log.
const (
	EventDatasetStarted = "dataset_started"
	EventDatasetWritten = "dataset_written"
	EventRunCompleted   = "run_completed"
)

// Event is one line of the event log. Zero-valued fields are omitted.
type Event struct {
	Kind       string    `json:"event"`
	Time       time.Time `json:"time"`
	RunID      string    `json:"run_id,omitempty"`
	Dataset    string    `json:"dataset,omitempty"`
	Path       string    `json:"path,omitempty"`
	Records    int       `json:"records,omitempty"`
	Bytes      int64     `json:"bytes,omitempty"`
	Checksum   string    `json:"checksum,omitempty"`
	DurationMS int64     `json:"duration_ms,omitempty"`
	Seed       uint64    `json:"seed,omitempty"`
}

// EventLogger appends Events to a JSONL file. It is safe for concurrent
// use, and every method is a no-op on a nil receiver.
type EventLogger struct {
	mu   sync.Mutex
	file *os.File
	now  func() time.Time
}

// NewEventLogger opens dir/events.jsonl for append when level is debug or
// more verbose. It returns nil at info level and above, or when the file
// cannot be opened.
func NewEventLogger(dir string, level string) *EventLogger {
	if ParseLevel(level) > slog.LevelDebug {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil
	}

	f, err := os.OpenFile(filepath.Join(dir, EventsFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil
	}
	return &EventLogger{file: f, now: time.Now}
}

// Emit writes e as one JSON line, stamping Time if it is unset.
func (el *EventLogger) Emit(e Event) {
	if el == nil || el.file == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = el.now().UTC()
	}

	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	data = append(data, '\n')

	el.mu.Lock()
	defer el.mu.Unlock()
	if el.file != nil {
		_, _ = el.file.Write(data)
	}
}

// Close closes the underlying file.
func (el *EventLogger) Close() error {
	if el == nil {
		return nil
	}
	el.mu.Lock()
	defer el.mu.Unlock()
	if el.file == nil {
		return nil
	}
	err := el.file.Close()
	el.file = nil
	return err
}
