// Package dataset drains a synthesizer into a named output file.
package dataset

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/nvandessel/logcourse/internal/pathutil"
	"github.com/nvandessel/logcourse/internal/synth"
	"golang.org/x/sync/errgroup"
)

// Format selects the on-disk serialization of a dataset.
type Format string

const (
	// FormatLines writes one Record.Line per line.
	FormatLines Format = "lines"
	// FormatCSV writes a header row then one Record.Row per CSV record.
	FormatCSV Format = "csv"
)

// GzipExt is appended to compressed dataset file names.
const GzipExt = ".gz"

// cancelCheckEvery bounds how many records a worker emits between context checks.
const cancelCheckEvery = 4096

// Spec describes one dataset to produce.
type Spec struct {
	Name     string
	FileName string
	Format   Format
	Count    int
	Compress bool
}

// OutputName returns the file name actually written, including GzipExt when compressed.
func (s Spec) OutputName() string {
	if s.Compress {
		return s.FileName + GzipExt
	}
	return s.FileName
}

// Options controls how records are drawn.
type Options struct {
	// Seed is the run seed shared by every dataset.
	Seed uint64
	// Stream separates this dataset's random streams from the others in the run.
	Stream uint64
	// Workers is the number of goroutines synthesizing records; <1 means 1.
	Workers int
	// Logger receives chunk-level debug output. Nil disables it.
	Logger *slog.Logger
}

// Result describes a dataset that was fully written.
type Result struct {
	Name     string        `json:"name"`
	Path     string        `json:"path"`
	Format   Format        `json:"format"`
	Records  int           `json:"records"`
	Bytes    int64         `json:"bytes"`
	Checksum string        `json:"checksum"`
	Duration time.Duration `json:"duration"`
}

// Write synthesizes spec.Count records and persists them under dir.
//
// Output goes to a temporary file beside the target which is renamed over
// the target only after every record has been flushed, so an existing file
// is truncated-and-replaced atomically and a failed run leaves nothing under
// the final name. Any returned error means the dataset was not produced.
func Write(ctx context.Context, dir string, spec Spec, s synth.Synthesizer, opts Options) (Result, error) {
	start := time.Now()

	if spec.Count < 0 {
		return Result{}, fmt.Errorf("dataset %s: negative record count %d", spec.Name, spec.Count)
	}
	if spec.Format != FormatLines && spec.Format != FormatCSV {
		return Result{}, fmt.Errorf("dataset %s: unknown format %q", spec.Name, spec.Format)
	}

	target, err := pathutil.JoinWithin(dir, spec.OutputName())
	if err != nil {
		return Result{}, fmt.Errorf("dataset %s: %w", spec.Name, err)
	}

	chunks, err := synthesize(ctx, spec, s, opts)
	if err != nil {
		return Result{}, fmt.Errorf("dataset %s: %w", spec.Name, err)
	}

	size, checksum, err := persist(target, spec, s.Header(), chunks)
	if err != nil {
		return Result{}, fmt.Errorf("dataset %s: %w", spec.Name, err)
	}

	return Result{
		Name:     spec.Name,
		Path:     target,
		Format:   spec.Format,
		Records:  spec.Count,
		Bytes:    size,
		Checksum: checksum,
		Duration: time.Since(start),
	}, nil
}

// synthesize renders records into one buffer per worker. Buffers are
// returned in worker order so a given (seed, workers) pair reproduces the
// same file.
func synthesize(ctx context.Context, spec Spec, s synth.Synthesizer, opts Options) ([]*bytes.Buffer, error) {
	workers := max(opts.Workers, 1)
	if spec.Count < workers {
		workers = max(spec.Count, 1)
	}

	chunks := make([]*bytes.Buffer, workers)
	g, gctx := errgroup.WithContext(ctx)

	for w := 0; w < workers; w++ {
		n := spec.Count / workers
		if w < spec.Count%workers {
			n++
		}
		buf := new(bytes.Buffer)
		chunks[w] = buf
		r := rand.New(rand.NewPCG(opts.Seed, opts.Stream<<32|uint64(w)))

		g.Go(func() error {
			if opts.Logger != nil {
				opts.Logger.Debug("synthesizing chunk", "dataset", spec.Name, "worker", w, "records", n)
			}
			return renderChunk(gctx, buf, spec.Format, s, r, n)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return chunks, nil
}

func renderChunk(ctx context.Context, buf *bytes.Buffer, format Format, s synth.Synthesizer, r *rand.Rand, n int) error {
	var cw *csv.Writer
	if format == FormatCSV {
		cw = newCSVWriter(buf)
	}

	for i := 0; i < n; i++ {
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		rec := s.Next(r)
		if cw != nil {
			if err := cw.Write(rec.Row()); err != nil {
				return fmt.Errorf("encoding record: %w", err)
			}
			continue
		}
		buf.WriteString(rec.Line())
		buf.WriteByte('\n')
	}

	if cw != nil {
		cw.Flush()
		return cw.Error()
	}
	return nil
}

// newCSVWriter writes minimally quoted, CRLF-terminated records.
func newCSVWriter(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	return cw
}

func persist(target string, spec Spec, header []string, chunks []*bytes.Buffer) (size int64, checksum string, err error) {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, "", fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return 0, "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	h := sha256.New()
	counter := &countingWriter{w: io.MultiWriter(tmp, h)}

	var out io.Writer = counter
	var gz *gzip.Writer
	if spec.Compress {
		gz = gzip.NewWriter(counter)
		gz.Name = spec.FileName
		out = gz
	}

	if spec.Format == FormatCSV {
		cw := newCSVWriter(out)
		if err = cw.Write(header); err != nil {
			return 0, "", fmt.Errorf("writing header: %w", err)
		}
		cw.Flush()
		if err = cw.Error(); err != nil {
			return 0, "", fmt.Errorf("writing header: %w", err)
		}
	}

	for _, c := range chunks {
		if _, err = c.WriteTo(out); err != nil {
			return 0, "", fmt.Errorf("writing records: %w", err)
		}
	}

	if gz != nil {
		if err = gz.Close(); err != nil {
			return 0, "", fmt.Errorf("closing gzip stream: %w", err)
		}
	}
	if err = tmp.Sync(); err != nil {
		return 0, "", fmt.Errorf("syncing %s: %w", pathutil.RedactPath(tmpName), err)
	}
	if err = tmp.Close(); err != nil {
		return 0, "", fmt.Errorf("closing %s: %w", pathutil.RedactPath(tmpName), err)
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return 0, "", fmt.Errorf("setting permissions: %w", err)
	}
	if err = os.Rename(tmpName, target); err != nil {
		return 0, "", fmt.Errorf("replacing %s: %w", pathutil.RedactPath(target), err)
	}

	return counter.n, formatChecksum(h), nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func formatChecksum(h hash.Hash) string {
	return "sha256:" + hex.EncodeToString(h.Sum(nil))
}
