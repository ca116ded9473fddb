package dataset

import (
	"bufio"
	"crypto/sha256"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// maxLineBytes bounds a single log line when re-reading a dataset.
const maxLineBytes = 1 << 20

// Checksum returns the sha256 of the file's bytes as stored on disk, in the
// same "sha256:<hex>" form Write reports.
func Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing dataset: %w", err)
	}
	return formatChecksum(h), nil
}

// CountRecords re-reads a dataset and returns its record count. CSV headers
// are not counted. Files ending in GzipExt are decompressed transparently.
func CountRecords(path string, format Format) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, GzipExt) {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return 0, fmt.Errorf("opening gzip stream: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	switch format {
	case FormatCSV:
		return countCSV(r)
	case FormatLines:
		return countLines(r)
	default:
		return 0, fmt.Errorf("unknown format %q", format)
	}
}

func countLines(r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	n := 0
	for scanner.Scan() {
		n++
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("reading lines: %w", err)
	}
	return n, nil
}

func countCSV(r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true
	n := -1
	for {
		_, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("reading csv: %w", err)
		}
		n++
	}
	return max(n, 0), nil
}
