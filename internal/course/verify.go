package course

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/nvandessel/logcourse/internal/dataset"
	"github.com/nvandessel/logcourse/internal/store"
)

// Verification outcomes for one dataset.
const (
	StatusOK       = "ok"
	StatusMissing  = "missing"
	StatusMismatch = "mismatch"
	StatusError    = "error"
)

// DatasetCheck is the verification result for one recorded dataset.
type DatasetCheck struct {
	Name            string `json:"name"`
	Path            string `json:"path"`
	Status          string `json:"status"`
	ExpectedRecords int    `json:"expected_records"`
	ActualRecords   int    `json:"actual_records"`
	ExpectedSum     string `json:"expected_checksum"`
	ActualSum       string `json:"actual_checksum,omitempty"`
	Detail          string `json:"detail,omitempty"`
}

// OK reports whether the file on disk matches the manifest.
func (c DatasetCheck) OK() bool { return c.Status == StatusOK }

// Verify re-reads every dataset of run and compares checksum and record
// count against what the manifest recorded. Each dataset is checked even
// when an earlier one fails.
func Verify(ctx context.Context, run *store.Run) ([]DatasetCheck, error) {
	checks := make([]DatasetCheck, 0, len(run.Datasets))
	for _, d := range run.Datasets {
		if err := ctx.Err(); err != nil {
			return checks, err
		}
		checks = append(checks, verifyDataset(d))
	}
	return checks, nil
}

func verifyDataset(d store.DatasetEntry) DatasetCheck {
	c := DatasetCheck{
		Name:            d.Name,
		Path:            d.Path,
		ExpectedRecords: d.Records,
		ExpectedSum:     d.Checksum,
	}

	sum, err := dataset.Checksum(d.Path)
	if errors.Is(err, fs.ErrNotExist) {
		c.Status = StatusMissing
		c.Detail = "file not found"
		return c
	}
	if err != nil {
		c.Status = StatusError
		c.Detail = err.Error()
		return c
	}
	c.ActualSum = sum

	n, err := dataset.CountRecords(d.Path, dataset.Format(d.Format))
	if err != nil {
		c.Status = StatusError
		c.Detail = err.Error()
		return c
	}
	c.ActualRecords = n

	switch {
	case sum != d.Checksum:
		c.Status = StatusMismatch
		c.Detail = "checksum differs"
	case n != d.Records:
		c.Status = StatusMismatch
		c.Detail = fmt.Sprintf("expected %d records, found %d", d.Records, n)
	default:
		c.Status = StatusOK
	}
	return c
}
