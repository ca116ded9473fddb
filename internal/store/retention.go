package store

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// RetentionPolicy decides which runs stay in the manifest. Runs are passed
// newest first.
type RetentionPolicy interface {
	Keep(runs []Run, now time.Time) []Run
}

// CountPolicy keeps the MaxCount most recent runs.
type CountPolicy struct {
	MaxCount int
}

// Keep implements RetentionPolicy.
func (p CountPolicy) Keep(runs []Run, _ time.Time) []Run {
	if len(runs) <= p.MaxCount {
		return runs
	}
	return runs[:max(p.MaxCount, 0)]
}

// AgePolicy keeps runs started within MaxAge of now.
type AgePolicy struct {
	MaxAge time.Duration
}

// Keep implements RetentionPolicy.
func (p AgePolicy) Keep(runs []Run, now time.Time) []Run {
	cutoff := now.Add(-p.MaxAge)
	var keep []Run
	for _, r := range runs {
		if r.StartedAt.After(cutoff) {
			keep = append(keep, r)
		}
	}
	return keep
}

// AnyPolicy keeps a run if any of its policies keeps it.
type AnyPolicy []RetentionPolicy

// Keep implements RetentionPolicy.
func (p AnyPolicy) Keep(runs []Run, now time.Time) []Run {
	kept := make(map[string]bool)
	for _, policy := range p {
		for _, r := range policy.Keep(runs, now) {
			kept[r.ID] = true
		}
	}

	var result []Run
	for _, r := range runs {
		if kept[r.ID] {
			result = append(result, r)
		}
	}
	return result
}

// Prune removes manifest entries the policy does not keep and returns their
// IDs. Dataset files on disk are not touched.
func (m *Manifest) Prune(ctx context.Context, policy RetentionPolicy, now time.Time) ([]string, error) {
	runs, err := m.ListRuns(ctx, 0)
	if err != nil {
		return nil, err
	}

	keep := make(map[string]bool)
	for _, r := range policy.Keep(runs, now) {
		keep[r.ID] = true
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var removed []string
	for _, r := range runs {
		if keep[r.ID] {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, r.ID); err != nil {
			return nil, fmt.Errorf("failed to delete run %s: %w", r.ID, err)
		}
		removed = append(removed, r.ID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit prune: %w", err)
	}
	return removed, nil
}

// ParseAge parses ages like "720h", "30d" or "2w".
func ParseAge(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("empty duration string")
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	num, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || num < 0 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}
	switch s[len(s)-1] {
	case 'd':
		return time.Duration(num) * 24 * time.Hour, nil
	case 'w':
		return time.Duration(num) * 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown duration suffix %q in %q", s[len(s)-1:], s)
	}
}
