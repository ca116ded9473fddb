// Package sampler draws event timestamps uniformly from a historical window.
package sampler

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// ErrInvertedWindow is returned when a window ends before it starts.
var ErrInvertedWindow = errors.New("sampler: window end precedes start")

// Window is a closed interval of wall-clock time with second resolution.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewWindow returns the window covering the given number of days up to end.
func NewWindow(end time.Time, days int) (Window, error) {
	if days < 0 {
		return Window{}, fmt.Errorf("days must be non-negative, got %d: %w", days, ErrInvertedWindow)
	}
	end = end.Truncate(time.Second)
	w := Window{Start: end.AddDate(0, 0, -days), End: end}
	return w, w.Validate()
}

// Validate rejects windows whose end precedes their start. A zero-length
// window is valid.
func (w Window) Validate() error {
	if w.End.Before(w.Start) {
		return fmt.Errorf("%s before %s: %w", w.End.Format(time.RFC3339), w.Start.Format(time.RFC3339), ErrInvertedWindow)
	}
	return nil
}

// Seconds returns the window span in whole seconds.
func (w Window) Seconds() int64 {
	return int64(w.End.Sub(w.Start) / time.Second)
}

// Sample draws an offset uniformly in [0, Seconds()] and returns Start plus
// that offset. Draws are independent; a zero-length window always yields Start.
func (w Window) Sample(r *rand.Rand) time.Time {
	span := w.Seconds()
	if span <= 0 {
		return w.Start
	}
	return w.Start.Add(time.Duration(r.Int64N(span+1)) * time.Second)
}
